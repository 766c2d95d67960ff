package parse

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

var unescapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'/':  '/',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'0':  0,
}

// unquoteString takes a quoted string literal (including the surrounding
// quotes) and returns the unquoted string, along with any error encountered.
// Double quoted strings follow Go syntax, which covers everything
// data.Value.Literal produces.  Single quoted strings accept the usual
// backslash escapes and \uNNNN.
func unquoteString(s string) (string, error) {
	n := len(s)
	if n < 2 {
		return "", errors.New("too short a string")
	}
	if s[0] == '"' && s[n-1] == '"' {
		return strconv.Unquote(s)
	}
	if '\'' != s[0] || '\'' != s[n-1] {
		return "", errors.New("string not surrounded by quotes")
	}

	s = s[1 : n-1]
	if !contains(s, '\\') {
		return s, nil
	}

	var escaping = false
	var result = make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if escaping {
			if r == 'u' {
				if i+4 > len(s) {
					return "", errors.New("error scanning unicode escape, expect \\uNNNN")
				}
				num, err := strconv.ParseUint(s[i:i+4], 16, 16)
				if err != nil {
					return "", err
				}
				result = append(result, rune(num))
				i += 4
				escaping = false
				continue
			}
			replacement, ok := unescapes[r]
			if !ok {
				return "", errors.New("unrecognized escape code: \\" + string(r))
			}
			result = append(result, replacement)
			escaping = false
			continue
		}

		if r == '\\' {
			escaping = true
			continue
		}
		result = append(result, r)
	}
	if escaping {
		return "", errors.New("string ends with a backslash")
	}
	return string(result), nil
}

func contains(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}
