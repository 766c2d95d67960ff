package parse

import (
	"regexp"
	"strings"
)

// Directive commands.
const (
	CmdIf     = "if"
	CmdElseif = "elseif"
	CmdElse   = "else"
	CmdEndif  = "endif"
	CmdFor    = "for"
	CmdEnd    = "end"
)

// Directive is one {{...}} marker found in a template body.
type Directive struct {
	Command string   // e.g. "if", "for", or "$name" for interpolation
	Args    []string // whitespace separated arguments after the command
	Pos     int      // byte offset of the marker in the scanned text
	Len     int      // byte length of the whole marker, braces included
}

// IsVariable reports whether the directive is a bare {{$name}} interpolation.
func (d Directive) IsVariable() bool {
	return strings.HasPrefix(d.Command, "$")
}

// VarName returns the referenced name of a {{$name}} directive.
func (d Directive) VarName() string {
	return strings.TrimPrefix(d.Command, "$")
}

// Raw returns the marker source, e.g. {{if $a == 1}}.
func (d Directive) Raw() string {
	return "{{" + strings.Join(append([]string{d.Command}, d.Args...), " ") + "}}"
}

// End returns the offset just past the marker.
func (d Directive) End() int {
	return d.Pos + d.Len
}

// markers never span lines: '.' does not match a newline.
var directiveRegex = regexp.MustCompile(`\{\{(.*?)\}\}`)

// VarRegex matches a $name reference inside a predicate.
var VarRegex = regexp.MustCompile(`\$([a-zA-Z0-9_.]+)`)

// Directives returns every marker in text, in order of appearance.  Markers
// with no content (e.g. "{{}}" or "{{  }}") are skipped.
func Directives(text string) []Directive {
	var directives []Directive
	for _, loc := range directiveRegex.FindAllStringSubmatchIndex(text, -1) {
		var fields = strings.Fields(text[loc[2]:loc[3]])
		if len(fields) == 0 {
			continue
		}
		directives = append(directives, Directive{
			Command: fields[0],
			Args:    fields[1:],
			Pos:     loc[0],
			Len:     loc[1] - loc[0],
		})
	}
	return directives
}

// LineCol converts a byte offset in text into a 1-based line and column.
func LineCol(text string, pos int) (line, col int) {
	if pos > len(text) {
		pos = len(text)
	}
	if pos < 0 {
		pos = 0
	}
	var prefix = text[:pos]
	return 1 + strings.Count(prefix, "\n"), pos - strings.LastIndex(prefix, "\n")
}
