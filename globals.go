package glance

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/engine"
	"github.com/systemd-glance/glance/errortypes"
)

var globalName = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// ParseGlobals parses the given input, expecting the form:
//  <global_name> = <literal>
//
// Furthermore:
//  - Empty lines and lines beginning with '//' are ignored.
//  - <literal> must be a valid predicate literal: null, boolean, number,
//    string, list or map.
//
// Errors implement errortypes.ErrFilePos.
func ParseGlobals(input io.Reader) (data.Map, error) {
	return parseGlobals(input, "")
}

func parseGlobals(input io.Reader, file string) (data.Map, error) {
	var globals = make(data.Map)
	var scanner = bufio.NewScanner(input)
	var lineno = 0
	for scanner.Scan() {
		lineno++
		var raw = scanner.Text()
		var line = strings.TrimSpace(raw)
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}
		var errorf = func(col int, format string, args ...interface{}) error {
			return errortypes.NewErrFilePosf(file, lineno, col,
				"line %d: "+format, append([]interface{}{lineno}, args...)...)
		}
		var nameCol = len(raw) - len(strings.TrimLeft(raw, " \t")) + 1
		var eq = strings.Index(raw, "=")
		if eq == -1 {
			return nil, errorf(nameCol, "no equals on line: %q", line)
		}
		var (
			name    = strings.TrimSpace(raw[:eq])
			expr    = strings.TrimSpace(raw[eq+1:])
			exprCol = eq + 2 + len(raw[eq+1:]) - len(strings.TrimLeft(raw[eq+1:], " \t"))
		)
		if !globalName.MatchString(name) {
			return nil, errorf(nameCol, "invalid global name %q", name)
		}
		if _, ok := globals[name]; ok {
			return nil, errorf(nameCol, "global %q already defined", name)
		}
		value, err := engine.EvalExpr(expr)
		if err != nil {
			return nil, errorf(exprCol, "%v", err)
		}
		globals[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return globals, nil
}
