package parse

import (
	"regexp"
	"strings"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/errortypes"
)

// varPrefix matches a $name reference at the start of the input.
var varPrefix = regexp.MustCompile(`^\$([a-zA-Z0-9_.]+)`)

// ReplaceVars rewrites every $name reference in pred that lies outside a
// quoted string with the text returned by repl.
func ReplaceVars(pred string, repl func(name string) (string, error)) (string, error) {
	var buf strings.Builder
	var quote byte
	for i := 0; i < len(pred); {
		var c = pred[i]
		switch {
		case quote != 0:
			buf.WriteByte(c)
			i++
			if c == '\\' && i < len(pred) {
				buf.WriteByte(pred[i])
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		case c == '"' || c == '\'':
			quote = c
		case c == '$':
			if loc := varPrefix.FindStringSubmatchIndex(pred[i:]); loc != nil {
				lit, err := repl(pred[i+loc[2] : i+loc[3]])
				if err != nil {
					return "", err
				}
				buf.WriteString(lit)
				i += loc[1]
				continue
			}
		}
		buf.WriteByte(c)
		i++
	}
	return buf.String(), nil
}

// ParseIterable parses the inline iterable of a for directive,
// e.g. the `[1, 2, 3]` of {{for x in [1, 2, 3]}}.
func ParseIterable(args []string) (data.Value, error) {
	return data.ParseJSON(strings.Join(args, " "))
}

type checkFrame struct {
	dir     Directive
	sawElse bool
}

// Check verifies the directive structure of a template body without resolving
// it.  Every command must be known, every if and for must be closed, and
// predicates must be syntactically valid once their variables are bound.
// The returned error is an *errortypes.Error positioned at the first problem.
func Check(name, body string) error {
	var stack []*checkFrame
	var errorf = func(kind errortypes.Kind, d Directive, format string, args ...interface{}) error {
		line, col := LineCol(body, d.Pos)
		return errortypes.Errorf(kind, name, errortypes.Pos{Line: line, Col: col}, format, args...)
	}
	var top = func() *checkFrame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for _, d := range Directives(body) {
		if d.IsVariable() {
			continue
		}
		switch d.Command {
		case CmdIf, CmdElseif:
			if len(d.Args) < 2 {
				return errorf(errortypes.InvalidDirective, d, "%s requires a predicate of at least two arguments", d.Command)
			}
			if err := checkPredicate(d.Args); err != nil {
				return errorf(errortypes.PredicateEvaluationError, d, "invalid predicate %q: %v", strings.Join(d.Args, " "), err)
			}
			if d.Command == CmdIf {
				stack = append(stack, &checkFrame{dir: d})
				continue
			}
			var f = top()
			if f == nil || f.dir.Command != CmdIf {
				return errorf(errortypes.UnmatchedDirective, d, "elseif without matching if")
			}
			if f.sawElse {
				return errorf(errortypes.InvalidDirective, d, "elseif after else")
			}
		case CmdElse:
			if len(d.Args) > 0 {
				return errorf(errortypes.InvalidDirective, d, "else takes no arguments")
			}
			var f = top()
			if f == nil || f.dir.Command != CmdIf {
				return errorf(errortypes.UnmatchedDirective, d, "else without matching if")
			}
			if f.sawElse {
				return errorf(errortypes.InvalidDirective, d, "else after else")
			}
			f.sawElse = true
		case CmdEndif:
			var f = top()
			if f == nil || f.dir.Command != CmdIf {
				return errorf(errortypes.UnmatchedDirective, d, "endif without matching if")
			}
			stack = stack[:len(stack)-1]
		case CmdFor:
			if len(d.Args) < 3 {
				return errorf(errortypes.InvalidDirective, d, "for requires the form {{for x in $list}}")
			}
			if d.Args[1] != "in" {
				return errorf(errortypes.InvalidIterable, d, "expected 'in', got %q", d.Args[1])
			}
			if !strings.HasPrefix(d.Args[2], "$") {
				v, err := ParseIterable(d.Args[2:])
				if err != nil {
					return errorf(errortypes.InvalidIterable, d, "invalid inline iterable: %v", err)
				}
				if _, ok := v.(data.List); !ok {
					return errorf(errortypes.InvalidIterable, d, "iterable must be a list, got %s", data.TypeName(v))
				}
			}
			stack = append(stack, &checkFrame{dir: d})
		case CmdEnd:
			if len(d.Args) > 0 {
				return errorf(errortypes.InvalidDirective, d, "end takes no arguments")
			}
			var f = top()
			if f == nil || f.dir.Command != CmdFor {
				return errorf(errortypes.UnmatchedDirective, d, "end without matching for")
			}
			stack = stack[:len(stack)-1]
		default:
			return errorf(errortypes.UnknownCommand, d, "unknown command %q", d.Command)
		}
	}
	if f := top(); f != nil {
		return errorf(errortypes.UnmatchedDirective, f.dir, "%s is never closed", f.dir.Command)
	}
	return nil
}

// checkPredicate parses the predicate with every variable bound to null.
func checkPredicate(args []string) error {
	pred, err := ReplaceVars(strings.Join(args, " "), func(string) (string, error) {
		return "null", nil
	})
	if err != nil {
		return err
	}
	_, err = Expr(pred)
	return err
}
