package errortypes

import "fmt"

// Kind classifies a template resolution failure. Kinds are errors themselves,
// so callers can test for them with errors.Is.
type Kind int

const (
	UnknownCommand Kind = iota + 1
	InvalidDirective
	UnmatchedDirective
	MissingVariable
	InvalidIterable
	PredicateEvaluationError
	TemplateNotFound
)

var kindNames = map[Kind]string{
	UnknownCommand:           "unknown command",
	InvalidDirective:         "invalid directive",
	UnmatchedDirective:       "unmatched directive",
	MissingVariable:          "missing variable",
	InvalidIterable:          "invalid iterable",
	PredicateEvaluationError: "predicate evaluation error",
	TemplateNotFound:         "template not found",
}

func (k Kind) Error() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is a resolution failure positioned within the top-level template.
// Line and Col are 1-based; a zero Line means the failure has no position,
// e.g. a template that could not be found.
type Error struct {
	Kind     Kind
	Template string // template name, may be empty for anonymous bodies
	Pos      Pos
	Msg      string
}

// Pos is a 1-based line and column.
type Pos struct {
	Line, Col int
}

var _ ErrFilePos = (*Error)(nil)

// Errorf creates a positioned error of the given kind.
func Errorf(kind Kind, name string, pos Pos, format string, args ...interface{}) *Error {
	return &Error{kind, name, pos, fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("template %s: %s", e.Template, e.Msg)
	}
	return fmt.Sprintf("template %s:%d:%d: %s", e.Template, e.Pos.Line, e.Pos.Col, e.Msg)
}

// Unwrap exposes the Kind so that errors.Is(err, MissingVariable) holds.
func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) File() string { return e.Template }
func (e *Error) Line() int    { return e.Pos.Line }
func (e *Error) Col() int     { return e.Pos.Col }

// KindOf returns the Kind carried by err, or zero if err carries none.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case Kind:
			return e
		case *Error:
			return e.Kind
		}
		err = unwrapOnce(err)
	}
	return 0
}
