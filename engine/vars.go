package engine

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/errortypes"
	"github.com/systemd-glance/glance/parse"
)

// interpolate replaces a {{$name}} marker with the plain rendering of the
// value.  A missing or null value leaves an exempt marker in place, except
// that a null loop element renders as nothing.
func (s *state) interpolate(d parse.Directive) {
	var name = d.VarName()
	val, ok := s.scope.lookup(name)
	switch {
	case ok && data.IsNil(val) && s.cfg.loopVars[name]:
		s.replace(s.at(), s.at()+d.Len, "")
		return
	case !ok || data.IsNil(val):
		if s.cfg.isExempt(name) {
			return
		}
		s.errorf(errortypes.MissingVariable, "variable $%s not found", name)
	}
	s.replace(s.at(), s.at()+d.Len, val.String())
}

// literal renders the value of name for use inside a predicate.  Exempt
// missing names read as null; any other missing name is an error.
func (s *state) literal(name string) (string, error) {
	val, ok := s.scope.lookup(name)
	if !ok {
		if s.cfg.isExempt(name) {
			return "null", nil
		}
		return "", errors.Errorf("variable $%s not found", name)
	}
	return val.Literal(), nil
}

// predicate evaluates the condition of an if or elseif directive.
func (s *state) predicate(d parse.Directive) bool {
	var raw = strings.Join(d.Args, " ")
	pred, err := parse.ReplaceVars(raw, s.literal)
	if err != nil {
		s.errorf(errortypes.MissingVariable, "%v", err)
	}
	node, err := parse.Expr(pred)
	if err != nil {
		s.errorf(errortypes.PredicateEvaluationError, "invalid predicate %q: %v", raw, err)
	}
	val, err := Eval(node)
	if err != nil {
		s.errorf(errortypes.PredicateEvaluationError, "evaluating predicate %q: %v", raw, err)
	}
	return val.Truthy()
}
