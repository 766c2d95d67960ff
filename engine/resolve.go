// Package engine resolves template bodies: it interpolates {{$name}} markers,
// keeps the surviving branch of each if/elseif/else/endif chain and expands
// for/end loops, producing the final text.
package engine

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/errortypes"
	"github.com/systemd-glance/glance/parse"
)

// Resolve resolves body against vars.  Errors are *errortypes.Error values
// positioned within body.
func Resolve(body string, vars data.Map, opts ...Option) (result string, err error) {
	var cfg = newConfig(opts)
	var sc scope
	if cfg.globals != nil {
		sc = sc.push(cfg.globals)
	}
	if vars == nil {
		vars = data.Map{}
	}
	var s = &state{
		cfg:    cfg,
		source: body,
		scope:  sc.push(vars),
	}
	defer s.errRecover(&err)
	return s.resolve(body), nil
}

// frame is an open block: *ifFrame or *forFrame.
type frame interface {
	opener() parse.Directive
}

type ifFrame struct {
	dir     parse.Directive
	start   int  // offset in the current text where the discarded span begins
	taken   bool // some branch of the chain matched
	live    bool // the text being scanned is the matched branch
	sawElse bool
}

type forFrame struct {
	dir     parse.Directive
	start   int // offset of the for marker in the current text
	loopVar string
	items   data.List
}

func (f *ifFrame) opener() parse.Directive  { return f.dir }
func (f *forFrame) opener() parse.Directive { return f.dir }

// state represents one resolution pass over a body.  Loop bodies get their own
// state, sharing the top-level source for diagnostics.
type state struct {
	cfg    *config
	source string // top-level template text, for line numbers
	base   int    // offset of this body within source
	depth  int    // number of enclosing for loops
	scope  scope

	orig   string            // body as scanned
	text   string            // body with the edits made so far
	delta  int               // len(text) - len(orig) up to the current directive
	frames []frame           // open blocks that affect the output
	skip   []parse.Directive // openers nested inside a discarded span
	dir    parse.Directive   // current directive, for errors
}

// errorf formats the error and terminates processing.
func (s *state) errorf(kind errortypes.Kind, format string, args ...interface{}) {
	line, col := parse.LineCol(s.source, s.base+s.dir.Pos)
	panic(errortypes.Errorf(kind, s.cfg.name, errortypes.Pos{Line: line, Col: col}, format, args...))
}

// errRecover is the handler that turns panics into returns from the top
// level of Resolve.
func (s *state) errRecover(errp *error) {
	if e := recover(); e != nil {
		switch e := e.(type) {
		case runtime.Error:
			*errp = fmt.Errorf("template %s: %v\n%v", s.cfg.name, e, string(debug.Stack()))
		case error:
			*errp = e
		default:
			*errp = fmt.Errorf("template %s: %v", s.cfg.name, e)
		}
	}
}

// resolve runs one pass over body.
func (s *state) resolve(body string) string {
	s.orig, s.text = body, body
	for _, d := range parse.Directives(body) {
		s.dir = d
		if s.discarding() {
			s.skipped(d)
		} else {
			s.walk(d)
		}
	}
	if n := len(s.skip); n > 0 {
		s.dir = s.skip[n-1]
		s.errorf(errortypes.UnmatchedDirective, "%s is never closed", s.dir.Command)
	}
	if n := len(s.frames); n > 0 {
		s.dir = s.frames[n-1].opener()
		s.errorf(errortypes.UnmatchedDirective, "%s is never closed", s.dir.Command)
	}
	return s.text
}

// at returns the offset of the current directive in the current text.
func (s *state) at() int {
	return s.dir.Pos + s.delta
}

// replace swaps text[from:to] for insert.
func (s *state) replace(from, to int, insert string) {
	s.text = splice(s.text, from, to-from, insert)
	s.delta += len(insert) - (to - from)
}

func (s *state) top() frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *state) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// discarding reports whether the text at the current position will be
// dropped or handled by a nested pass: a branch that did not match, or a loop
// body.
func (s *state) discarding() bool {
	switch f := s.top().(type) {
	case *forFrame:
		return true
	case *ifFrame:
		return !f.live
	}
	return false
}

// walk handles a directive in text that survives.
func (s *state) walk(d parse.Directive) {
	if d.IsVariable() {
		s.interpolate(d)
		return
	}
	switch d.Command {
	case parse.CmdIf:
		s.checkPredicateArgs(d)
		var taken = s.predicate(d)
		var f = &ifFrame{dir: d, start: s.at(), taken: taken, live: taken}
		if taken {
			s.replace(s.at(), s.at()+d.Len, "")
		}
		s.frames = append(s.frames, f)
	case parse.CmdElseif, parse.CmdElse, parse.CmdEndif:
		f, ok := s.top().(*ifFrame)
		if !ok {
			s.errorf(errortypes.UnmatchedDirective, "%s without matching if", d.Command)
		}
		s.chain(f, d)
	case parse.CmdFor:
		s.openFor(d)
	case parse.CmdEnd:
		s.errorf(errortypes.UnmatchedDirective, "end without matching for")
	default:
		s.errorf(errortypes.UnknownCommand, "unknown command %q", d.Command)
	}
}

// skipped handles a directive in text that will not survive this pass.  Only
// nesting is tracked, so that the closer of the innermost frame is found;
// predicates and iterables are not evaluated, but the directive shape is.
func (s *state) skipped(d parse.Directive) {
	if d.IsVariable() {
		return
	}
	switch d.Command {
	case parse.CmdIf:
		s.checkPredicateArgs(d)
		s.skip = append(s.skip, d)
		return
	case parse.CmdFor:
		s.checkForArgs(d)
		s.skip = append(s.skip, d)
		return
	case parse.CmdElseif:
		s.checkPredicateArgs(d)
	case parse.CmdElse, parse.CmdEnd:
		s.checkNoArgs(d)
	case parse.CmdEndif:
	default:
		s.errorf(errortypes.UnknownCommand, "unknown command %q", d.Command)
	}

	var opener = parse.CmdIf
	if d.Command == parse.CmdEnd {
		opener = parse.CmdFor
	}
	if n := len(s.skip); n > 0 {
		if s.skip[n-1].Command != opener {
			s.errorf(errortypes.UnmatchedDirective, "%s without matching %s", d.Command, opener)
		}
		if d.Command == parse.CmdEndif || d.Command == parse.CmdEnd {
			s.skip = s.skip[:n-1]
		}
		return
	}

	switch f := s.top().(type) {
	case *ifFrame:
		if opener != parse.CmdIf {
			s.errorf(errortypes.UnmatchedDirective, "end without matching for")
		}
		s.chain(f, d)
	case *forFrame:
		if opener != parse.CmdFor {
			s.errorf(errortypes.UnmatchedDirective, "%s without matching if", d.Command)
		}
		s.closeFor(f, d)
	}
}

// chain advances an if chain on elseif, else or endif.
func (s *state) chain(f *ifFrame, d parse.Directive) {
	switch d.Command {
	case parse.CmdElseif:
		s.checkPredicateArgs(d)
		if f.sawElse {
			s.errorf(errortypes.InvalidDirective, "elseif after else")
		}
	case parse.CmdElse:
		s.checkNoArgs(d)
		if f.sawElse {
			s.errorf(errortypes.InvalidDirective, "else after else")
		}
		f.sawElse = true
	}

	switch {
	case f.live:
		// the matched branch ends here; everything up to endif goes
		f.live = false
		f.start = s.at()
		if d.Command == parse.CmdEndif {
			s.replace(s.at(), s.at()+d.Len, "")
		}
	case f.taken:
		if d.Command == parse.CmdEndif {
			s.replace(f.start, s.at()+d.Len, "")
		}
	default:
		// nothing matched yet: drop the failed branch and this marker
		s.replace(f.start, s.at()+d.Len, "")
		switch d.Command {
		case parse.CmdElseif:
			f.taken = s.predicate(d)
		case parse.CmdElse:
			f.taken = true
		}
		f.live = f.taken
	}
	if d.Command == parse.CmdEndif {
		s.pop()
	}
}

// checkPredicateArgs requires a predicate of at least two tokens after if and
// elseif, e.g. {{if $a == 1}}.
func (s *state) checkPredicateArgs(d parse.Directive) {
	if len(d.Args) < 2 {
		s.errorf(errortypes.InvalidDirective, "%s requires a predicate of at least two arguments, got %s", d.Command, d.Raw())
	}
}

func (s *state) checkForArgs(d parse.Directive) {
	if len(d.Args) < 3 {
		s.errorf(errortypes.InvalidDirective, "for requires the form {{for x in $list}}, got %s", d.Raw())
	}
}

func (s *state) checkNoArgs(d parse.Directive) {
	if len(d.Args) > 0 {
		s.errorf(errortypes.InvalidDirective, "%s takes no arguments", d.Command)
	}
}

// openFor resolves the iterable of a for directive and starts its frame.
func (s *state) openFor(d parse.Directive) {
	s.checkForArgs(d)
	if d.Args[1] != "in" {
		s.errorf(errortypes.InvalidIterable, "expected 'in' after the loop variable, got %q", d.Args[1])
	}
	if s.depth >= s.cfg.maxDepth {
		s.errorf(errortypes.InvalidDirective, "for loops nested deeper than %d", s.cfg.maxDepth)
	}

	var iterable data.Value
	if src := d.Args[2]; strings.HasPrefix(src, "$") && len(d.Args) == 3 {
		// a missing source is never exempt; it fails below as undefined
		iterable, _ = s.scope.lookup(src[1:])
	} else {
		val, err := parse.ParseIterable(d.Args[2:])
		if err != nil {
			s.errorf(errortypes.InvalidIterable, "invalid inline iterable %q: %v", strings.Join(d.Args[2:], " "), err)
		}
		iterable = val
	}
	items, ok := iterable.(data.List)
	if !ok {
		s.errorf(errortypes.InvalidIterable, "iterable %s must be a list, got %s",
			strings.Join(d.Args[2:], " "), data.TypeName(iterable))
	}
	s.frames = append(s.frames, &forFrame{
		dir:     d,
		start:   s.at(),
		loopVar: d.Args[0],
		items:   items,
	})
}

// closeFor expands a loop: the raw body is resolved once per item with the
// loop variable bound, and the results replace the whole for...end span.
func (s *state) closeFor(f *forFrame, d parse.Directive) {
	s.checkNoArgs(d)
	var body = s.orig[f.dir.End():d.Pos]
	var out strings.Builder
	for _, item := range f.items {
		var child = &state{
			cfg:    s.cfg.with(f.loopVar),
			source: s.source,
			base:   s.base + f.dir.End(),
			depth:  s.depth + 1,
			scope:  s.scope.push(data.Map{f.loopVar: item}),
		}
		out.WriteString(child.resolve(body))
	}
	s.replace(f.start, s.at()+d.Len, out.String())
	s.pop()
}
