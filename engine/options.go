package engine

import "github.com/systemd-glance/glance/data"

// DefaultMaxDepth is the deepest for-loop nesting a template may use.
const DefaultMaxDepth = 64

type config struct {
	name      string
	ignoreAll bool
	exempt    map[string]bool
	loopVars  map[string]bool // bound by an enclosing for; exempt
	maxDepth  int
	globals   data.Map
}

// Option configures a resolution.
type Option func(*config)

// IgnoreUnsolved tolerates every missing variable: unresolved {{$name}}
// markers are left in the output and unresolved predicate references read as
// null.
func IgnoreUnsolved() Option {
	return func(c *config) { c.ignoreAll = true }
}

// Exempt tolerates the named variables being missing, as IgnoreUnsolved does
// for all of them.
func Exempt(names ...string) Option {
	return func(c *config) {
		for _, name := range names {
			c.exempt[name] = true
		}
	}
}

// MaxDepth sets the deepest allowed for-loop nesting.
func MaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// Name sets the template name reported in errors.
func Name(name string) Option {
	return func(c *config) { c.name = name }
}

// Globals supplies values visible to the template beneath the caller's scope.
func Globals(globals data.Map) Option {
	return func(c *config) { c.globals = globals }
}

func newConfig(opts []Option) *config {
	var c = &config{
		exempt:   make(map[string]bool),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isExempt reports whether a missing name is tolerated.
func (c *config) isExempt(name string) bool {
	return c.ignoreAll || c.exempt[name] || c.loopVars[name]
}

// with returns a copy of the config for the body of a loop over loopVar.
func (c *config) with(loopVar string) *config {
	var cp = *c
	cp.loopVars = make(map[string]bool, len(c.loopVars)+1)
	for k, v := range c.loopVars {
		cp.loopVars[k] = v
	}
	cp.loopVars[loopVar] = true
	return &cp
}
