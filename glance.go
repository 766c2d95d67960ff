package glance

import (
	"log/slog"
	"os"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/engine"
	"github.com/systemd-glance/glance/errortypes"
	"github.com/systemd-glance/glance/template"
)

// Logger is used to print notifications and reload errors when using the
// "WatchFiles" feature.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("pkg", "glance")

// Templates resolves templates from a Store, with a set of global values
// visible beneath every caller scope.
type Templates struct {
	Store    *template.Store
	Globals  data.Map
	MaxDepth int // for-loop nesting limit, engine.DefaultMaxDepth if zero
}

// NewTemplates returns Templates over the given store.
func NewTemplates(store *template.Store, globals data.Map) *Templates {
	return &Templates{Store: store, Globals: globals}
}

// ResolveByName resolves the named template.  A name missing from the store
// is a TemplateNotFound error.
func (t *Templates) ResolveByName(name string, vars data.Map, opts ...engine.Option) (string, error) {
	tmpl, ok := t.Store.Get(name)
	if !ok {
		return "", errortypes.Errorf(errortypes.TemplateNotFound, name, errortypes.Pos{},
			"template %q not found", name)
	}
	return t.Resolve(tmpl.Body, vars, append([]engine.Option{engine.Name(name)}, opts...)...)
}

// Resolve resolves an arbitrary body.
func (t *Templates) Resolve(body string, vars data.Map, opts ...engine.Option) (string, error) {
	var base = []engine.Option{engine.Globals(t.Globals)}
	if t.MaxDepth > 0 {
		base = append(base, engine.MaxDepth(t.MaxDepth))
	}
	return engine.Resolve(body, vars, append(base, opts...)...)
}
