// Package widget renders the service status widget: one "service" template
// per requested unit, collected into the "widget" template.
package widget

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/engine"
	"github.com/systemd-glance/glance/errortypes"
	"github.com/systemd-glance/glance/i18n"
	"github.com/systemd-glance/glance/systemd"
)

// Template names looked up in the store.
const (
	ServiceTemplate = "service"
	WidgetTemplate  = "widget"
)

// DefaultTitle is used when a request carries no title.
const DefaultTitle = "Systemd Services"

// Summary message ids; translations use two %d verbs: active, then total.
const (
	SummaryOne   = "%d of %d service active"
	SummaryOther = "%d of %d services active"
)

// Resolver resolves a stored template by name.
type Resolver interface {
	ResolveByName(name string, vars data.Map, opts ...engine.Option) (string, error)
}

// Querier reports unit states, in the order requested.
type Querier interface {
	Services(ctx context.Context, names []string) ([]systemd.Status, error)
}

// Widget renders status pages.  It is safe for concurrent use when its
// Resolver and Querier are.
type Widget struct {
	Templates    Resolver
	Services     Querier
	Catalogs     *i18n.Catalogs // may be nil
	DefaultTitle string         // DefaultTitle when empty
	Logger       *slog.Logger   // slog.Default() when nil
}

// Request describes one widget rendering.
type Request struct {
	Services []string // unit names
	Titles   []string // display titles by position; missing or blank means the unit name
	Title    string   // widget title
	Language string   // Accept-Language header value
}

// Response is a rendered widget.
type Response struct {
	Title  string
	Locale string // catalog locale, "" when untranslated
	HTML   string
}

// ResolveError reports a template that failed to resolve.
type ResolveError struct {
	Template string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("Error resolving template %q: %v", e.Template, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
func (e *ResolveError) Cause() error  { return e.Err }

// ParseRequest reads a request from the query parameters services,
// servicesTitle and title.  Lists are comma separated.
func ParseRequest(query url.Values, acceptLanguage string) (Request, error) {
	var req = Request{
		Services: splitList(query.Get("services")),
		Titles:   splitList(query.Get("servicesTitle")),
		Title:    strings.TrimSpace(query.Get("title")),
		Language: acceptLanguage,
	}
	if len(req.Services) == 0 {
		return req, errors.New("missing required parameter: services")
	}
	for _, name := range req.Services {
		if name == "" {
			return req, errors.New("empty service name in services")
		}
		if !systemd.ValidUnitName(name) {
			return req, errors.Errorf("invalid service name %q", name)
		}
	}
	return req, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts = strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Render queries the requested units and resolves the templates.  Strings
// from the request, the host and the catalogs are HTML-escaped before they
// enter a template scope.  Template failures are returned as *ResolveError.
func (w *Widget) Render(ctx context.Context, req Request) (Response, error) {
	statuses, err := w.Services.Services(ctx, req.Services)
	if err != nil {
		return Response{}, errors.Wrap(err, "query services")
	}

	var (
		cat      = w.Catalogs.Match(req.Language)
		elements = make(data.List, 0, len(statuses))
		active   = 0
	)
	for i, st := range statuses {
		if st.Active() {
			active++
		}
		var title = st.Name
		if i < len(req.Titles) && req.Titles[i] != "" {
			title = req.Titles[i]
		}
		out, err := w.Templates.ResolveByName(ServiceTemplate, serviceScope(st, title, cat))
		if err != nil {
			return Response{}, &ResolveError{ServiceTemplate, err}
		}
		elements = append(elements, data.String(out+"\n"))
	}

	var title = req.Title
	if title == "" {
		title = w.defaultTitle()
	}
	out, err := w.Templates.ResolveByName(WidgetTemplate, data.Map{
		"serviceElements": elements,
		"title":           escaped(title),
		"summary":         escaped(fmt.Sprintf(cat.NGet(SummaryOne, SummaryOther, len(statuses)), active, len(statuses))),
		"activeCount":     data.Int(active),
		"serviceCount":    data.Int(len(statuses)),
	})
	if err != nil {
		return Response{}, &ResolveError{WidgetTemplate, err}
	}
	return Response{title, cat.Locale(), out}, nil
}

func serviceScope(st systemd.Status, title string, cat *i18n.Catalog) data.Map {
	return data.Map{
		"service.name":        escaped(st.Name),
		"service.title":       escaped(title),
		"service.activeState": escaped(st.ActiveState),
		"service.subState":    escaped(st.SubState),
		"service.description": escaped(st.Description),
		"service.label":       escaped(cat.Get(st.ActiveState)),
		"service.active":      data.Bool(st.Active()),
	}
}

// escaped makes s safe in both element text and quoted attributes.
func escaped(s string) data.String {
	return data.String(html.EscapeString(s))
}

func (w *Widget) defaultTitle() string {
	if w.DefaultTitle != "" {
		return w.DefaultTitle
	}
	return DefaultTitle
}

func (w *Widget) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// ServeHTTP renders the widget for a GET request.
func (w *Widget) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		rw.Header().Set("Allow", "GET, HEAD")
		http.Error(rw, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := ParseRequest(r.URL.Query(), r.Header.Get("Accept-Language"))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := w.Render(r.Context(), req)
	var resolveErr *ResolveError
	switch {
	case errors.As(err, &resolveErr):
		var attrs = []any{"template", resolveErr.Template, "error", resolveErr.Err}
		if kind := errortypes.KindOf(err); kind != 0 {
			attrs = append(attrs, "kind", kind.Error())
		}
		if pos := errortypes.ToErrFilePos(err); pos != nil && pos.Line() > 0 {
			attrs = append(attrs, "line", pos.Line(), "col", pos.Col())
		}
		w.logger().Error("Template resolution failed", attrs...)
		http.Error(rw, resolveErr.Error(), http.StatusInternalServerError)
		return
	case err != nil:
		w.logger().Error("Service query failed", "services", req.Services, "error", err)
		http.Error(rw, "Failed to query services", http.StatusBadGateway)
		return
	}

	var h = rw.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Widget-Title", resp.Title)
	h.Set("Widget-Content-Type", "html")
	if resp.Locale != "" {
		h.Set("Content-Language", strings.ReplaceAll(resp.Locale, "_", "-"))
	}
	rw.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		fmt.Fprint(rw, resp.HTML)
	}
	w.logger().Debug("Widget rendered", "services", len(req.Services), "locale", resp.Locale)
}
