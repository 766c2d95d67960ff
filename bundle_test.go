package glance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/errortypes"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBundleErrors(t *testing.T) {
	var tests = []struct {
		name   string
		bundle *Bundle
		kind   errortypes.Kind
		msg    string
	}{
		{"missing dir", NewBundle().AddTemplateDir("testdata/nope"), 0, "read template dir"},
		{"missing file", NewBundle().AddTemplateFile("testdata/nope.html"), 0, "read template"},
		{"missing globals", NewBundle().AddGlobalsFile("testdata/nope.txt"), 0, "open globals"},
		{"duplicate global", NewBundle().
			AddGlobalsMap(data.Map{"a": data.Int(1)}).
			AddGlobalsMap(data.Map{"a": data.Int(2)}), 0, `global "a" already defined as 1`},
		{"duplicate template", NewBundle().
			AddTemplateString("a", "").
			AddTemplateString("a", ""), 0, `template "a" defined twice`},
		{"unknown command", NewBundle().AddTemplateString("bad", "\n{{bogus}}"), errortypes.UnknownCommand, "template bad:2:1"},
		{"unclosed", NewBundle().AddTemplateString("bad", "{{if $a == 1}}"), errortypes.UnmatchedDirective, "template bad:1:1"},
	}
	for _, test := range tests {
		_, err := test.bundle.Compile()
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: expected %q in %q", test.name, test.msg, err.Error())
		}
		if errortypes.KindOf(err) != test.kind {
			t.Errorf("%s: expected kind %v, got %v", test.name, test.kind, errortypes.KindOf(err))
		}
	}
}

func TestTemplateName(t *testing.T) {
	for in, out := range map[string]string{
		"templates/service.html": "service",
		"widget.html":            "widget",
		"/a/b/c.d.html":          "c.d",
		"noext":                  "noext",
	} {
		if got := TemplateName(in); got != out {
			t.Errorf("%s: expected %s, got %s", in, out, got)
		}
	}
}

func TestHandleEvent(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "service.html")
	writeFile(t, path, "v1 {{$a}}")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	var reloads []string
	var b = NewBundle().AddTemplateDir(dir).OnReload(func(name string, err error) {
		var status = "ok"
		if err != nil {
			status = "error"
		}
		reloads = append(reloads, name+":"+status)
	})
	templates, err := b.Compile()
	if err != nil {
		t.Fatal(err)
	}
	var store = templates.Store
	var body = func() string {
		tmpl, _ := store.Get("service")
		return tmpl.Body
	}

	// a good change is swapped in
	writeFile(t, path, "v2 {{$a}}")
	b.handleEvent(store, fsnotify.Event{Name: path, Op: fsnotify.Write})
	if body() != "v2 {{$a}}" {
		t.Errorf("expected v2, got %q", body())
	}

	// a broken change keeps the previous version
	writeFile(t, path, "v3 {{if $a}}")
	b.handleEvent(store, fsnotify.Event{Name: path, Op: fsnotify.Write})
	if body() != "v2 {{$a}}" {
		t.Errorf("expected v2 to be kept, got %q", body())
	}

	// new templates in the directory are picked up, other files are not
	var added = filepath.Join(dir, "widget.html")
	writeFile(t, added, "{{$title}}")
	b.handleEvent(store, fsnotify.Event{Name: added, Op: fsnotify.Create})
	b.handleEvent(store, fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write})
	if _, ok := store.Get("widget"); !ok {
		t.Errorf("expected widget to be added")
	}
	if _, ok := store.Get("notes"); ok {
		t.Errorf("expected notes.txt to be ignored")
	}

	// removal drops the entry
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	b.handleEvent(store, fsnotify.Event{Name: path, Op: fsnotify.Remove})
	if _, ok := store.Get("service"); ok {
		t.Errorf("expected service to be removed")
	}
	_, err = templates.ResolveByName("service", nil)
	if !errors.Is(err, errortypes.TemplateNotFound) {
		t.Errorf("expected TemplateNotFound after removal, got %v", err)
	}

	var expected = []string{"service:ok", "service:error", "widget:ok", "service:ok"}
	if strings.Join(reloads, ",") != strings.Join(expected, ",") {
		t.Errorf("expected reloads %v, got %v", expected, reloads)
	}
}

func TestHandleEventRemoveByFile(t *testing.T) {
	var dir = t.TempDir()
	var b = NewBundle().AddTemplateDir(dir).AddTemplateString("widget", "inline")
	templates, err := b.Compile()
	if err != nil {
		t.Fatal(err)
	}
	b.handleEvent(templates.Store, fsnotify.Event{Name: filepath.Join(dir, "widget.html"), Op: fsnotify.Remove})
	if got, ok := templates.Store.Get("widget"); !ok || got.Body != "inline" {
		t.Errorf("expected the string template to survive, got %+v, %v", got, ok)
	}
}

func TestWatchFiles(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "hello.html")
	writeFile(t, path, "Hello {{$name}}")

	var reloaded = make(chan string, 16)
	var b = NewBundle().
		WatchFiles(true).
		AddTemplateDir(dir).
		OnReload(func(name string, err error) { reloaded <- name })
	templates, err := b.Compile()
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	writeFile(t, path, "Goodbye {{$name}}")
	var deadline = time.After(5 * time.Second)
	for {
		var vars = data.Map{"name": data.String("World")}
		if result, _ := templates.ResolveByName("hello", vars); result == "Goodbye World" {
			break
		}
		select {
		case <-reloaded:
		case <-deadline:
			t.Fatal("timed out waiting for the template to reload")
		}
	}
}

