package glance

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/parse"
	"github.com/systemd-glance/glance/template"
)

// TemplateExt is the file extension of template files in a template directory.
const TemplateExt = ".html"

// Bundle is a collection of template sources and globals.  It acts as input
// for Compile, which checks the templates and returns them ready to resolve.
type Bundle struct {
	files    []template.Template
	dirs     []string
	globals  data.Map
	err      error
	watcher  *fsnotify.Watcher
	onReload func(name string, err error)
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{globals: make(data.Map)}
}

// WatchFiles tells the bundle to watch template files and directories added
// to it and swap changed templates into the compiled store.  It should be
// called once, before adding any files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		var w, err = fsnotify.NewWatcher()
		if err != nil {
			b.err = errors.Wrap(err, "watch templates")
			return b
		}
		b.watcher = w
	}
	return b
}

// AddTemplateDir adds every *.html file directly within dir.  The template
// name is the file name without its extension.
func (b *Bundle) AddTemplateDir(dir string) *Bundle {
	if b.err != nil {
		return b
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		b.err = errors.Wrapf(err, "read template dir %s", dir)
		return b
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != TemplateExt {
			continue
		}
		b.addFile(filepath.Join(dir, entry.Name()))
	}
	b.dirs = append(b.dirs, dir)
	if b.err == nil && b.watcher != nil {
		if err := b.watcher.Add(dir); err != nil {
			b.err = errors.Wrapf(err, "watch %s", dir)
		}
	}
	return b
}

// AddTemplateFile adds the given template file to this bundle.  If WatchFiles
// is on, it will be subsequently watched for updates.
func (b *Bundle) AddTemplateFile(filename string) *Bundle {
	b.addFile(filename)
	if b.err == nil && b.watcher != nil {
		if err := b.watcher.Add(filename); err != nil {
			b.err = errors.Wrapf(err, "watch %s", filename)
		}
	}
	return b
}

func (b *Bundle) addFile(filename string) {
	if b.err != nil {
		return
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		b.err = errors.Wrapf(err, "read template %s", filename)
		return
	}
	b.files = append(b.files, template.Template{
		Name: TemplateName(filename),
		File: filename,
		Body: string(content),
	})
}

// AddTemplateString adds the given template to the bundle.
func (b *Bundle) AddTemplateString(name, body string) *Bundle {
	b.files = append(b.files, template.Template{Name: name, Body: body})
	return b
}

// AddGlobalsFile opens and parses the given filename for globals, and adds
// the resulting data map to the bundle.
func (b *Bundle) AddGlobalsFile(filename string) *Bundle {
	var f, err = os.Open(filename)
	if err != nil {
		b.err = errors.Wrap(err, "open globals")
		return b
	}
	defer f.Close()
	globals, err := parseGlobals(f, filename)
	if err != nil {
		b.err = errors.Wrapf(err, "parse globals %s", filename)
		return b
	}
	return b.AddGlobalsMap(globals)
}

// AddGlobalsMap adds the given values to the globals.  Redefining a global is
// an error.
func (b *Bundle) AddGlobalsMap(globals data.Map) *Bundle {
	for k, v := range globals {
		if existing, ok := b.globals[k]; ok {
			b.err = errors.Errorf("global %q already defined as %v", k, existing.Literal())
			return b
		}
		b.globals[k] = v
	}
	return b
}

// OnReload assigns a function to call after the watcher has handled a change
// to the named template; err is non-nil if the new version was rejected.
func (b *Bundle) OnReload(f func(name string, err error)) *Bundle {
	b.onReload = f
	return b
}

// Compile checks every template in the bundle and returns them ready to
// resolve.  When watching, changes are applied to the returned store until
// Close is called.
func (b *Bundle) Compile() (*Templates, error) {
	if b.err != nil {
		return nil, b.err
	}

	var seen = make(map[string]string)
	for _, t := range b.files {
		if prev, ok := seen[t.Name]; ok {
			return nil, errors.Errorf("template %q defined twice (%s and %s)", t.Name, prev, t.File)
		}
		seen[t.Name] = t.File
		if err := parse.Check(t.Name, t.Body); err != nil {
			return nil, err
		}
	}

	var store = template.NewStore(b.files...)
	if b.watcher != nil {
		b.done = make(chan struct{})
		b.wg.Add(1)
		go b.recompiler(store)
	}
	return NewTemplates(store, b.globals), nil
}

// Close stops watching for changes.
func (b *Bundle) Close() error {
	if b.watcher == nil {
		return nil
	}
	if b.done != nil {
		close(b.done)
		b.wg.Wait()
		b.done = nil
	}
	var err = b.watcher.Close()
	b.watcher = nil
	return err
}

func (b *Bundle) recompiler(store *template.Store) {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			b.handleEvent(store, ev)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			Logger.Error("watch error", "err", err)
		}
	}
}

// handleEvent applies a single file change to store.  A template that fails
// to read or check keeps its previous version.
func (b *Bundle) handleEvent(store *template.Store, ev fsnotify.Event) {
	if !b.tracks(ev.Name) {
		return
	}
	var name = TemplateName(ev.Name)
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if _, err := os.Stat(ev.Name); err == nil {
			// replaced by an editor's rename-over-save; the watch on a single
			// file is gone, so add it back.
			if b.watchedFile(ev.Name) {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					Logger.Error("re-watch failed", "file", ev.Name, "err", err)
				}
			}
			b.reload(store, name, ev.Name)
			return
		}
		// only a template loaded from this file goes
		if t, ok := store.ByFile(ev.Name); ok && store.Delete(t.Name) {
			Logger.Info("template removed", "template", t.Name, "file", ev.Name)
		}
		b.notify(name, nil)
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		b.reload(store, name, ev.Name)
	}
}

func (b *Bundle) reload(store *template.Store, name, filename string) {
	content, err := os.ReadFile(filename)
	if err != nil {
		err = errors.Wrapf(err, "reload %s", filename)
		Logger.Error("template reload failed", "template", name, "err", err)
		b.notify(name, err)
		return
	}
	var body = string(content)
	if prev, ok := store.Get(name); ok && prev.Body == body {
		return
	}
	if err := parse.Check(name, body); err != nil {
		Logger.Error("template reload failed; keeping previous version", "template", name, "err", err)
		b.notify(name, err)
		return
	}
	store.Put(template.Template{Name: name, File: filename, Body: body})
	Logger.Info("template loaded", "template", name, "file", filename)
	b.notify(name, nil)
}

func (b *Bundle) notify(name string, err error) {
	if b.onReload != nil {
		b.onReload(name, err)
	}
}

// tracks reports whether filename is a template of this bundle: a file added
// by name, or a template file within an added directory.
func (b *Bundle) tracks(filename string) bool {
	if b.watchedFile(filename) {
		return true
	}
	return filepath.Ext(filename) == TemplateExt && b.inDir(filename)
}

func (b *Bundle) watchedFile(filename string) bool {
	for _, t := range b.files {
		if t.File != "" && filepath.Clean(t.File) == filepath.Clean(filename) && !b.inDir(t.File) {
			return true
		}
	}
	return false
}

func (b *Bundle) inDir(filename string) bool {
	var dir = filepath.Clean(filepath.Dir(filename))
	for _, d := range b.dirs {
		if filepath.Clean(d) == dir {
			return true
		}
	}
	return false
}

// TemplateName returns the name of the template stored in filename: its base
// name without the extension.
func TemplateName(filename string) string {
	var base = filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
