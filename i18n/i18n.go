// Package i18n provides gettext PO catalogs for the text the widget emits
// around its templates, e.g. service state labels and the summary line.
//
// Catalogs are read from a directory of PO files named by locale:
//
//	/etc/glance/locales/de.po
//	/etc/glance/locales/pt_BR.po
//
// A request's Accept-Language header picks the catalog.  When nothing
// matches, the identity catalog is used, which returns message ids unchanged.
package i18n

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robfig/gettext/po"
	"golang.org/x/text/language"
)

// Catalog holds the translations for one locale.
type Catalog struct {
	locale    string
	messages  map[string][]string
	pluralize po.PluralSelector
}

// Identity is the catalog used when no translation matches.  It uses the
// English plural rule.
var Identity = &Catalog{
	messages:  map[string][]string{},
	pluralize: englishPlural,
}

func englishPlural(n int) int {
	if n == 1 {
		return 0
	}
	return 1
}

// NewCatalog builds a catalog for locale from a parsed PO file.  The plural
// rule comes from the file's Plural-Forms header, or from the locale.
func NewCatalog(locale string, file po.File) (*Catalog, error) {
	var pluralize = file.Pluralize
	if pluralize == nil {
		pluralize = po.PluralSelectorForLanguage(locale)
	}
	if pluralize == nil {
		if tag, err := language.Parse(locale); err == nil {
			base, _ := tag.Base()
			pluralize = po.PluralSelectorForLanguage(base.String())
		}
	}
	if pluralize == nil {
		return nil, errors.Errorf("%s: Plural-Forms must be specified", locale)
	}

	var msgs = make(map[string][]string, len(file.Messages))
	for _, msg := range file.Messages {
		if msg.Id == "" {
			continue // header
		}
		msgs[msg.Id] = msg.Str
	}
	return &Catalog{locale, msgs, pluralize}, nil
}

// Locale returns the catalog's locale, or "" for the identity catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Get returns the translation of id, or id itself when there is none.
func (c *Catalog) Get(id string) string {
	if strs := c.messages[id]; len(strs) > 0 && strs[0] != "" {
		return strs[0]
	}
	return id
}

// NGet returns the translation of id or plural selected for the count n.
// Untranslated messages choose between id and plural by the English rule.
func (c *Catalog) NGet(id, plural string, n int) string {
	var strs = c.messages[id]
	if len(strs) > 0 {
		var i = c.pluralize(n)
		if i >= 0 && i < len(strs) && strs[i] != "" {
			return strs[i]
		}
	}
	if englishPlural(n) == 0 {
		return id
	}
	return plural
}

// FileOpener opens the PO file for a locale.
type FileOpener interface {
	// Open returns ReadCloser for the po file indicated by locale. It returns
	// nil if the file does not exist
	Open(locale string) (io.ReadCloser, error)
}

// Catalogs is a set of catalogs keyed by canonical language tag.
type Catalogs struct {
	byTag map[string]*Catalog
}

// Load reads the catalog for each locale through opener.  Locales without a
// file are skipped.
func Load(opener FileOpener, locales []string) (*Catalogs, error) {
	var cats = &Catalogs{make(map[string]*Catalog)}
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, errors.Wrapf(err, "locale %q", locale)
		}
		r, err := opener.Open(locale)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", locale)
		}
		if r == nil {
			continue
		}

		file, err := po.Parse(r)
		r.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", locale)
		}
		cat, err := NewCatalog(locale, file)
		if err != nil {
			return nil, err
		}
		cats.byTag[tag.String()] = cat
	}
	return cats, nil
}

// fsFileOpener is a FileOpener based on the filesystem and rooted at Dirname
type fsFileOpener struct {
	Dirname string
}

func (o fsFileOpener) Open(locale string) (io.ReadCloser, error) {
	switch f, err := os.Open(filepath.Join(o.Dirname, locale+".po")); {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return f, nil
	}
}

// Dir loads every <locale>.po file directly inside dirname.
func Dir(dirname string) (*Catalogs, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, errors.Wrap(err, "read locale dir")
	}
	var locales []string
	for _, e := range entries {
		var name = e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".po") {
			locales = append(locales, strings.TrimSuffix(name, ".po"))
		}
	}
	return Load(fsFileOpener{dirname}, locales)
}

// Len returns the number of loaded catalogs.
func (cs *Catalogs) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.byTag)
}

// Catalog returns the catalog for locale or its closest fallback, or nil.
func (cs *Catalogs) Catalog(locale string) *Catalog {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil
	}
	return cs.lookup(tag)
}

func (cs *Catalogs) lookup(tag language.Tag) *Catalog {
	if cs == nil {
		return nil
	}
	if cat, ok := cs.byTag[tag.String()]; ok {
		return cat
	}
	for _, fb := range fallbacks(tag) {
		if cat, ok := cs.byTag[fb.String()]; ok {
			return cat
		}
	}
	return nil
}

// Match returns the best catalog for an Accept-Language header value.  Tags
// are tried in order of preference, each with its fallbacks.  The identity
// catalog is returned when nothing matches.
func (cs *Catalogs) Match(acceptLanguage string) *Catalog {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return Identity
	}
	for _, tag := range tags {
		if cat := cs.lookup(tag); cat != nil {
			return cat
		}
	}
	return Identity
}
