package i18n

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name         string
		tag          language.Tag
		expectedTags []language.Tag
	}{
		{
			name:         "generic locale has only itself",
			tag:          language.MustParse("en"),
			expectedTags: []language.Tag{language.English},
		},
		{
			name:         "regional locale falls back to the language",
			tag:          language.MustParse("en_US"),
			expectedTags: []language.Tag{language.AmericanEnglish, language.English},
		},
		{
			name: "script falls back to the language",
			tag:  language.MustParse("ar_Arab"),
			expectedTags: []language.Tag{
				language.MustParse("ar_Arab"),
				language.Arabic,
			},
		},
		{
			name: "script and region fall back to script, then language",
			tag:  language.MustParse("ar_Arab_EG"),
			expectedTags: []language.Tag{
				language.MustParse("ar_Arab_EG"),
				language.MustParse("ar_Arab"),
				language.Arabic,
			},
		},
		{
			name:         "undetermined",
			tag:          language.Und,
			expectedTags: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fb := fallbacks(test.tag)
			if len(fb) != len(test.expectedTags) {
				t.Fatalf("expected %v, got %v", test.expectedTags, fb)
			}
			for i, tag := range test.expectedTags {
				if fb[i] != tag {
					t.Errorf("Expected tag %+v, got tag %+v", tag, fb[i])
				}
			}
		})
	}
}

func TestDir(t *testing.T) {
	cats, err := Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	if cats.Len() != 2 {
		t.Errorf("expected 2 catalogs, got %d", cats.Len())
	}

	var tests = []struct {
		accept string
		locale string
		id     string
		str    string
	}{
		{"de", "de", "active", "aktiv"},
		{"de-CH, en;q=0.5", "de", "failed", "fehlgeschlagen"},
		{"fr, de;q=0.8", "de", "inactive", "inaktiv"},
		{"pt-BR", "pt_BR", "active", "ativo"},
		{"pt-BR", "pt_BR", "inactive", "inactive"}, // empty msgstr
		{"pt-BR", "pt_BR", "unknown id", "unknown id"},
		{"pt", "", "active", "active"},
		{"ja", "", "active", "active"},
		{"", "", "failed", "failed"},
	}
	for _, test := range tests {
		var cat = cats.Match(test.accept)
		if cat.Locale() != test.locale {
			t.Errorf("Match(%q): expected locale %q, got %q", test.accept, test.locale, cat.Locale())
		}
		if got := cat.Get(test.id); got != test.str {
			t.Errorf("Match(%q).Get(%q): expected %q, got %q", test.accept, test.id, test.str, got)
		}
	}
}

func TestNGet(t *testing.T) {
	cats, err := Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	const (
		one   = "%d of %d service active"
		other = "%d of %d services active"
	)
	var tests = []struct {
		locale string
		active int
		total  int
		out    string
	}{
		{"de", 1, 1, "1 von 1 Dienst aktiv"},
		{"de", 2, 3, "2 von 3 Diensten aktiv"},
		{"pt_BR", 1, 1, "1 de 1 serviço ativo"},
		{"pt_BR", 0, 4, "0 de 4 serviços ativos"},
		{"en", 1, 1, "1 of 1 service active"},
		{"en", 0, 2, "0 of 2 services active"},
	}
	for _, test := range tests {
		var cat = cats.Catalog(test.locale)
		if cat == nil {
			cat = Identity
		}
		var got = fmt.Sprintf(cat.NGet(one, other, test.total), test.active, test.total)
		if got != test.out {
			t.Errorf("%s/%d: expected %q, got %q", test.locale, test.total, test.out, got)
		}
	}
}

type mapOpener map[string]string

func (m mapOpener) Open(locale string) (io.ReadCloser, error) {
	body, ok := m[locale]
	if !ok {
		return nil, nil
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestLoad(t *testing.T) {
	var opener = mapOpener{
		"fr": "msgid \"\"\nmsgstr \"\"\n\"Plural-Forms: nplurals=2; plural=(n > 1);\\n\"\n\nmsgid \"active\"\nmsgstr \"actif\"\n",
	}
	cats, err := Load(opener, []string{"fr", "es"})
	if err != nil {
		t.Fatal(err)
	}
	if cats.Len() != 1 {
		t.Errorf("expected 1 catalog, got %d", cats.Len())
	}
	if got := cats.Match("fr-CA").Get("active"); got != "actif" {
		t.Errorf("expected fr-CA to fall back to fr, got %q", got)
	}

	if _, err := Load(opener, []string{"!!"}); err == nil {
		t.Error("expected an error for an invalid locale")
	}
}

func TestNilCatalogs(t *testing.T) {
	var cats *Catalogs
	if cats.Match("de") != Identity {
		t.Error("expected the identity catalog from nil catalogs")
	}
}
