package i18n

import (
	"golang.org/x/text/language"
)

// fallbacks returns the tags a catalog for tag may be substituted by, most
// specific first: language-script-region, language-script, language.
// The undetermined language has no fallbacks.
func fallbacks(tag language.Tag) []language.Tag {
	var result []language.Tag
	base, script, region := tag.Raw()
	if base.String() == "und" {
		return result
	}
	// Raw reports an unset region as ZZ and an unset script as Zzzz.
	var hasScript, hasRegion = script.String() != "Zzzz", region.String() != "ZZ"
	if hasRegion {
		if hasScript {
			t, _ := language.Compose(base, script, region)
			result = append(result, t)
		} else {
			t, _ := language.Compose(base, region)
			result = append(result, t)
		}
	}
	if hasScript {
		t, _ := language.Compose(base, script)
		result = append(result, t)
	}
	t, _ := language.Compose(base)
	return append(result, t)
}
