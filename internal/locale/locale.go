// Package locale resolves the language identifiers found in spreadsheets and
// on the command line. Both BCP 47 codes ("fr", "pt-br") and English display
// names ("French", "Brazilian Portuguese") are accepted.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// known lists the languages whose English display names are recognized in
// column headers
var known = []language.Tag{
	language.English,
	language.AmericanEnglish,
	language.BritishEnglish,
	language.French,
	language.CanadianFrench,
	language.Spanish,
	language.LatinAmericanSpanish,
	language.German,
	language.Italian,
	language.Portuguese,
	language.BrazilianPortuguese,
	language.EuropeanPortuguese,
	language.Russian,
	language.Ukrainian,
	language.Polish,
	language.Czech,
	language.Dutch,
	language.Swedish,
	language.Danish,
	language.Norwegian,
	language.Finnish,
	language.Turkish,
	language.Greek,
	language.Bulgarian,
	language.Romanian,
	language.Hungarian,
	language.Arabic,
	language.Hebrew,
	language.Hindi,
	language.Thai,
	language.Vietnamese,
	language.Indonesian,
	language.Japanese,
	language.Korean,
	language.Chinese,
	language.SimplifiedChinese,
	language.TraditionalChinese,
}

var byName = func() map[string]language.Tag {
	names := display.English.Tags()
	m := make(map[string]language.Tag, len(known))
	for _, tag := range known {
		m[strings.ToLower(names.Name(tag))] = tag
	}
	return m
}()

// Resolve maps a display name or language code to a canonical BCP 47 code.
func Resolve(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty language identifier")
	}
	if tag, ok := byName[strings.ToLower(s)]; ok {
		return tag.String(), nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unknown language %q: %w", s, err)
	}
	return tag.String(), nil
}

// Name returns the English display name for a code, or the code itself when
// it cannot be parsed.
func Name(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
