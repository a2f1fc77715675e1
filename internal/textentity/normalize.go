// Package textentity derives services, locality and urgency from free bilingual text.
package textentity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// hebrewMarks covers cantillation marks and niqqud (U+0591..U+05C7).
var hebrewMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0591, Hi: 0x05C7, Stride: 1}},
}

var finalLetters = strings.NewReplacer(
	"ץ", "צ",
	"ף", "פ",
	"ך", "כ",
	"ם", "מ",
	"ן", "נ",
)

// Normalize folds final-letter forms and strips diacritical marks. The result is only
// meant for matching and must not be shown to users.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	stripped, _, err := transform.String(runes.Remove(runes.In(hebrewMarks)), text)
	if err != nil {
		stripped = text
	}
	return finalLetters.Replace(stripped)
}

// matchKey is the case-folded normalized form used for substring comparisons.
func matchKey(text string) string {
	return strings.ToLower(Normalize(text))
}
