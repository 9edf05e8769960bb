// Package normalize turns raw source records into a uniform shape and
// derives the name key used for comparison. Everything here is pure and
// deterministic.
package normalize

import (
	"strings"
	"unicode"

	"github.com/k3a/html2text"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/stonemap/pkg/sites"
)

// Articles are leading definite articles dropped from name keys.
var Articles = []string{"the", "le", "la", "les", "el", "los", "das", "die", "der"}

// elided article forms, as in "l'Allée Couverte"
var elided = []string{"l"}

// letters with no canonical decomposition
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "ø", "o", "Ø", "O", "œ", "oe", "Œ", "OE",
	"ł", "l", "Ł", "L", "đ", "d", "Đ", "D", "ħ", "h", "Ħ", "H", "þ", "th", "Þ", "TH", "ı", "i",
)

// Normalized is a source record with cleaned display fields and its name key.
type Normalized struct {
	Record sites.SourceRecord
	Key    string
}

// Record normalizes one source record.
func Record(r sites.SourceRecord) Normalized {
	r.RawName = Clean(r.RawName)
	r.RawSummary = Summary(r.RawSummary)
	r.SiteTypeLabel = Clean(r.SiteTypeLabel)
	r.Country = Clean(r.Country)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.ReferenceURL = strings.TrimSpace(r.ReferenceURL)
	return Normalized{Record: r, Key: Key(r.RawName)}
}

// StripMarks removes diacritics: NFD decomposition, combining marks dropped,
// then recomposed.
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return foldReplacer.Replace(out)
}

// Fold strips diacritics and lowercases.
func Fold(s string) string {
	return strings.ToLower(StripMarks(s))
}

// Words folds s and splits it on every non-alphanumeric rune.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Key returns the comparison key of a name: folded, leading articles
// removed, with every separator dropped. "The Stonehenge" and "Stonehenge"
// share the key "stonehenge".
func Key(name string) string {
	words := Words(name)
	for len(words) > 1 && isArticle(words[0], words[1:]) {
		words = words[1:]
	}
	return strings.Join(words, "")
}

func isArticle(word string, rest []string) bool {
	for _, a := range Articles {
		if word == a {
			return true
		}
	}
	for _, e := range elided {
		if word == e && len(rest) > 0 {
			return true
		}
	}
	return false
}

// Clean trims and collapses runs of whitespace.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Summary converts HTML to plain text when markup is present, then cleans it.
func Summary(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = html2text.HTML2Text(s)
	}
	return Clean(s)
}
