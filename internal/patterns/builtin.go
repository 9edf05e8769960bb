package patterns

import (
	"unicode"
)

// Rule names reported in rejections.
const (
	RuleRetail      = "retail"
	RuleReligious   = "religious_building"
	RuleHospitality = "hospitality"
	RuleURLSpam     = "url_spam"
	RuleSales       = "sales_spam"
	RuleRepetition  = "character_repetition"
	RuleShouting    = "all_caps"
)

// Garbage returns the built-in spam and disallowed-category rules. Inputs
// are expected to be diacritic-folded and lowercased.
func Garbage() *Set {
	return NewSet(
		MustWords(RuleRetail,
			"tesco", "walmart", "aldi", "lidl", "carrefour", "sainsbury*", "asda", "morrisons",
			"costco", "ikea", "supermarket", "hypermarket", "grocery", "convenience store",
			"shopping centre", "shopping center", "shopping mall", "outlet store", "retail park"),
		MustWords(RuleReligious,
			"church", "chapel", "cathedral", "mosque", "synagogue", "parish", "basilica",
			"monastery", "convent", "abbey", "kirk", "minster"),
		MustWords(RuleHospitality,
			"hotel", "motel", "hostel", "restaurant", "cafe", "pub", "bistro", "pizzeria",
			"guesthouse", "guest house", "bed and breakfast", "b&b", "campsite", "caravan park",
			"holiday park", "resort", "takeaway"),
		MustRegex(RuleURLSpam, `https?://|www\.|\.(?:com|net|info|biz|xyz)\b`, Options{CaseInsensitive: true}),
		MustWords(RuleSales,
			"buy now", "cheap", "discount", "casino", "viagra", "free shipping", "click here",
			"best price", "promo code"),
		NewFunc(RuleRepetition, "a letter or digit repeated 5 or more times in a row", HasRepeatedRun(5)),
	)
}

// Shouting returns the rule applied to the undecorated display name: at
// least 8 letters and no lowercase letters at all.
func Shouting() *Set {
	return NewSet(NewFunc(RuleShouting, "8 or more letters, none lowercase", IsShouting(8)))
}

// Vocabulary returns the archaeological vocabulary rule that overrides a
// garbage match when found in the summary.
func Vocabulary() *Set {
	return NewSet(MustWords("archaeological_vocabulary",
		"prehistoric", "neolithic", "mesolithic", "bronze age", "iron age", "burial", "tomb",
		"monument", "megalith*", "chalcolithic", "passage grave", "standing stone*",
		"archaeolog*", "dolmen*", "menhir*", "cromlech*", "stone circle*", "cairn*"))
}

// HasRepeatedRun returns a predicate detecting a letter or digit repeated n
// times in a row. Punctuation runs such as ellipses never count.
func HasRepeatedRun(n int) func(string) bool {
	return func(s string) bool {
		var prev rune
		run := 0
		for _, r := range s {
			if r == prev && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				run++
				if run >= n {
					return true
				}
				continue
			}
			prev = r
			run = 1
		}
		return false
	}
}

// IsShouting returns a predicate matching text with at least minLetters
// letters none of which is lowercase.
func IsShouting(minLetters int) func(string) bool {
	return func(s string) bool {
		letters := 0
		for _, r := range s {
			if unicode.IsLower(r) {
				return false
			}
			if unicode.IsLetter(r) {
				letters++
			}
		}
		return letters >= minLetters
	}
}
