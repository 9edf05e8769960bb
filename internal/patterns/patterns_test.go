package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegexOptions(t *testing.T) {
	m, err := NewRegex("anchored", "dolmen", Options{Anchored: true, CaseInsensitive: true})
	require.NoError(t, err)
	assert.True(t, m.Match("DOLMEN"))
	assert.False(t, m.Match("dolmen de menga"))
	assert.Equal(t, "dolmen", m.Pattern())
	assert.Equal(t, Regex, m.Type())

	_, err = NewRegex("broken", "(")
	assert.Error(t, err)
}

func TestNewWords(t *testing.T) {
	m := MustWords("w", "church", "sainsbury*", "shopping centre")
	assert.True(t, m.Match("old parish church"))
	assert.True(t, m.Match("sainsburys local"))
	assert.True(t, m.Match("Shopping Centre car park"))
	assert.False(t, m.Match("churchyard cross"), "words match on boundaries only")

	_, err := NewWords("empty", " ")
	assert.Error(t, err)
}

func TestGarbage(t *testing.T) {
	set := Garbage()
	tests := []struct {
		input string
		rule  string
	}{
		{"tesco supermarket local grocery store", RuleRetail},
		{"st mary's church", RuleReligious},
		{"the stones hotel", RuleHospitality},
		{"visit www.example.com", RuleURLSpam},
		{"cheap flights", RuleSales},
		{"aaaaaargh", RuleRepetition},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			m, ok := set.First(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.rule, m.Name())
		})
	}

	for _, clean := range []string{"stonehenge", "menhir de kerzerho", "temple wood stone circle", "giants grave"} {
		assert.False(t, set.Any(clean), clean)
	}
}

func TestShouting(t *testing.T) {
	set := Shouting()
	assert.True(t, set.Any("BEST STONES EVER"))
	assert.False(t, set.Any("Stonehenge"))
	assert.False(t, set.Any("UK"))
	assert.False(t, set.Any("NW Cairn 12"))
}

func TestVocabulary(t *testing.T) {
	set := Vocabulary()
	assert.True(t, set.Any("a neolithic chambered tomb"))
	assert.True(t, set.Any("archaeological remains"))
	assert.True(t, set.Any("megalithic complex"))
	assert.False(t, set.Any("local grocery store"))
}

func TestSetWithAndNames(t *testing.T) {
	base := NewSet(MustWords("a", "alpha"), nil)
	extended := base.With(NewFunc("b", "always", func(string) bool { return true }))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, []string{"a", "b"}, extended.Names())
	m, ok := extended.First("beta")
	require.True(t, ok)
	assert.Equal(t, "b", m.Name())
	assert.Equal(t, Func, m.Type())
}

func TestHasRepeatedRun(t *testing.T) {
	fn := HasRepeatedRun(5)
	tests := []struct {
		text string
		want bool
	}{
		{"aaaaa", true},
		{"stonesssss", true},
		{"11111", true},
		{"aaaa", false},
		{"     ", false},
		{"hill", false},
		{"!!!!!", false},
		{"Visited in 1725 by Stukeley.....", false},
		{"-----", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fn(tt.text), tt.text)
	}
}
