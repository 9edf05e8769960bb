package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/stonemap/pkg/sites"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Stonehenge", "stonehenge"},
		{"leading article", "The Stonehenge", "stonehenge"},
		{"french article", "Le Menhir de Champ-Dolent", "menhirdechampdolent"},
		{"elided article", "l'Allée couverte", "alleecouverte"},
		{"diacritics", "Dolmen de Menga (Antequera)", "dolmendemengaantequera"},
		{"accents", "Pedra Formosa – Citânia", "pedraformosacitania"},
		{"apostrophe", "Giant's Grave", "giantsgrave"},
		{"article prefix inside word", "Theodoric's Tomb", "theodoricstomb"},
		{"article only", "The", "the"},
		{"stacked articles", "The La Hougue Bie", "houguebie"},
		{"scandinavian", "Ale's Stenar Øresund", "alesstenaroresund"},
		{"german", "Großsteingrab", "grosssteingrab"},
		{"empty", "  ", ""},
		{"punctuation only", "?!-", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "carnac alignements", Fold("Carnac Alignements"))
	assert.Equal(t, "menga", Fold("Ménga"))
	assert.Equal(t, "naveta des tudons", Fold("Naveta des Tudons"))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "A Neolithic passage tomb.", Summary("<p>A <b>Neolithic</b> passage tomb.</p>"))
	assert.Equal(t, "two spaces", Summary("  two \n\t spaces "))
	assert.Equal(t, "", Summary(""))
}

func TestRecord(t *testing.T) {
	rec := sites.SourceRecord{
		SourceID:      "Q1",
		SourceKind:    sites.KindKnowledgeBase,
		RawName:       "  The   Stonehenge ",
		RawSummary:    "<p>Prehistoric monument</p>",
		SiteTypeLabel: " stone circle ",
		ImageURL:      " https://example.org/s.jpg ",
	}
	n := Record(rec)
	assert.Equal(t, "stonehenge", n.Key)
	assert.Equal(t, "The Stonehenge", n.Record.RawName)
	assert.Equal(t, "Prehistoric monument", n.Record.RawSummary)
	assert.Equal(t, "stone circle", n.Record.SiteTypeLabel)
	assert.Equal(t, "https://example.org/s.jpg", n.Record.ImageURL)
	assert.Equal(t, "  The   Stonehenge ", rec.RawName, "input must not be mutated")
}
