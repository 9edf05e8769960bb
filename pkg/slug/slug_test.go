package slug

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/errors"
)

func TestBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Stonehenge", "stonehenge"},
		{"Giant's Grave", "giants-grave"},
		{"Giant’s Grave", "giants-grave"},
		{"Dolmen de Menga (Antequera)", "dolmen-de-menga-antequera"},
		{"  --Carnac--  ", "carnac"},
		{"Ħaġar Qim", "hagar-qim"},
		{"Großsteingrab Nr. 5", "grosssteingrab-nr-5"},
		{"巨石", "site"},
		{"", "site"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Base(tt.in))
		})
	}
}

func TestBaseTruncation(t *testing.T) {
	long := strings.Repeat("a", 99) + " b"
	got := Base(long)
	assert.Equal(t, strings.Repeat("a", 99), got, "trailing hyphen is trimmed after truncation")
	assert.LessOrEqual(t, len(Base(strings.Repeat("stone ", 50))), 100)
}

func TestAssignScenarioE(t *testing.T) {
	r := NewRegistry()
	first, err := r.Assign("Giant's Grave")
	require.NoError(t, err)
	second, err := r.Assign("Giant's Grave")
	require.NoError(t, err)
	third, err := r.Assign("Giants Grave")
	require.NoError(t, err)

	assert.Equal(t, "giants-grave", first)
	assert.Equal(t, "giants-grave-1", second)
	assert.Equal(t, "giants-grave-2", third)
	assert.Equal(t, 3, r.Len())
}

func TestAssignRespectsReserved(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Reserve("stonehenge"))
	assert.False(t, r.Reserve("stonehenge"))
	assert.True(t, r.InUse("stonehenge"))

	got, err := r.Assign("Stonehenge")
	require.NoError(t, err)
	assert.Equal(t, "stonehenge-1", got)
}

func TestAssignSuffixFitsLength(t *testing.T) {
	r := NewRegistry()
	name := strings.Repeat("x", 120)
	first, err := r.Assign(name)
	require.NoError(t, err)
	second, err := r.Assign(name)
	require.NoError(t, err)

	assert.Len(t, first, 100)
	assert.Len(t, second, 100)
	assert.True(t, strings.HasSuffix(second, "-1"))
}

func TestAssignExhausted(t *testing.T) {
	r := NewRegistry(WithMaxAttempts(3))
	for i := 0; i < 4; i++ {
		_, err := r.Assign("Cairn")
		require.NoError(t, err, fmt.Sprintf("attempt %d", i))
	}
	_, err := r.Assign("Cairn")
	assert.ErrorIs(t, err, errors.ErrSlugCollisionExhausted)

	var slugErr *errors.SlugError
	require.ErrorAs(t, err, &slugErr)
	assert.Equal(t, "cairn", slugErr.Base)
	assert.Equal(t, 3, slugErr.Attempts)
}
