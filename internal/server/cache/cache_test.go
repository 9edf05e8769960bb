package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := New(time.Minute, time.Minute)

	_, ok := c.Get("sites:")
	assert.False(t, ok)

	c.Set("sites:", []string{"stonehenge"})
	v, ok := c.Get("sites:")
	assert.True(t, ok)
	assert.Equal(t, []string{"stonehenge"}, v)
	assert.Equal(t, 1, c.ItemCount())

	c.Set("site:avebury", "Avebury")
	c.Delete("sites:")
	assert.Equal(t, 1, c.ItemCount())

	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
}

func TestCacheExpiry(t *testing.T) {
	c := New(20*time.Millisecond, time.Hour)
	c.Set("site:stonehenge", "Stonehenge")

	assert.Eventually(t, func() bool {
		_, ok := c.Get("site:stonehenge")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
