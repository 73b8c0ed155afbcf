package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGetDelete(t *testing.T) {
	c := NewTTLCache[string, int](0, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	c.Set("b", 2)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_DeleteFunc(t *testing.T) {
	c := NewTTLCache[string, int](0, time.Minute)
	c.Set("acc1|2025-01-31", 10)
	c.Set("acc1|2025-02-28", 20)
	c.Set("acc2|2025-01-31", 30)

	c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "acc1|") })

	_, ok := c.Get("acc1|2025-01-31")
	assert.False(t, ok)
	v, ok := c.Get("acc2|2025-01-31")
	assert.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestTTLCache_Expires(t *testing.T) {
	c := NewTTLCache[string, int](0, 20*time.Millisecond)
	c.Set("a", 1)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
