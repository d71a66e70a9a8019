package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

// stored counts entries, expired ones included until the next sweep.
func stored[K comparable, V any](c *TTLCache[K, V]) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func TestTTLCache(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 3)
	v, _ = c.Get("a")
	assert.Equal(t, 3, v, "set overwrites")

	c.Clear()
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, stored(c))
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[string, string](10*time.Millisecond, 5*time.Millisecond)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok, "expired entries are not returned")

	assert.Eventually(t, func() bool { return stored(c) == 0 }, time.Second, 5*time.Millisecond)
}

func TestTTLCache_CloseTwice(t *testing.T) {
	c := New[int, int](time.Minute, time.Minute)
	c.Close()
	assert.NotPanics(t, c.Close)
}
