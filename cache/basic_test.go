package cache_test

import (
	"testing"
	"time"

	"github.com/ezex-io/podchannel/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicCacheAddGet(t *testing.T) {
	c := cache.NewBasic[string, int](t.Context())

	ok := c.Add("a", 1, 0)
	require.True(t, ok)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestBasicCacheUpdateAndDelete(t *testing.T) {
	c := cache.NewBasic[string, int](t.Context())

	assert.False(t, c.Update("a", 2, 0))

	c.Add("a", 1, 0)
	assert.True(t, c.Update("a", 2, 0))

	v, _ := c.Get("a")
	assert.Equal(t, 2, v)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Exists("a"))
}

func TestBasicCacheExpiry(t *testing.T) {
	c := cache.NewBasic[string, int](t.Context(),
		cache.WithCleanUpInterval(5*time.Millisecond))

	c.Add("a", 1, 10*time.Millisecond)
	require.True(t, c.Exists("a"))

	assert.Eventually(t, func() bool {
		return !c.Exists("a")
	}, 200*time.Millisecond, 5*time.Millisecond)
}

func TestBasicCacheKeys(t *testing.T) {
	c := cache.NewBasic[string, int](t.Context())

	c.Add("a", 1, 0)
	c.Add("b", 2, 0)

	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}
