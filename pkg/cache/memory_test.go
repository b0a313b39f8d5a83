package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(0, time.Hour)
	defer c.Close()

	require.NoError(t, c.Set("a", []byte("hello"), time.Minute))

	val, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(0, time.Hour)
	defer c.Close()

	_, err := c.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(0, time.Hour)
	defer c.Close()

	require.NoError(t, c.Set("a", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get("a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	exists, err := c.Exists("a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheEvictsOverCapacity(t *testing.T) {
	c := NewMemoryCache(10, time.Hour)
	defer c.Close()

	require.NoError(t, c.Set("a", []byte("12345"), time.Hour))
	require.NoError(t, c.Set("b", []byte("67890"), time.Hour))
	// Adding a third 5-byte entry should evict the oldest ("a") to stay within capacity.
	require.NoError(t, c.Set("c", []byte("abcde"), time.Hour))

	_, err := c.Get("a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = c.Get("b")
	assert.NoError(t, err)
	_, err = c.Get("c")
	assert.NoError(t, err)
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(0, time.Hour)
	defer c.Close()

	require.NoError(t, c.Set("a", []byte("x"), time.Hour))
	require.NoError(t, c.Clear())

	_, err := c.Get("a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStatsHitRate(t *testing.T) {
	assert.Equal(t, 0.0, Stats{}.HitRate())
	assert.Equal(t, 0.5, Stats{Hits: 1, Misses: 1}.HitRate())
	assert.Equal(t, 1.0, Stats{Hits: 3, Misses: 0}.HitRate())
}

func TestGenerateCacheKeyDeterministic(t *testing.T) {
	k1 := GenerateCacheKey("embedding", "hello world")
	k2 := GenerateCacheKey("embedding", "hello world")
	k3 := GenerateCacheKey("embedding", "goodbye world")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
