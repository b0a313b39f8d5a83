// Package cache provides a content-addressed, TTL'd byte cache used to
// memoize embedding and extraction calls, and whole search results. Two
// backends are available: an in-memory, byte-size-capped store for
// single-process use, and a BadgerDB-backed disk store for persistence
// across restarts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var (
	// ErrKeyNotFound is returned when a key is not found in the cache.
	ErrKeyNotFound = errors.New("key not found in cache")
)

const (
	// DefaultTTL is applied when a caller passes a zero TTL to Set.
	DefaultTTL = time.Hour
	// DefaultMemoryCacheCapacity is the default in-memory cache byte budget.
	DefaultMemoryCacheCapacity = 100 * 1024 * 1024
	// DefaultSweepInterval is how often the in-memory cache evicts expired entries in the background.
	DefaultSweepInterval = 5 * time.Minute
)

// Stats reports cumulative hit/miss counts for a cache instance.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns hits/(hits+misses), or 0 when no lookups have occurred.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is the standard caching contract shared by every backend.
type Cache interface {
	// Set stores a value. A zero ttl applies DefaultTTL.
	Set(key string, value []byte, ttl time.Duration) error
	// Get retrieves a value, returning ErrKeyNotFound (or a wrapped
	// not-found) when absent or expired.
	Get(key string) ([]byte, error)
	// Exists reports whether key is present and unexpired, without
	// affecting hit/miss stats.
	Exists(key string) (bool, error)
	// Delete removes a value.
	Delete(key string) error
	// Clear removes every entry.
	Clear() error
	// Stats returns the current hit/miss counters.
	Stats() Stats
	// Close releases any backing resources.
	Close() error
}

// GenerateCacheKey builds a deterministic, collision-resistant cache key
// from an ordered list of components: sha256(join("|", components)).
func GenerateCacheKey(components ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])
}

// BadgerCache implements Cache using an embedded BadgerDB, giving
// persistence across process restarts.
type BadgerCache struct {
	db     *badger.DB
	hits   int64
	misses int64
}

// NewBadgerCache creates a new BadgerDB-backed cache rooted at path.
func NewBadgerCache(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // reduce noise; errors still propagate through returns

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerCache{db: db}, nil
}

// Set stores a value with a TTL.
func (c *BadgerCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Get retrieves a value.
func (c *BadgerCache) Get(key string) ([]byte, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			atomic.AddInt64(&c.misses, 1)
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	atomic.AddInt64(&c.hits, 1)
	return val, nil
}

// Exists reports whether key is present and unexpired.
func (c *BadgerCache) Exists(key string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a value.
func (c *BadgerCache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Clear removes every entry.
func (c *BadgerCache) Clear() error {
	return c.db.DropAll()
}

// Stats returns the current hit/miss counters.
func (c *BadgerCache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}

// Close closes the cache.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
