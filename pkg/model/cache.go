package model

import (
	"sort"
	"sync"

	"github.com/pinterest/teletraan/pkg/reactive"
)

// Key joins identifying fields into a cache key: Key("prod", "api") is
// "prod,api".
func Key(env, stage string) string {
	return env + "," + stage
}

type entry[T any] struct {
	value T
	ok    bool
}

// Cache is a keyed map of reactive values. Reading a key inside an effect
// subscribes the effect to that key only, including keys that have not been
// written yet. Entries are overwritten, never deleted.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*reactive.Signal[entry[T]]
}

// NewCache creates an empty cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]*reactive.Signal[entry[T]])}
}

func (c *Cache[T]) signal(key string) *reactive.Signal[entry[T]] {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, ok := c.entries[key]
	if !ok {
		sig = reactive.NewSignal(entry[T]{})
		c.entries[key] = sig
	}
	return sig
}

// Get returns the value for key and subscribes the current listener.
func (c *Cache[T]) Get(key string) (T, bool) {
	e := c.signal(key).Get()
	return e.value, e.ok
}

// Peek returns the value for key without subscribing.
func (c *Cache[T]) Peek(key string) (T, bool) {
	e := c.signal(key).Peek()
	return e.value, e.ok
}

// Set stores value under key.
func (c *Cache[T]) Set(key string, value T) {
	c.signal(key).Set(entry[T]{value: value, ok: true})
}

// Keys returns the keys that hold a value, sorted.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	sigs := make(map[string]*reactive.Signal[entry[T]], len(c.entries))
	for k, s := range c.entries {
		sigs[k] = s
	}
	c.mu.Unlock()

	keys := make([]string, 0, len(sigs))
	for k, s := range sigs {
		if s.Peek().ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
