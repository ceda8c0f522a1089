package xtaf

import (
	"container/list"
	"sync"
)

// ReadAhead is the callback a Cache uses to fill forward from a miss.
// It returns a sequence of (key, value) pairs starting with k itself,
// front element first, possibly shorter than width at chain end.
type ReadAhead[K comparable, V any] func(k K, width int) []Pair[K, V]

// WriteThrough is invoked by Put once the in-memory index is updated.
type WriteThrough[K comparable, V any] func(k K, v V) bool

// Pair couples a key with the value to cache under it, letting
// ReadAhead deliver several installs in one call (spec §4.3).
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

type entry[K comparable, V any] struct {
	key   K
	value V
	elem  *list.Element
}

// Cache is a bounded, thread-safe LRU read-through/write-through
// cache used to back FAT chain reads with sequential prefetch
// (spec §4.3).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	width    int
	index    map[K]*entry[K, V]
	recency  *list.List // front = most recently used
	read     ReadAhead[K, V]
	write    WriteThrough[K, V]
}

// NewCache constructs a Cache with the given capacity (max resident
// entries) and read-ahead width.
func NewCache[K comparable, V any](capacity, width int, read ReadAhead[K, V], write WriteThrough[K, V]) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		width:    width,
		index:    make(map[K]*entry[K, V]),
		recency:  list.New(),
		read:     read,
		write:    write,
	}
}

// Get returns the cached value for k, filling the cache via the
// read-ahead callback on miss.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.index[k]; ok {
		c.recency.MoveToFront(e.elem)
		return e.value, true
	}

	pairs := c.read(k, c.width)
	if len(pairs) == 0 {
		var zero V
		return zero, false
	}
	for _, p := range pairs {
		c.installLocked(p.Key, p.Value)
	}
	return pairs[0].Value, true
}

// Put updates k's value in place (refreshing recency) or inserts a
// new entry, evicting the LRU tail if the cache is full, then
// persists via the write-through callback.
func (c *Cache[K, V]) Put(k K, v V) bool {
	c.mu.Lock()
	c.installLocked(k, v)
	c.mu.Unlock()
	return c.write(k, v)
}

func (c *Cache[K, V]) installLocked(k K, v V) {
	if e, ok := c.index[k]; ok {
		e.value = v
		c.recency.MoveToFront(e.elem)
		return
	}
	e := &entry[K, V]{key: k, value: v}
	e.elem = c.recency.PushFront(e)
	c.index[k] = e
	c.evictLocked()
}

func (c *Cache[K, V]) evictLocked() {
	for len(c.index) > c.capacity {
		back := c.recency.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry[K, V])
		c.recency.Remove(back)
		delete(c.index, e.key)
	}
}

// Len returns the number of resident entries, for tests.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}
