package cache

import "sync"

// SimpleCache is a goroutine-safe map that remembers insertion order.
// Overwriting an existing key keeps its original position.
type SimpleCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
	order []K
}

// NewSimpleCache constructs an empty SimpleCache.
func NewSimpleCache[K comparable, V any]() *SimpleCache[K, V] {
	return &SimpleCache[K, V]{items: make(map[K]V)}
}

// Get returns the value and whether it was present.
func (c *SimpleCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Set stores the value under key.
func (c *SimpleCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = value
}

// Delete removes a key and reports whether it was present.
func (c *SimpleCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (c *SimpleCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]K(nil), c.order...)
}

// Len returns the number of stored items.
func (c *SimpleCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
