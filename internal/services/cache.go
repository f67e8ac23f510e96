package services

import (
	"sync"

	"github.com/google/uuid"
)

// userCache is a per-user read-through cache. Entries are only written with
// values the store has just returned, and dropped when a write fails.
type userCache[T any] struct {
	mu    sync.RWMutex
	items map[uuid.UUID]T
}

func newUserCache[T any]() *userCache[T] {
	return &userCache[T]{items: make(map[uuid.UUID]T)}
}

func (c *userCache[T]) get(userID uuid.UUID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[userID]
	return v, ok
}

func (c *userCache[T]) set(userID uuid.UUID, v T) {
	c.mu.Lock()
	c.items[userID] = v
	c.mu.Unlock()
}

func (c *userCache[T]) invalidate(userID uuid.UUID) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}
