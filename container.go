package stated

import (
	"errors"
	"sync"
)

// ErrEntryNotFound indicates a container key with no registered value.
var ErrEntryNotFound = errors.New("stated: container entry not found")

// Container is the keyed registry factories are published in.
type Container interface {
	Get(key string) (any, error)
	RegisterInstance(key string, value any) error
	TestEntry(key string) bool
}

// FactoryKey is the container key of the factory for class.
func FactoryKey(class string) string {
	return "stated.factory:" + class
}

// MemoryContainer is an in-memory Container safe for concurrent use.
type MemoryContainer struct {
	mu      sync.RWMutex
	entries map[string]any
}

func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{entries: map[string]any{}}
}

func (c *MemoryContainer) Get(key string) (any, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, &Error{Kind: ErrEntryNotFound, Detail: "key=" + key}
	}
	return value, nil
}

func (c *MemoryContainer) RegisterInstance(key string, value any) error {
	if key == "" {
		return newError(ErrInvalidArgument, withDetail("container key must not be empty"))
	}
	c.mu.Lock()
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
	c.mu.Unlock()
	return nil
}

func (c *MemoryContainer) TestEntry(key string) bool {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	return ok
}

// Reset drops every entry.
func (c *MemoryContainer) Reset() {
	c.mu.Lock()
	c.entries = map[string]any{}
	c.mu.Unlock()
}
