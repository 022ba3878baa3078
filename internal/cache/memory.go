package cache

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// InMemoryCache keeps entries in process memory. Used for tests and ephemeral
// deployments where preferences need not outlive the process.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ ListCache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{data: make(map[string]string)}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(value)), nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *InMemoryCache) Put(_ context.Context, key, value string, opts PutOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; exists && opts.Condition == PutIfNoneMatch {
		return ErrAlreadyExists
	}
	c.data[key] = value
	return nil
}

func (c *InMemoryCache) List(_ context.Context, prefix string, _ string) ([]string, error) {
	c.mu.RLock()
	var keys []string
	for key := range c.data {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			keys = append(keys, rest)
		}
	}
	c.mu.RUnlock()
	slices.Sort(keys)
	return keys, nil
}
