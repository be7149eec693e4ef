package risk

import (
	"context"
	"sync"
	"time"
)

// MemoryCooldown tracks opportunity keys inside a time-to-live window. It is
// rebuilt empty on restart and safe for concurrent use.
type MemoryCooldown struct {
	seen map[string]time.Time
	mu   sync.Mutex
}

// NewMemoryCooldown creates an empty in-process cooldown store.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{seen: make(map[string]time.Time)}
}

// InCooldown reports whether key was marked within its window. An expired
// entry is removed on lookup.
func (c *MemoryCooldown) InCooldown(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.seen[key]
	if !ok {
		return false, nil
	}
	if !time.Now().Before(entry) {
		delete(c.seen, key)
		return false, nil
	}
	return true, nil
}

// Mark records key as executed now; the window expires after ttl. Each mark
// also sweeps expired entries, so the map stays bounded by the keys marked
// within one window.
func (c *MemoryCooldown) Mark(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, expiry := range c.seen {
		if now.After(expiry) {
			delete(c.seen, k)
		}
	}
	c.seen[key] = now.Add(ttl)
	return nil
}
