// Package cache holds the in-process result caches and their cleanup loop.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is a keyed store of values that may expire.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Clear drops every entry; used when the underlying data changes.
	Clear()
	Size() int
}

// Cleaner is implemented by caches whose expired entries must be swept.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps every registered cache.
type Manager struct {
	mu       sync.Mutex
	caches   map[string]Cleaner
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]Cleaner),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds a cache under name. Registering the same name twice replaces
// the earlier cache.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Sweep cleans every registered cache once and returns the number of entries
// removed.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		n := c.CleanExpired()
		if n > 0 {
			slog.DebugContext(ctx, "Expired cache entries removed", "cache", name, "count", n)
		}
		total += n
	}
	return total
}

// StartCleanup sweeps every interval until Stop is called or ctx ends.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep(ctx)
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it. It must only be called after
// StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}
