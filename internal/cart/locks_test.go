package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocksBlockSameSession(t *testing.T) {
	locks := NewSessionLocks()
	unlock := locks.Lock("a")

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("a")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked session")
	case <-time.After(50 * time.Millisecond):
	}

	// Other sessions are independent.
	other := locks.Lock("b")
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the session")
	}
	assert.Eventually(t, func() bool { return locks.Held() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSessionLocksSerializeSeparateInstances(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	locks := NewSessionLocks()

	const adds = 50
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("s")
			defer unlock()
			// A fresh instance per call, as after a cache eviction.
			_, err := New(store, "s").AddItem(ctx, Item{Name: "Bar", UnitPrice: money(200)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines := New(store, "s").Lines(ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, adds, lines[0].Quantity)
	assert.Zero(t, locks.Held())
}
