package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub[int](4)
	id1, ch1 := h.Register()
	_, ch2 := h.Register()
	require.Equal(t, 2, h.Size())

	h.Broadcast(1)
	assert.Equal(t, 1, <-ch1)
	assert.Equal(t, 1, <-ch2)

	h.Unregister(id1)
	h.Unregister(id1)
	_, open := <-ch1
	assert.False(t, open)
	assert.Equal(t, 1, h.Size())
}

func TestHubReplaysLatest(t *testing.T) {
	h := NewHub[string](2)
	_, ok := h.Latest()
	assert.False(t, ok)

	h.Broadcast("a")
	h.Broadcast("b")

	ch, cancel := h.Subscribe()
	defer cancel()
	select {
	case v := <-ch:
		assert.Equal(t, "b", v)
	case <-time.After(time.Second):
		t.Fatal("expected replayed value")
	}
}

func TestHubConflatesSlowListener(t *testing.T) {
	h := NewHub[int](2)
	_, ch := h.Register()

	for i := 1; i <= 10; i++ {
		h.Broadcast(i)
	}

	assert.Equal(t, 9, <-ch)
	assert.Equal(t, 10, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestHubSubscribeCancelIdempotent(t *testing.T) {
	h := NewHub[int](1)
	_, cancel := h.Subscribe()
	cancel()
	cancel()
	assert.Equal(t, 0, h.Size())
}

func TestHubConcurrentBroadcast(t *testing.T) {
	h := NewHub[int](1)
	ch, cancel := h.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Broadcast(i)
		}(i)
	}
	wg.Wait()

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, latest, <-ch)
}

func TestHubClose(t *testing.T) {
	h := NewHub[int](1)
	_, ch := h.Register()
	h.Close()
	_, open := <-ch
	assert.False(t, open)
	h.Broadcast(1)
}
