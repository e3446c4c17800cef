// Package realtime provides a small in-process publish/subscribe hub used to
// fan out state snapshots to multiple listeners (websocket sessions, the
// interactive shell, search sessions following recent apps).
//
// Design Goals:
//   - Best-effort fan-out: publishers never block on slow listeners.
//   - Latest-value conflation: a listener whose buffer is full loses its
//     oldest pending value, never the newest one.
//   - Replay of the latest value on Register, so late observers start from
//     the current state instead of waiting for the next change.
package realtime

import (
	"sync"
)

// Hub is an in-memory fan-out dispatcher. Each registered listener receives
// values via its own buffered channel.
//
// The hub is concurrency-safe.
type Hub[T any] struct {
	mu        sync.Mutex
	listeners map[uint64]chan T
	nextID    uint64
	bufSize   int
	latest    T
	hasLatest bool
}

// NewHub constructs a new hub with per-listener buffer size.
// If bufSize <= 0, a default of 8 is used.
func NewHub[T any](bufSize int) *Hub[T] {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Hub[T]{
		listeners: make(map[uint64]chan T),
		bufSize:   bufSize,
	}
}

// Register adds a new listener and returns (listenerID, receiveOnlyChannel).
// If a value was broadcast before, it is queued on the new channel immediately.
// Callers must later Unregister(id) to release resources.
func (h *Hub[T]) Register() (uint64, <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan T, h.bufSize)
	if h.hasLatest {
		ch <- h.latest
	}
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener with the given id and closes its channel.
// It is safe to call multiple times; unknown ids are ignored.
func (h *Hub[T]) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Subscribe is Register paired with its cancel function.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	id, ch := h.Register()
	var once sync.Once
	return ch, func() {
		once.Do(func() { h.Unregister(id) })
	}
}

// Broadcast delivers v to all registered listeners and remembers it as the
// latest value. Full listeners drop their oldest pending value.
func (h *Hub[T]) Broadcast(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = v
	h.hasLatest = true
	for _, ch := range h.listeners {
		select {
		case ch <- v:
			continue
		default:
		}
		// Conflate: make room by discarding the oldest value.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Latest returns the most recently broadcast value.
func (h *Hub[T]) Latest() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.hasLatest
}

// Size returns the current number of active listeners.
func (h *Hub[T]) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close unregisters every listener.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.listeners {
		delete(h.listeners, id)
		close(ch)
	}
}
