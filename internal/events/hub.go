// Package events fans roster changes out to live subscribers such as
// websocket clients.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/alfagnish/mergington-activities/internal/catalog"
)

// DefaultBuffer is the per-subscriber queue length used when NewHub is given
// a non-positive size.
const DefaultBuffer = 16

// Hub is a thread-safe, in-memory set of subscribers. It implements
// catalog.Listener. A subscriber whose queue is full misses the event; a slow
// reader never blocks a signup.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan catalog.Change
	buffer  int
	dropped atomic.Uint64

	onCount func(int)
}

// NewHub creates an empty hub. onCount, if non-nil, is called with the new
// subscriber count whenever it changes.
func NewHub(buffer int, onCount func(int)) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:    make(map[string]chan catalog.Change),
		buffer:  buffer,
		onCount: onCount,
	}
}

// Subscribe registers a new subscriber and returns its id, the channel it
// receives changes on, and a function that removes it. The channel is closed
// on removal.
func (h *Hub) Subscribe() (string, <-chan catalog.Change, func()) {
	id := uuid.New().String()
	ch := make(chan catalog.Change, h.buffer)

	h.mu.Lock()
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()
	h.reportCount(n)

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.remove(id) })
	}
	return id, ch, cancel
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		h.reportCount(n)
	}
}

// RosterChanged delivers c to every subscriber without blocking.
func (h *Hub) RosterChanged(c catalog.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
			h.dropped.Add(1)
		}
	}
}

// Len returns the current number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) reportCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}
