// Package notify fans board-delete notifications out to subscribers.
// It is in-process only: stores without a push channel of their own
// (memory, filesystem, sqlite) can surface local deletes through it, but
// deletes issued by another process never reach these subscribers — the
// postgres store's LISTEN/NOTIFY feed is the cross-process path.
package notify

import "sync"

// Hub is a minimal subscriber registry. The zero value is ready to use.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(string)
}

// Subscribe registers fn for delete notifications and returns an
// unsubscribe function.
func (h *Hub) Subscribe(fn func(boardID string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func(string))
	}
	id := h.next
	h.next++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers a board id to every subscriber, synchronously.
func (h *Hub) Publish(boardID string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(boardID)
	}
}
