package session

import "sync"

// Hub fans snapshots out to subscribers of a session. Slow subscribers
// miss intermediate snapshots instead of blocking the writer.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan Snapshot]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan Snapshot]struct{})}
}

// Subscribe returns a channel receiving every published snapshot of the
// session and a function that must be called to release it.
func (h *Hub) Subscribe(sessionID string) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[chan Snapshot]struct{})
		h.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.subscribers, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[snap.SessionID] {
		select {
		case ch <- snap:
		default:
		}
	}
}
