// Package realtime fans change notifications out to subscribers. Events are
// advisory only: every subscriber re-reads the authoritative rows on receipt,
// so delivery may duplicate, reorder or drop under pressure without harm.
package realtime

import "sync"

type subscription struct {
	table string
	key   string
	ch    chan Event
}

// Hub is the in-process fan-out. One logical subscription per watched
// table/key; key "" watches the whole table.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Subscribe registers interest in a table (and optionally a single row key).
// The returned cancel func releases the subscription and closes the channel.
func (h *Hub) Subscribe(table, key string, buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	sub := &subscription{table: table, key: key, ch: make(chan Event, buf)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
// A subscriber whose buffer is full misses this event and catches up on the
// next one, since events carry no payload.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.table != evt.Table {
			continue
		}
		if sub.key != "" && sub.key != evt.Key {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
