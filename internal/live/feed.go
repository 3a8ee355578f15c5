// Package live keeps per-connection projections of a collection fresh by
// reloading them whenever the collection changes.
package live

import (
	"context"
	"sync"
)

type Collection string

const (
	Inventory    Collection = "inventory"
	Sales        Collection = "sales"
	PendingBills Collection = "pendingbills"
	Services     Collection = "services"
	Users        Collection = "users"
)

// Notifier is what writers call after a committed change.
type Notifier interface {
	Notify(ctx context.Context, c Collection)
}

type Feed interface {
	Notifier
	Subscribe(c Collection) *Subscription
}

// Subscription delivers change signals. C has capacity one, so signals that
// arrive while a reload is running collapse into a single pending one.
type Subscription struct {
	C    <-chan struct{}
	ch   chan struct{}
	hub  *Hub
	coll Collection
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub is the in-process feed.
type Hub struct {
	mu   sync.RWMutex
	subs map[Collection]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[Collection]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(c Collection) *Subscription {
	ch := make(chan struct{}, 1)
	s := &Subscription{C: ch, ch: ch, hub: h, coll: c}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[c] == nil {
		h.subs[c] = make(map[*Subscription]struct{})
	}
	h.subs[c][s] = struct{}{}
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[s.coll], s)
}

func (h *Hub) Notify(_ context.Context, c Collection) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[c] {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many subscriptions are open on c.
func (h *Hub) Subscribers(c Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[c])
}
