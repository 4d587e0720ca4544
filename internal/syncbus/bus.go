// Package syncbus decouples producers of "data changed" signals (checkout
// success, logout, admin edits) from the pages that need to refetch. A
// signal is published twice: into the shared local-store slot, which other
// running clients observe through their watch loop, and synchronously to
// same-process subscribers, because a writer never observes its own slot
// write.
package syncbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/localstore"
)

// Topic enumerates the data classes a signal can refer to.
type Topic string

const (
	TopicOrders   Topic = "orders"
	TopicProducts Topic = "products"
	TopicLogout   Topic = "logout"
	TopicContent  Topic = "content"
	TopicUsers    Topic = "users"
)

// Signal is the payload written to the shared slot.
type Signal struct {
	ID        string `json:"id"`
	Origin    string `json:"origin"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Bus publishes and dispatches sync signals.
type Bus struct {
	store  *localstore.Store
	origin string
	log    *zap.Logger

	mu       sync.Mutex
	subs     map[Topic]map[int]func()
	nextSub  int
	lastSeen string
}

// New builds a bus over the shared store. Each bus instance carries its own
// origin id so the watch loop can skip signals it published itself. A signal
// left in the slot by an earlier run is history, not news: the cursor starts
// at the current slot contents so only signals written after construction
// are ever dispatched.
func New(store *localstore.Store, log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{
		store:  store,
		origin: uuid.NewString(),
		log:    log,
		subs:   map[Topic]map[int]func(){},
	}
	if store != nil {
		var sig Signal
		if store.GetJSON(localstore.KeySync, &sig) {
			b.lastSeen = sig.ID
		}
	}
	return b
}

// Notify records the signal in the shared slot and fires same-process
// subscribers. Slot write failures are logged, not surfaced; a sync signal
// is advisory.
func (b *Bus) Notify(topic Topic) {
	sig := Signal{
		ID:        ulid.Make().String(),
		Origin:    b.origin,
		Type:      string(topic),
		Timestamp: time.Now().UnixMilli(),
	}
	if b.store != nil {
		if err := b.store.SetJSON(localstore.KeySync, sig); err != nil {
			b.log.Warn("sync slot write failed", zap.String("topic", string(topic)), zap.Error(err))
		}
	}
	b.mu.Lock()
	b.lastSeen = sig.ID
	b.mu.Unlock()
	b.dispatch(topic)
}

// Subscribe registers fn for the topic and returns a deregistration handle.
// Multiple subscribers per topic are allowed; dispatch order between them is
// unspecified.
func (b *Bus) Subscribe(topic Topic, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	if b.subs[topic] == nil {
		b.subs[topic] = map[int]func(){}
	}
	b.subs[topic][id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Watch polls the shared slot and dispatches signals written by other
// clients until ctx is cancelled. Malformed slot payloads are ignored; a
// corrupt signal must never take a listener down.
func (b *Bus) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.poll()
		}
	}
}

func (b *Bus) poll() {
	if b.store == nil {
		return
	}
	var sig Signal
	if !b.store.GetJSON(localstore.KeySync, &sig) {
		return
	}
	if sig.ID == "" || sig.Origin == b.origin {
		return
	}
	b.mu.Lock()
	seen := sig.ID == b.lastSeen
	if !seen {
		b.lastSeen = sig.ID
	}
	b.mu.Unlock()
	if seen {
		return
	}
	b.dispatch(Topic(sig.Type))
}

func (b *Bus) dispatch(topic Topic) {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
