// Package syncbus is the in-process notification bus ticket caches listen
// on. It knows nothing about the socket; any source may emit.
package syncbus

import (
	"sync"

	"leadsync/internal/shared/goroutine"
	"leadsync/internal/shared/logger"
)

type subscription struct {
	id uint64
	fn func(Event)
}

// Bus delivers every emitted event synchronously to each subscriber of its
// type, in subscription order. A panicking subscriber is logged and the
// remaining subscribers still run.
type Bus struct {
	mu     sync.RWMutex
	subs   map[EventType][]subscription
	all    []subscription
	nextID uint64
	logger logger.Interface
}

func New(log logger.Interface) *Bus {
	return &Bus{
		subs:   make(map[EventType][]subscription),
		logger: log,
	}
}

// Subscribe registers fn for one event type. The returned func removes it
// and is safe to call more than once.
func (b *Bus) Subscribe(t EventType, fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs[t] = remove(b.subs[t], id)
			if len(b.subs[t]) == 0 {
				delete(b.subs, t)
			}
		})
	}
}

// SubscribeAll registers fn for every event type. All-subscribers run after
// the typed ones.
func (b *Bus) SubscribeAll(fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.all = remove(b.all, id)
		})
	}
}

// Emit delivers e before returning. Subscribers added or removed during
// delivery take effect from the next Emit.
func (b *Bus) Emit(e Event) {
	if e == nil {
		return
	}
	b.mu.RLock()
	typed := b.subs[e.EventType()]
	targets := make([]subscription, 0, len(typed)+len(b.all))
	targets = append(targets, typed...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, s := range targets {
		goroutine.SafeCall(b.logger, "syncbus:"+string(e.EventType()), func() {
			s.fn(e)
		})
	}
}

// SubscriberCount returns the number of typed subscribers for t.
func (b *Bus) SubscriberCount(t EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t])
}

func remove(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bus) OnTicketUpdated(fn func(TicketUpdated)) func() {
	return b.Subscribe(TypeTicketUpdated, func(e Event) { fn(e.(TicketUpdated)) })
}

func (b *Bus) OnMessageReceived(fn func(MessageReceived)) func() {
	return b.Subscribe(TypeMessageReceived, func(e Event) { fn(e.(MessageReceived)) })
}

func (b *Bus) OnMessagesSeen(fn func(MessagesSeen)) func() {
	return b.Subscribe(TypeMessagesSeen, func(e Event) { fn(e.(MessagesSeen)) })
}

func (b *Bus) OnMessageDeleted(fn func(MessageDeleted)) func() {
	return b.Subscribe(TypeMessageDeleted, func(e Event) { fn(e.(MessageDeleted)) })
}

func (b *Bus) OnTicketsMerged(fn func(TicketsMerged)) func() {
	return b.Subscribe(TypeTicketsMerged, func(e Event) { fn(e.(TicketsMerged)) })
}
