package store

import (
	"sync"

	"leadsync/internal/shared/goroutine"
	"leadsync/internal/shared/logger"
)

// UnreadCounter is the global unread badge. Stores adjust it with deltas
// rather than recounting, and it never drops below zero.
type UnreadCounter struct {
	mu        sync.Mutex
	value     int
	listeners map[uint64]func(int)
	nextID    uint64
	logger    logger.Interface
}

func NewUnreadCounter(log logger.Interface) *UnreadCounter {
	return &UnreadCounter{
		listeners: make(map[uint64]func(int)),
		logger:    log,
	}
}

// Apply adds delta and returns the new value.
func (u *UnreadCounter) Apply(delta int) int {
	if delta == 0 {
		return u.Value()
	}
	u.mu.Lock()
	u.value = max(u.value+delta, 0)
	v := u.value
	listeners := u.listenersLocked()
	u.mu.Unlock()

	u.notify(listeners, v)
	return v
}

func (u *UnreadCounter) Set(v int) {
	u.mu.Lock()
	u.value = max(v, 0)
	v = u.value
	listeners := u.listenersLocked()
	u.mu.Unlock()

	u.notify(listeners, v)
}

func (u *UnreadCounter) Value() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.value
}

// OnChange registers fn for every value change.
func (u *UnreadCounter) OnChange(fn func(int)) func() {
	u.mu.Lock()
	u.nextID++
	id := u.nextID
	u.listeners[id] = fn
	u.mu.Unlock()

	return func() {
		u.mu.Lock()
		delete(u.listeners, id)
		u.mu.Unlock()
	}
}

func (u *UnreadCounter) listenersLocked() []func(int) {
	out := make([]func(int), 0, len(u.listeners))
	for _, fn := range u.listeners {
		out = append(out, fn)
	}
	return out
}

func (u *UnreadCounter) notify(listeners []func(int), v int) {
	for _, fn := range listeners {
		goroutine.SafeCall(u.logger, "unread-listener", func() { fn(v) })
	}
}
