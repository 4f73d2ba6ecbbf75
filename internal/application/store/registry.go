package store

import (
	"leadsync/internal/domain/ticket"
	"leadsync/internal/shared/logger"
)

// Registry addresses every cache at once.
type Registry struct {
	stores []Store
	logger logger.Interface
}

func NewRegistry(log logger.Interface, stores ...Store) *Registry {
	return &Registry{stores: stores, logger: log}
}

// Purge removes id from every store, unread contributions included, and
// returns how many stores held it. Used when access to the ticket's group
// title is gone.
func (r *Registry) Purge(id int64) int {
	n := 0
	for _, s := range r.stores {
		if s.Remove(id) {
			n++
		}
	}
	if n > 0 {
		r.logger.Infow("ticket purged from caches", "ticket_id", id, "stores", n)
	}
	return n
}

// Has reports whether any store holds id.
func (r *Registry) Has(id int64) bool {
	for _, s := range r.stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// Find returns the first cached copy of id.
func (r *Registry) Find(id int64) (*ticket.Ticket, bool) {
	for _, s := range r.stores {
		if t, ok := s.Get(id); ok {
			return t, true
		}
	}
	return nil, false
}

func (r *Registry) Stores() []Store {
	return r.stores
}
