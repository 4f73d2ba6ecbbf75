// Package store keeps the ticket caches behind the kanban board, the table
// and the chat list consistent with server pushes.
package store

import (
	"cmp"
	"errors"
	"slices"

	"leadsync/internal/application/session"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/filter"
	"leadsync/internal/domain/message"
	"leadsync/internal/domain/ticket"
)

// ErrNoSession is returned when a load runs after logout.
var ErrNoSession = errors.New("no active session")

// ErrSuperseded is returned by a load that a newer load of the same store
// overtook. Nothing was committed.
var ErrSuperseded = errors.New("load superseded")

// Store is what the registry needs from every cache.
type Store interface {
	Name() string
	Has(id int64) bool
	Get(id int64) (*ticket.Ticket, bool)
	// Remove evicts id together with its unread contribution.
	Remove(id int64) bool
}

// View is a read-only copy of a store's state.
type View struct {
	Name       string           `json:"name"`
	Tickets    []*ticket.Ticket `json:"tickets"`
	Filter     filter.Set       `json:"filter"`
	GroupTitle string           `json:"group_title"`
	Page       int              `json:"page,omitempty"`
	PerPage    int              `json:"per_page,omitempty"`
	TotalPages int              `json:"total_pages,omitempty"`
	Total      int64            `json:"total"`
	Loading    bool             `json:"loading"`
}

// Sort fields of light lists.
const (
	SortLastInteraction = "last_interaction_date"
	SortTimeSent        = "time_sent"
)

func lessFor(field string) func(a, b *ticket.Ticket) int {
	key := func(t *ticket.Ticket) ticket.Timestamp { return t.LastInteractionDate }
	if field == SortTimeSent {
		key = func(t *ticket.Ticket) ticket.Timestamp { return t.TimeSent }
	}
	return func(a, b *ticket.Ticket) int {
		if c := key(b).Compare(key(a).Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	}
}

// accepts is the push-side twin of the query a store loads with: the same
// filter set, group title and workflow scope.
func accepts(sess *session.Session, set filter.Set, groupTitle string, t *ticket.Ticket) bool {
	if !sess.CanAccess(t) {
		return false
	}
	if groupTitle != "" && t.GroupTitle != groupTitle {
		return false
	}
	if !slices.Contains(sess.EffectiveWorkflows(set), t.Workflow) {
		return false
	}
	return filter.Matches(t, set, sess.MatchContext())
}

func buildQuery(sess *session.Session, set filter.Set, groupTitle string, typ ticket.QueryType) ticket.Query {
	attrs := filter.Attributes(set)
	attrs[filter.FieldWorkflow] = sess.EffectiveWorkflows(set)
	return ticket.Query{
		Type:       typ,
		GroupTitle: groupTitle,
		Attributes: attrs,
	}
}

// withMessage returns a copy of t carrying m as its last message.
func withMessage(t *ticket.Ticket, m message.Message) *ticket.Ticket {
	next := t.Clone()
	next.LastMessage = message.Preview(m)
	next.LastMessageType = m.MType
	sender := m.SenderID
	next.LastMessageSenderID = &sender
	if !m.TimeSent.IsZero() {
		next.TimeSent = m.TimeSent
		next.LastInteractionDate = m.TimeSent
	}
	if m.IsFromClient() {
		next.UnseenCount++
	}
	return next
}

// eventTarget is implemented by stores that follow the bus.
type eventTarget interface {
	ApplyTicket(t *ticket.Ticket)
	ApplyMessage(m message.Message) bool
	ApplySeen(ticketID int64) bool
	Remove(id int64) bool
}

// bind subscribes target to every bus event it reacts to and returns one
// func releasing them all.
func bind(bus *syncbus.Bus, target eventTarget) func() {
	unsubscribers := []func(){
		bus.OnTicketUpdated(func(e syncbus.TicketUpdated) {
			if e.Ticket != nil {
				target.ApplyTicket(e.Ticket)
			}
		}),
		bus.OnMessageReceived(func(e syncbus.MessageReceived) {
			target.ApplyMessage(e.Message)
		}),
		bus.OnMessagesSeen(func(e syncbus.MessagesSeen) {
			target.ApplySeen(e.TicketID)
		}),
		bus.OnTicketsMerged(func(e syncbus.TicketsMerged) {
			for _, id := range e.DeletedTicketIDs {
				target.Remove(id)
			}
		}),
	}
	return func() {
		for _, u := range unsubscribers {
			u()
		}
	}
}
