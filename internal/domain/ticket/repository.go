package ticket

import "context"

// QueryType selects the record shape the backend returns.
type QueryType string

const (
	QueryLight QueryType = "light"
	QueryHard  QueryType = "hard"
	QueryID    QueryType = "id"
)

// Query is the body of a ticket filter request.
type Query struct {
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Type       QueryType      `json:"type"`
	GroupTitle string         `json:"group_title"`
	SortBy     string         `json:"sort_by,omitempty"`
	Order      string         `json:"order,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// Page is one page of a filter result.
type Page struct {
	Tickets    []*Ticket
	Page       int
	TotalPages int
	Total      int64
}

// TicketRepository is the remote ticket API as the caches see it.
type TicketRepository interface {
	FilterTickets(ctx context.Context, q Query) (*Page, error)
	GetTicket(ctx context.Context, id int64, light bool) (*Ticket, error)
	UpdateTicket(ctx context.Context, id int64, fields map[string]any) (*Ticket, error)
	DeleteTickets(ctx context.Context, ids []int64) error
	MergeTickets(ctx context.Context, oldID, newID int64) error
}
