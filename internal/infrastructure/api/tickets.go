package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"leadsync/internal/domain/ticket"
)

type pagination struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Total      int64 `json:"total"`
}

func (c *Client) FilterTickets(ctx context.Context, q ticket.Query) (*ticket.Page, error) {
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/api/tickets/filter", q, &envelope); err != nil {
		return nil, fmt.Errorf("filter tickets: %w", err)
	}

	page := &ticket.Page{Page: q.Page}
	if _, err := pick(envelope, &page.Tickets, "tickets", "data"); err != nil {
		return nil, fmt.Errorf("filter tickets: %w", err)
	}

	var p pagination
	found, err := pick(envelope, &p, "pagination")
	if err != nil {
		return nil, fmt.Errorf("filter tickets: %w", err)
	}
	if found {
		if p.Page > 0 {
			page.Page = p.Page
		}
		page.TotalPages = p.TotalPages
		page.Total = p.Total
	} else {
		page.Total = int64(len(page.Tickets))
	}
	return page, nil
}

// GetTicket fetches one ticket. light asks for the list shape instead of
// the full record.
func (c *Client) GetTicket(ctx context.Context, id int64, light bool) (*ticket.Ticket, error) {
	path := fmt.Sprintf("/api/tickets/%d", id)
	if light {
		path += "?type=" + string(ticket.QueryLight)
	}
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return decodeTicket(envelope, id)
}

func (c *Client) UpdateTicket(ctx context.Context, id int64, fields map[string]any) (*ticket.Ticket, error) {
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/tickets/%d", id), fields, &envelope); err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", id, err)
	}
	return decodeTicket(envelope, id)
}

func (c *Client) DeleteTickets(ctx context.Context, ids []int64) error {
	body := map[string]any{"ids": ids}
	if err := c.doRequest(ctx, http.MethodDelete, "/api/tickets", body, nil); err != nil {
		return fmt.Errorf("delete tickets: %w", err)
	}
	return nil
}

func (c *Client) MergeTickets(ctx context.Context, oldID, newID int64) error {
	body := map[string]int64{"ticket_old": oldID, "ticket_new": newID}
	if err := c.doRequest(ctx, http.MethodPost, "/api/tickets/merge", body, nil); err != nil {
		return fmt.Errorf("merge tickets: %w", err)
	}
	return nil
}

// decodeTicket accepts {ticket}, {data} or the bare record.
func decodeTicket(envelope map[string]json.RawMessage, id int64) (*ticket.Ticket, error) {
	t := &ticket.Ticket{}
	found, err := pick(envelope, t, "ticket", "data")
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", id, err)
	}
	if !found {
		raw, err := json.Marshal(envelope)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: %w", id, err)
		}
		if err := json.Unmarshal(raw, t); err != nil {
			return nil, fmt.Errorf("ticket %d: %w", id, err)
		}
	}
	if t.ID == 0 {
		t.ID = id
	}
	return t, nil
}

var _ ticket.TicketRepository = (*Client)(nil)
