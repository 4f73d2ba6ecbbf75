package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"leadsync/internal/domain/message"
	"leadsync/internal/domain/user"
)

func (c *Client) SendMessage(ctx context.Context, req message.SendRequest) (*message.Message, error) {
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/api/messages/send", req, &envelope); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	m := &message.Message{}
	found, err := pick(envelope, m, "message", "data")
	if err != nil || !found {
		// Some deployments answer with a bare acknowledgement.
		m = &message.Message{}
	}
	if m.TicketID == 0 {
		m.TicketID = req.TicketID
	}
	if m.MessageID == "" {
		m.MessageID = req.MessageID
	}
	return m, nil
}

func (c *Client) GetMessages(ctx context.Context, ticketID int64) ([]message.Message, error) {
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d/messages", ticketID), nil, &envelope); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	var messages []message.Message
	if _, err := pick(envelope, &messages, "messages", "data"); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return messages, nil
}

func (c *Client) GetTimeline(ctx context.Context, ticketID int64) (*message.History, error) {
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d/timeline", ticketID), nil, &envelope); err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}

	h := &message.History{}
	found, err := pick(envelope, h, "data")
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	if !found {
		if _, err := pick(envelope, &h.Logs, "logs"); err != nil {
			return nil, fmt.Errorf("get timeline: %w", err)
		}
		if _, err := pick(envelope, &h.Notes, "notes"); err != nil {
			return nil, fmt.Errorf("get timeline: %w", err)
		}
	}
	return h, nil
}

func (c *Client) GetMe(ctx context.Context) (*user.Profile, error) {
	var envelope map[string]json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, "/api/me", nil, &envelope); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p := &user.Profile{}
	found, err := pick(envelope, p, "user", "data")
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		raw, _ := json.Marshal(envelope)
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("get profile: %w", err)
		}
	}
	return p, nil
}

var (
	_ message.MessageRepository = (*Client)(nil)
	_ user.ProfileRepository    = (*Client)(nil)
)
