package message

import "context"

// SendRequest is what the backend needs to deliver a message to a client.
type SendRequest struct {
	TicketID  int64  `json:"ticket_id"`
	ClientID  int64  `json:"client_id,omitempty"`
	SenderID  int64  `json:"sender_id"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"message"`
	MType     string `json:"mtype,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// History is the REST view of a ticket's conversation side streams.
type History struct {
	Logs  []Log  `json:"logs"`
	Notes []Note `json:"notes"`
}

type MessageRepository interface {
	SendMessage(ctx context.Context, req SendRequest) (*Message, error)
	GetMessages(ctx context.Context, ticketID int64) ([]Message, error)
	GetTimeline(ctx context.Context, ticketID int64) (*History, error)
}
