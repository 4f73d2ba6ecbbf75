// Package message models chat messages of a ticket and reconciles optimistic
// local sends with what the server later reports.
package message

import (
	"leadsync/internal/domain/ticket"
)

// Status is the delivery state of a message.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusSeen    Status = "SEEN"
)

// Sender ids reserved by the messaging backend.
const (
	SenderClient int64 = 0
	SenderSystem int64 = 1
)

// TypeCall marks call records. They may arrive twice, the second time with
// the recording url.
const TypeCall = "call"

// ErrorPrefix wraps the original text in send-failure echoes.
const ErrorPrefix = "❗️❗️❗️Mesajul nu poate fi trimis: "

type Message struct {
	ID        int64            `json:"id,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	LocalID   string           `json:"local_id,omitempty"`
	TicketID  int64            `json:"ticket_id"`
	ClientID  int64            `json:"client_id,omitempty"`
	SenderID  int64            `json:"sender_id"`
	Content   string           `json:"message"`
	MType     string           `json:"mtype,omitempty"`
	Platform  string           `json:"platform,omitempty"`
	URL       string           `json:"url,omitempty"`
	TimeSent  ticket.Timestamp `json:"time_sent"`
	Status    Status           `json:"status,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// IsCall reports whether the message is a call record.
func (m *Message) IsCall() bool {
	return m.MType == TypeCall
}

// IsFromClient reports whether the client wrote the message.
func (m *Message) IsFromClient() bool {
	return m.SenderID == SenderClient || (m.ClientID != 0 && m.SenderID == m.ClientID)
}

// sameIdentity compares server identities. Local-only messages have none.
func (m *Message) sameIdentity(other *Message) bool {
	if m.ID != 0 && m.ID == other.ID {
		return true
	}
	return m.MessageID != "" && m.MessageID == other.MessageID
}

// UnwrapError returns the original text of a send-failure echo and whether
// the prefix was present.
func UnwrapError(text string) (string, bool) {
	if len(text) >= len(ErrorPrefix) && text[:len(ErrorPrefix)] == ErrorPrefix {
		return text[len(ErrorPrefix):], true
	}
	return text, false
}
