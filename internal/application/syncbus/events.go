package syncbus

import (
	"encoding/json"
	"fmt"

	"leadsync/internal/domain/message"
	"leadsync/internal/domain/ticket"
)

// EventType is the closed set of notifications the bus carries.
type EventType string

const (
	TypeTicketUpdated   EventType = "TICKET_UPDATED"
	TypeMessageReceived EventType = "MESSAGE_RECEIVED"
	TypeMessagesSeen    EventType = "MESSAGES_SEEN"
	TypeMessageDeleted  EventType = "MESSAGE_DELETED"
	TypeTicketsMerged   EventType = "TICKETS_MERGED"
)

// Event is implemented only by the payload types below.
type Event interface {
	EventType() EventType
	// Origin is empty for locally raised events, OriginSocket for events
	// decoded from a socket push and the source instance id for relayed ones.
	Origin() string
	withOrigin(origin string) Event
}

// OriginSocket marks events that every connected process receives from its
// own socket. The relay never forwards them.
const OriginSocket = "socket"

// Meta is embedded in every event.
type Meta struct {
	Source string `json:"origin,omitempty"`
}

func (m Meta) Origin() string { return m.Source }

type TicketUpdated struct {
	Meta
	TicketID int64          `json:"ticket_id"`
	Ticket   *ticket.Ticket `json:"ticket"`
}

type MessageReceived struct {
	Meta
	Message message.Message `json:"message"`
}

type MessagesSeen struct {
	Meta
	TicketID int64 `json:"ticket_id"`
	ClientID int64 `json:"client_id,omitempty"`
}

type MessageDeleted struct {
	Meta
	MessageID int64 `json:"message_id"`
	TicketID  int64 `json:"ticket_id,omitempty"`
}

type TicketsMerged struct {
	Meta
	DeletedTicketIDs []int64 `json:"deleted_ticket_ids"`
	TargetTicketID   int64   `json:"target_ticket_id"`
}

func (TicketUpdated) EventType() EventType   { return TypeTicketUpdated }
func (MessageReceived) EventType() EventType { return TypeMessageReceived }
func (MessagesSeen) EventType() EventType    { return TypeMessagesSeen }
func (MessageDeleted) EventType() EventType  { return TypeMessageDeleted }
func (TicketsMerged) EventType() EventType   { return TypeTicketsMerged }

func (e TicketUpdated) withOrigin(o string) Event   { e.Source = o; return e }
func (e MessageReceived) withOrigin(o string) Event { e.Source = o; return e }
func (e MessagesSeen) withOrigin(o string) Event    { e.Source = o; return e }
func (e MessageDeleted) withOrigin(o string) Event  { e.Source = o; return e }
func (e TicketsMerged) withOrigin(o string) Event   { e.Source = o; return e }

// WithOrigin returns a copy of e stamped with origin.
func WithOrigin(e Event, origin string) Event {
	return e.withOrigin(origin)
}

type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal encodes an event with its type tag for transport.
func Marshal(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.EventType(), err)
	}
	return json.Marshal(envelope{Type: e.EventType(), Payload: payload})
}

// Unmarshal decodes an event produced by Marshal.
func Unmarshal(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	var (
		e   Event
		err error
	)
	switch env.Type {
	case TypeTicketUpdated:
		var v TicketUpdated
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case TypeMessageReceived:
		var v MessageReceived
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case TypeMessagesSeen:
		var v MessagesSeen
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case TypeMessageDeleted:
		var v MessageDeleted
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case TypeTicketsMerged:
		var v TicketsMerged
		err = json.Unmarshal(env.Payload, &v)
		e = v
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
	}
	return e, nil
}
