package handlers

import (
	"context"

	"leadsync/internal/application/chat"
	"leadsync/internal/domain/message"
)

// chatService is the part of *chat.Service the handlers use.
type chatService interface {
	Open(ctx context.Context, ticketID, clientID int64) ([]message.Message, error)
	Send(ctx context.Context, in chat.SendInput) (message.Message, error)
	Messages(ticketID int64) ([]message.Message, bool)
	Timeline(ctx context.Context, ticketID int64) ([]chat.TimelineBlock, error)
	Participants(ticketID int64) []int64
}
