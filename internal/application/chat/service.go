// Package chat keeps the conversation of opened tickets: optimistic sends,
// their reconciliation with server echoes, and the merged timeline.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"leadsync/internal/application/session"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/message"
	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
	"leadsync/internal/shared/services/markdown"
)

// RoomSwitcher moves the socket subscription to another ticket room.
type RoomSwitcher interface {
	SwitchRoom(ticketID, clientID int64)
}

// SendInput is what a caller provides to send a message.
type SendInput struct {
	TicketID int64  `json:"ticket_id" binding:"required"`
	ClientID int64  `json:"client_id"`
	Content  string `json:"message" binding:"required"`
	MType    string `json:"mtype"`
	Platform string `json:"platform"`
}

// TimelineBlock is a timeline block with the note rendered for display.
type TimelineBlock struct {
	message.Block
	NoteHTML string `json:"note_html,omitempty"`
}

type conversation struct {
	thread    *message.Thread
	liveLogs  []message.Log
	liveNotes []message.Note
}

type Service struct {
	repo     message.MessageRepository
	rooms    RoomSwitcher
	sessions *session.Holder
	presence *Presence
	renderer markdown.Renderer
	notifier notify.Notifier
	logger   logger.Interface

	mu            sync.Mutex
	conversations map[int64]*conversation
	current       int64
}

func NewService(
	repo message.MessageRepository,
	rooms RoomSwitcher,
	sessions *session.Holder,
	presence *Presence,
	renderer markdown.Renderer,
	notifier notify.Notifier,
	log logger.Interface,
) *Service {
	return &Service{
		repo:          repo,
		rooms:         rooms,
		sessions:      sessions,
		presence:      presence,
		renderer:      renderer,
		notifier:      notifier,
		logger:        log.Named("chat"),
		conversations: make(map[int64]*conversation),
	}
}

// Bind follows message events on bus until the returned func is called.
func (s *Service) Bind(bus *syncbus.Bus) func() {
	unsubscribers := []func(){
		bus.OnMessageReceived(func(e syncbus.MessageReceived) { s.HandleMessage(e.Message) }),
		bus.OnMessagesSeen(func(e syncbus.MessagesSeen) { s.HandleSeen(e.TicketID) }),
		bus.OnMessageDeleted(func(e syncbus.MessageDeleted) { s.HandleDeleted(e.TicketID, e.MessageID) }),
		bus.OnTicketsMerged(func(e syncbus.TicketsMerged) {
			for _, id := range e.DeletedTicketIDs {
				s.forget(id)
			}
		}),
	}
	return func() {
		for _, u := range unsubscribers {
			u()
		}
	}
}

func (s *Service) Presence() *Presence {
	return s.presence
}

// Participants lists the users currently viewing ticketID.
func (s *Service) Participants(ticketID int64) []int64 {
	return s.presence.Participants(ticketID)
}

// Current returns the ticket whose room is joined, zero when none.
func (s *Service) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Open joins the ticket's room and loads its history. Pending local
// messages of an already opened ticket survive the reload.
func (s *Service) Open(ctx context.Context, ticketID, clientID int64) ([]message.Message, error) {
	s.mu.Lock()
	previous := s.current
	s.current = ticketID
	conv := s.conversationLocked(ticketID)
	s.mu.Unlock()

	s.rooms.SwitchRoom(ticketID, clientID)
	if previous != 0 && previous != ticketID {
		s.presence.Forget(previous)
	}

	history, err := s.repo.GetMessages(ctx, ticketID)
	if err != nil {
		s.notifier.Error(err)
		return conv.thread.Messages(), fmt.Errorf("failed to load messages of ticket %d: %w", ticketID, err)
	}
	conv.thread.Replace(history)
	return conv.thread.Messages(), nil
}

// Send shows the message as PENDING at once, then posts it. A failed post
// flips that entry to ERROR.
func (s *Service) Send(ctx context.Context, in SendInput) (message.Message, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return message.Message{}, errors.NewUnauthorizedError("no active session")
	}
	if strings.TrimSpace(in.Content) == "" {
		return message.Message{}, errors.NewValidationError("message is empty")
	}

	s.mu.Lock()
	conv := s.conversationLocked(in.TicketID)
	s.mu.Unlock()

	pending := conv.thread.AddPending(message.Message{
		ClientID: in.ClientID,
		SenderID: sess.UserID(),
		Content:  in.Content,
		MType:    in.MType,
		Platform: in.Platform,
	})

	echo, err := s.repo.SendMessage(ctx, message.SendRequest{
		TicketID:  in.TicketID,
		ClientID:  in.ClientID,
		SenderID:  pending.SenderID,
		MessageID: pending.MessageID,
		Content:   pending.Content,
		MType:     pending.MType,
		Platform:  pending.Platform,
	})
	if err != nil {
		conv.thread.FailLocal(pending.LocalID, errors.UserMessage(err))
		s.notifier.Error(err)
		return s.find(conv, pending.LocalID), fmt.Errorf("failed to send message: %w", err)
	}
	if echo != nil {
		if echo.MessageID == "" {
			echo.MessageID = pending.MessageID
		}
		conv.thread.Confirm(*echo)
	}
	return s.find(conv, pending.LocalID), nil
}

func (s *Service) find(conv *conversation, localID string) message.Message {
	for _, m := range conv.thread.Messages() {
		if m.LocalID == localID {
			return m
		}
	}
	return message.Message{LocalID: localID}
}

// HandleMessage applies a pushed message to its ticket's thread when that
// ticket has been opened.
func (s *Service) HandleMessage(m message.Message) {
	conv, ok := s.lookup(m.TicketID)
	if !ok {
		return
	}
	conv.thread.Upsert(m)
}

// HandleSendError settles the pending message a failure echo refers to.
// An echo with no matching pending entry is dropped.
func (s *Service) HandleSendError(m message.Message) bool {
	conv, ok := s.lookup(m.TicketID)
	if ok {
		// The echo may carry the system sender instead of the author.
		senders := []int64{m.SenderID}
		if sess := s.sessions.Current(); sess != nil && sess.UserID() != m.SenderID {
			senders = append(senders, sess.UserID())
		}
		for _, sender := range senders {
			if conv.thread.Fail(m.MessageID, sender, m.Content) {
				s.notifier.Warn(m.Content)
				return true
			}
		}
	}
	s.logger.Warnw("send failure without pending message dropped",
		"ticket_id", m.TicketID,
		"message_id", m.MessageID,
	)
	return false
}

func (s *Service) HandleSeen(ticketID int64) {
	if conv, ok := s.lookup(ticketID); ok {
		conv.thread.MarkSeen()
	}
}

func (s *Service) HandleDeleted(ticketID, messageID int64) {
	if ticketID != 0 {
		if conv, ok := s.lookup(ticketID); ok {
			conv.thread.Delete(messageID)
		}
		return
	}
	s.mu.Lock()
	convs := make([]*conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		convs = append(convs, c)
	}
	s.mu.Unlock()
	for _, c := range convs {
		if c.thread.Delete(messageID) {
			return
		}
	}
}

// AddLiveLog records an audit entry pushed while the ticket is open.
func (s *Service) AddLiveLog(l message.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[l.TicketID]; ok {
		conv.liveLogs = append(conv.liveLogs, l)
	}
}

// AddLiveNote records a note pushed while the ticket is open.
func (s *Service) AddLiveNote(n message.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[n.TicketID]; ok {
		conv.liveNotes = append(conv.liveNotes, n)
	}
}

// Messages returns the thread of an opened ticket.
func (s *Service) Messages(ticketID int64) ([]message.Message, bool) {
	conv, ok := s.lookup(ticketID)
	if !ok {
		return nil, false
	}
	return conv.thread.Messages(), true
}

// Timeline merges the REST history with live entries and the thread into
// display blocks.
func (s *Service) Timeline(ctx context.Context, ticketID int64) ([]TimelineBlock, error) {
	history, err := s.repo.GetTimeline(ctx, ticketID)
	if err != nil {
		s.notifier.Error(err)
		return nil, fmt.Errorf("failed to load timeline of ticket %d: %w", ticketID, err)
	}
	if history == nil {
		history = &message.History{}
	}

	var (
		messages  []message.Message
		liveLogs  []message.Log
		liveNotes []message.Note
	)
	s.mu.Lock()
	if conv, ok := s.conversations[ticketID]; ok {
		liveLogs = append(liveLogs, conv.liveLogs...)
		liveNotes = append(liveNotes, conv.liveNotes...)
		messages = conv.thread.Messages()
	}
	s.mu.Unlock()

	if messages == nil {
		if messages, err = s.repo.GetMessages(ctx, ticketID); err != nil {
			s.notifier.Error(err)
			return nil, fmt.Errorf("failed to load messages of ticket %d: %w", ticketID, err)
		}
	}

	blocks := message.Group(
		messages,
		message.MergeLogs(history.Logs, liveLogs),
		message.MergeNotes(history.Notes, liveNotes),
	)
	out := make([]TimelineBlock, len(blocks))
	for i, b := range blocks {
		out[i] = TimelineBlock{Block: b}
		if b.Note == nil {
			continue
		}
		rendered, err := s.renderer.Render(b.Note.Value)
		if err != nil {
			s.logger.Warnw("failed to render note", "note_id", b.Note.ID, "error", err)
			rendered = s.renderer.PlainText(b.Note.Value)
		}
		out[i].NoteHTML = rendered
	}
	return out, nil
}

func (s *Service) lookup(ticketID int64) (*conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[ticketID]
	return conv, ok
}

func (s *Service) conversationLocked(ticketID int64) *conversation {
	conv, ok := s.conversations[ticketID]
	if !ok {
		conv = &conversation{thread: message.NewThread(ticketID)}
		s.conversations[ticketID] = conv
	}
	return conv
}

func (s *Service) forget(ticketID int64) {
	s.mu.Lock()
	delete(s.conversations, ticketID)
	if s.current == ticketID {
		s.current = 0
	}
	s.mu.Unlock()
	s.presence.Forget(ticketID)
}
