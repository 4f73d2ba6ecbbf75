package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/application/session"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/message"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/domain/user"
	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
	"leadsync/internal/shared/services/markdown"
)

type mockMessageRepo struct {
	sendFunc     func(ctx context.Context, req message.SendRequest) (*message.Message, error)
	messagesFunc func(ctx context.Context, ticketID int64) ([]message.Message, error)
	timelineFunc func(ctx context.Context, ticketID int64) (*message.History, error)
}

func (m *mockMessageRepo) SendMessage(ctx context.Context, req message.SendRequest) (*message.Message, error) {
	return m.sendFunc(ctx, req)
}

func (m *mockMessageRepo) GetMessages(ctx context.Context, ticketID int64) ([]message.Message, error) {
	if m.messagesFunc == nil {
		return nil, nil
	}
	return m.messagesFunc(ctx, ticketID)
}

func (m *mockMessageRepo) GetTimeline(ctx context.Context, ticketID int64) (*message.History, error) {
	if m.timelineFunc == nil {
		return &message.History{}, nil
	}
	return m.timelineFunc(ctx, ticketID)
}

type recordingRooms struct {
	mu    sync.Mutex
	calls [][2]int64
}

func (r *recordingRooms) SwitchRoom(ticketID, clientID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]int64{ticketID, clientID})
}

type fixture struct {
	svc      *Service
	repo     *mockMessageRepo
	rooms    *recordingRooms
	notifier *notify.Recorder
}

func newFixture() *fixture {
	log := logger.NewNopLogger()
	holder := session.NewHolder(session.New(&user.Profile{ID: 7}, nil, nil))
	repo := &mockMessageRepo{}
	rooms := &recordingRooms{}
	notifier := notify.NewRecorder(log, 10)
	svc := NewService(repo, rooms, holder, NewPresence(), markdown.NewRenderer(), notifier, log)
	return &fixture{svc: svc, repo: repo, rooms: rooms, notifier: notifier}
}

func at(minute int) ticket.Timestamp {
	return ticket.Timestamp{Time: time.Date(2026, 5, 1, 10, minute, 0, 0, time.UTC)}
}

func TestService_SendIsPendingUntilConfirmed(t *testing.T) {
	f := newFixture()
	var seenDuringSend []message.Message
	f.repo.sendFunc = func(_ context.Context, req message.SendRequest) (*message.Message, error) {
		seenDuringSend, _ = f.svc.Messages(req.TicketID)
		assert.Equal(t, int64(7), req.SenderID)
		assert.NotEmpty(t, req.MessageID)
		return &message.Message{ID: 500, TicketID: req.TicketID, SenderID: 7, Content: req.Content, TimeSent: at(1)}, nil
	}

	sent, err := f.svc.Send(context.Background(), SendInput{TicketID: 3, ClientID: 40, Content: "Bună ziua"})
	require.NoError(t, err)

	require.Len(t, seenDuringSend, 1)
	assert.Equal(t, message.StatusPending, seenDuringSend[0].Status)
	assert.Equal(t, message.StatusSuccess, sent.Status)
	assert.Equal(t, int64(500), sent.ID)

	f.svc.HandleMessage(message.Message{ID: 500, MessageID: sent.MessageID, TicketID: 3, SenderID: 7, Content: "Bună ziua", TimeSent: at(1)})
	msgs, _ := f.svc.Messages(3)
	assert.Len(t, msgs, 1, "echo must not duplicate")
}

func TestService_SocketEchoSettlesPending(t *testing.T) {
	f := newFixture()
	f.repo.sendFunc = func(_ context.Context, req message.SendRequest) (*message.Message, error) {
		return nil, nil
	}
	sent, err := f.svc.Send(context.Background(), SendInput{TicketID: 3, Content: "Salut, revin cu oferta"})
	require.NoError(t, err)
	require.Equal(t, message.StatusPending, sent.Status)

	f.svc.HandleMessage(message.Message{ID: 9, TicketID: 3, SenderID: 7, Content: "salut,  revin cu oferta", TimeSent: at(2)})

	msgs, _ := f.svc.Messages(3)
	require.Len(t, msgs, 1)
	assert.Equal(t, message.StatusSuccess, msgs[0].Status)
	assert.Equal(t, int64(9), msgs[0].ID)
}

func TestService_SendRequestFails(t *testing.T) {
	f := newFixture()
	f.repo.sendFunc = func(context.Context, message.SendRequest) (*message.Message, error) {
		return nil, errors.NewRequestError(422, "Request failed", "Clientul a blocat mesajele")
	}

	sent, err := f.svc.Send(context.Background(), SendInput{TicketID: 3, Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, message.StatusError, sent.Status)
	assert.Equal(t, "Clientul a blocat mesajele", sent.Error)
	require.Len(t, f.notifier.Recent(), 1)
}

func TestService_SendValidation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Send(context.Background(), SendInput{TicketID: 3, Content: "   "})
	assert.True(t, errors.IsValidationError(err))
}

func TestService_FailureEcho(t *testing.T) {
	f := newFixture()
	f.repo.sendFunc = func(context.Context, message.SendRequest) (*message.Message, error) { return nil, nil }
	_, err := f.svc.Send(context.Background(), SendInput{TicketID: 3, Content: "original text"})
	require.NoError(t, err)

	echo := message.Message{TicketID: 3, SenderID: message.SenderSystem, Content: message.ErrorPrefix + "original text"}
	assert.True(t, f.svc.HandleSendError(echo))

	msgs, _ := f.svc.Messages(3)
	require.Len(t, msgs, 1)
	assert.Equal(t, message.StatusError, msgs[0].Status)
	assert.Equal(t, message.ErrorPrefix+"original text", msgs[0].Error)

	assert.False(t, f.svc.HandleSendError(echo), "no pending entry left")
	assert.False(t, f.svc.HandleSendError(message.Message{TicketID: 99, Content: message.ErrorPrefix + "x"}))
	msgs, _ = f.svc.Messages(3)
	assert.Len(t, msgs, 1, "unmatched failures never create entries")
}

func TestService_OpenSwitchesRoomAndKeepsPending(t *testing.T) {
	f := newFixture()
	f.repo.sendFunc = func(context.Context, message.SendRequest) (*message.Message, error) { return nil, nil }
	_, err := f.svc.Send(context.Background(), SendInput{TicketID: 3, Content: "still sending"})
	require.NoError(t, err)

	f.repo.messagesFunc = func(_ context.Context, ticketID int64) ([]message.Message, error) {
		return []message.Message{{ID: 1, TicketID: ticketID, SenderID: 0, Content: "hi", TimeSent: at(0)}}, nil
	}
	f.svc.Presence().Init(2, []int64{40})

	msgs, err := f.svc.Open(context.Background(), 2, 40)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	msgs, err = f.svc.Open(context.Background(), 3, 41)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, message.StatusPending, msgs[1].Status)

	assert.Equal(t, [][2]int64{{2, 40}, {3, 41}}, f.rooms.calls)
	assert.Equal(t, int64(3), f.svc.Current())
	assert.Empty(t, f.svc.Presence().Participants(2), "left room forgotten")
}

func TestService_BusEvents(t *testing.T) {
	f := newFixture()
	f.repo.messagesFunc = func(_ context.Context, ticketID int64) ([]message.Message, error) {
		return []message.Message{
			{ID: 1, TicketID: ticketID, SenderID: 7, Content: "a", TimeSent: at(0)},
			{ID: 2, TicketID: ticketID, SenderID: 7, Content: "b", TimeSent: at(1)},
		}, nil
	}
	_, err := f.svc.Open(context.Background(), 3, 40)
	require.NoError(t, err)

	bus := syncbus.New(logger.NewNopLogger())
	unbind := f.svc.Bind(bus)
	defer unbind()

	bus.Emit(syncbus.MessageReceived{Message: message.Message{ID: 3, TicketID: 3, SenderID: 0, Content: "c", TimeSent: at(2)}})
	bus.Emit(syncbus.MessagesSeen{TicketID: 3})
	bus.Emit(syncbus.MessageDeleted{MessageID: 1})

	msgs, _ := f.svc.Messages(3)
	require.Len(t, msgs, 2)
	assert.Equal(t, message.StatusSeen, msgs[0].Status)
	assert.Equal(t, int64(3), msgs[1].ID)

	bus.Emit(syncbus.TicketsMerged{DeletedTicketIDs: []int64{3}, TargetTicketID: 4})
	_, ok := f.svc.Messages(3)
	assert.False(t, ok)
	assert.Zero(t, f.svc.Current())
}

func TestService_CallRecordsOverwrite(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Open(context.Background(), 3, 40)
	require.NoError(t, err)

	f.svc.HandleMessage(message.Message{ID: 10, TicketID: 3, SenderID: 0, MType: message.TypeCall, TimeSent: at(0)})
	f.svc.HandleMessage(message.Message{ID: 10, TicketID: 3, SenderID: 7, MType: message.TypeCall, URL: "https://rec/10.mp3", TimeSent: at(0)})

	msgs, _ := f.svc.Messages(3)
	require.Len(t, msgs, 1)
	assert.Equal(t, "https://rec/10.mp3", msgs[0].URL)
}

func TestService_Timeline(t *testing.T) {
	f := newFixture()
	f.repo.messagesFunc = func(_ context.Context, ticketID int64) ([]message.Message, error) {
		return []message.Message{
			{ID: 1, TicketID: ticketID, Content: "a", TimeSent: at(0)},
			{ID: 2, TicketID: ticketID, Content: "b", TimeSent: at(1)},
			{ID: 3, TicketID: ticketID, Content: "c", TimeSent: at(6)},
		}, nil
	}
	f.repo.timelineFunc = func(_ context.Context, ticketID int64) (*message.History, error) {
		return &message.History{
			Logs:  []message.Log{{ID: 1, TicketID: ticketID, Subject: "workflow", Timestamp: at(2)}},
			Notes: []message.Note{{TicketID: ticketID, TechnicianID: 7, Type: "text", Value: "**urgent**", CreatedAt: at(5)}},
		}, nil
	}
	_, err := f.svc.Open(context.Background(), 3, 40)
	require.NoError(t, err)

	f.svc.AddLiveLog(message.Log{ID: 1, TicketID: 3, Subject: "workflow", Timestamp: at(2)})
	f.svc.AddLiveLog(message.Log{TicketID: 3, Subject: "priority", Timestamp: at(3)})

	blocks, err := f.svc.Timeline(context.Background(), 3)
	require.NoError(t, err)

	kinds := make([]message.BlockKind, len(blocks))
	for i, b := range blocks {
		kinds[i] = b.Kind
	}
	assert.Equal(t, []message.BlockKind{message.BlockDialog, message.BlockLogs, message.BlockNote, message.BlockDialog}, kinds)
	assert.Len(t, blocks[0].Messages, 2)
	assert.Len(t, blocks[1].Logs, 2, "live duplicate merged by id")
	assert.Contains(t, blocks[2].NoteHTML, "<strong>urgent</strong>")
}

func TestPresence(t *testing.T) {
	p := NewPresence()
	p.Init(1, []int64{5, 3})
	p.Join(1, 4)
	p.Join(2, 9)
	p.Leave(1, 5)
	p.Leave(2, 9)
	p.Leave(8, 1)

	assert.Equal(t, []int64{3, 4}, p.Participants(1))
	assert.Empty(t, p.Participants(2))
}
