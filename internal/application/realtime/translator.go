// Package realtime turns socket frames into sync bus events, targeted
// refetches and chat updates. The bus itself never sees raw frames.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"leadsync/internal/application/chat"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/message"
	"leadsync/internal/infrastructure/metrics"
	"leadsync/internal/shared/goroutine"
	"leadsync/internal/shared/logger"
)

// Frame types pushed by the server.
const (
	FrameMessage       = "message"
	FrameSeen          = "seen"
	FrameDelete        = "delete"
	FrameTicket        = "ticket"
	FrameTicketUpdate  = "ticket_update"
	FrameTicketsMerged = "tickets_merged"
	FrameTicketLog     = "ticket_log"
	FrameTicketNote    = "ticket_note"
	FrameClients       = "ticket_clients"
	FrameClientJoined  = "ticket_client_joined"
	FrameClientLeft    = "ticket_client_left"
)

const fetchQueueSize = 256

// FrameSource is the socket as the translator sees it.
type FrameSource interface {
	On(frameType string, fn func(data json.RawMessage)) func()
	OnOpen(fn func()) func()
}

// TicketFetcher refetches tickets named by push frames.
type TicketFetcher interface {
	FetchTickets(ctx context.Context, ids []int64) error
	Refresh(ctx context.Context) error
}

// ChatSink receives what only the open conversation cares about.
type ChatSink interface {
	HandleSendError(m message.Message) bool
	AddLiveLog(l message.Log)
	AddLiveNote(n message.Note)
	Presence() *chat.Presence
}

type ticketRef struct {
	TicketID  int64   `json:"ticket_id"`
	TicketIDs []int64 `json:"ticket_ids"`
}

func (r ticketRef) ids() []int64 {
	ids := make([]int64, 0, len(r.TicketIDs)+1)
	if r.TicketID != 0 {
		ids = append(ids, r.TicketID)
	}
	for _, id := range r.TicketIDs {
		if id != 0 && id != r.TicketID {
			ids = append(ids, id)
		}
	}
	return ids
}

type seenFrame struct {
	TicketID int64 `json:"ticket_id"`
	ClientID int64 `json:"client_id"`
}

type deleteFrame struct {
	MessageID int64 `json:"message_id"`
	TicketID  int64 `json:"ticket_id"`
}

type mergedFrame struct {
	DeletedTicketIDs []int64 `json:"deleted_ticket_ids"`
	TargetTicketID   int64   `json:"target_ticket_id"`
}

type clientsFrame struct {
	TicketID int64   `json:"ticket_id"`
	Clients  []int64 `json:"clients"`
}

type clientFrame struct {
	TicketID int64 `json:"ticket_id"`
	ClientID int64 `json:"client_id"`
	UserID   int64 `json:"user_id"`
}

func (f clientFrame) id() int64 {
	if f.ClientID != 0 {
		return f.ClientID
	}
	return f.UserID
}

type Translator struct {
	source  FrameSource
	bus     *syncbus.Bus
	fetcher TicketFetcher
	chat    ChatSink
	metrics *metrics.Metrics
	logger  logger.Interface

	fetches chan []int64
	opened  atomic.Bool

	mu            sync.Mutex
	unsubscribers []func()
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewTranslator(source FrameSource, bus *syncbus.Bus, fetcher TicketFetcher, sink ChatSink, m *metrics.Metrics, log logger.Interface) *Translator {
	return &Translator{
		source:  source,
		bus:     bus,
		fetcher: fetcher,
		chat:    sink,
		metrics: m,
		logger:  log.Named("realtime"),
		fetches: make(chan []int64, fetchQueueSize),
	}
}

// Start registers every frame handler and the fetch worker. Call Close to
// release them.
func (t *Translator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.cancel = cancel
	t.done = done
	t.unsubscribers = []func(){
		t.source.On(FrameMessage, t.onMessage),
		t.source.On(FrameSeen, t.onSeen),
		t.source.On(FrameDelete, t.onDelete),
		t.source.On(FrameTicket, func(data json.RawMessage) { t.onTicket(FrameTicket, data) }),
		t.source.On(FrameTicketUpdate, func(data json.RawMessage) { t.onTicket(FrameTicketUpdate, data) }),
		t.source.On(FrameTicketsMerged, t.onMerged),
		t.source.On(FrameTicketLog, t.onLog),
		t.source.On(FrameTicketNote, t.onNote),
		t.source.On(FrameClients, t.onClients),
		t.source.On(FrameClientJoined, t.onJoined),
		t.source.On(FrameClientLeft, t.onLeft),
		t.source.OnOpen(func() { t.onOpen(ctx) }),
	}
	t.mu.Unlock()

	goroutine.SafeGo(t.logger, "realtime-fetch-worker", func() {
		defer close(done)
		t.runFetches(ctx)
	})
}

// Close unsubscribes every handler and stops the fetch worker.
func (t *Translator) Close() {
	t.mu.Lock()
	unsubscribers := t.unsubscribers
	t.unsubscribers = nil
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	for _, u := range unsubscribers {
		u()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

// runFetches refetches in receipt order, one batch at a time.
func (t *Translator) runFetches(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ids := <-t.fetches:
			if err := t.fetcher.FetchTickets(ctx, ids); err != nil {
				t.logger.Warnw("ticket refetch failed", "ticket_ids", ids, "error", err)
			}
		}
	}
}

func (t *Translator) enqueueFetch(ids []int64) {
	if len(ids) == 0 {
		return
	}
	select {
	case t.fetches <- ids:
	default:
		t.logger.Warnw("fetch queue full, refetch dropped", "ticket_ids", ids)
	}
}

func (t *Translator) emit(e syncbus.Event) {
	t.metrics.BusEvent(string(e.EventType()))
	t.bus.Emit(syncbus.WithOrigin(e, syncbus.OriginSocket))
}

func decode[T any](t *Translator, frameType string, data json.RawMessage) (T, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.logger.Warnw("malformed frame ignored", "type", frameType, "error", err)
		return v, false
	}
	return v, true
}

func (t *Translator) onOpen(ctx context.Context) {
	if !t.opened.Swap(true) {
		return
	}
	// Pushes missed while disconnected are recovered by reloading.
	goroutine.SafeGo(t.logger, "realtime-refresh", func() {
		if err := t.fetcher.Refresh(ctx); err != nil {
			t.logger.Warnw("refresh after reconnect failed", "error", err)
		}
	})
}

func (t *Translator) onMessage(data json.RawMessage) {
	m, ok := decode[message.Message](t, FrameMessage, data)
	if !ok || m.TicketID == 0 {
		return
	}
	if _, failed := message.UnwrapError(m.Content); failed {
		t.chat.HandleSendError(m)
		return
	}
	t.emit(syncbus.MessageReceived{Message: m})
}

func (t *Translator) onSeen(data json.RawMessage) {
	f, ok := decode[seenFrame](t, FrameSeen, data)
	if !ok || f.TicketID == 0 {
		return
	}
	t.emit(syncbus.MessagesSeen{TicketID: f.TicketID, ClientID: f.ClientID})
}

func (t *Translator) onDelete(data json.RawMessage) {
	f, ok := decode[deleteFrame](t, FrameDelete, data)
	if !ok || f.MessageID == 0 {
		return
	}
	t.emit(syncbus.MessageDeleted{MessageID: f.MessageID, TicketID: f.TicketID})
}

func (t *Translator) onTicket(frameType string, data json.RawMessage) {
	ref, ok := decode[ticketRef](t, frameType, data)
	if !ok {
		return
	}
	t.enqueueFetch(ref.ids())
}

func (t *Translator) onMerged(data json.RawMessage) {
	f, ok := decode[mergedFrame](t, FrameTicketsMerged, data)
	if !ok || len(f.DeletedTicketIDs) == 0 {
		return
	}
	t.emit(syncbus.TicketsMerged{DeletedTicketIDs: f.DeletedTicketIDs, TargetTicketID: f.TargetTicketID})
	if f.TargetTicketID != 0 {
		t.enqueueFetch([]int64{f.TargetTicketID})
	}
}

func (t *Translator) onLog(data json.RawMessage) {
	if l, ok := decode[message.Log](t, FrameTicketLog, data); ok && l.TicketID != 0 {
		t.chat.AddLiveLog(l)
	}
}

func (t *Translator) onNote(data json.RawMessage) {
	if n, ok := decode[message.Note](t, FrameTicketNote, data); ok && n.TicketID != 0 {
		t.chat.AddLiveNote(n)
	}
}

func (t *Translator) onClients(data json.RawMessage) {
	if f, ok := decode[clientsFrame](t, FrameClients, data); ok && f.TicketID != 0 {
		t.chat.Presence().Init(f.TicketID, f.Clients)
	}
}

func (t *Translator) onJoined(data json.RawMessage) {
	if f, ok := decode[clientFrame](t, FrameClientJoined, data); ok && f.TicketID != 0 && f.id() != 0 {
		t.chat.Presence().Join(f.TicketID, f.id())
	}
}

func (t *Translator) onLeft(data json.RawMessage) {
	if f, ok := decode[clientFrame](t, FrameClientLeft, data); ok && f.TicketID != 0 && f.id() != 0 {
		t.chat.Presence().Leave(f.TicketID, f.id())
	}
}
