package syncbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/domain/message"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/shared/logger"
)

func TestBus_DeliversInOrder(t *testing.T) {
	bus := New(logger.NewNopLogger())
	var got []string

	bus.OnTicketUpdated(func(e TicketUpdated) { got = append(got, "first") })
	bus.OnTicketUpdated(func(e TicketUpdated) { got = append(got, "second") })
	bus.OnMessagesSeen(func(e MessagesSeen) { got = append(got, "seen") })

	bus.Emit(TicketUpdated{TicketID: 1, Ticket: &ticket.Ticket{ID: 1}})
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBus_PanickingSubscriberIsolated(t *testing.T) {
	bus := New(logger.NewNopLogger())
	delivered := 0

	bus.OnMessageDeleted(func(MessageDeleted) { panic("boom") })
	bus.OnMessageDeleted(func(MessageDeleted) { delivered++ })

	assert.NotPanics(t, func() { bus.Emit(MessageDeleted{MessageID: 4}) })
	assert.Equal(t, 1, delivered)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New(logger.NewNopLogger())
	calls := 0

	unsubscribe := bus.OnTicketsMerged(func(TicketsMerged) { calls++ })
	bus.Emit(TicketsMerged{DeletedTicketIDs: []int64{2}, TargetTicketID: 1})
	unsubscribe()
	unsubscribe()
	bus.Emit(TicketsMerged{DeletedTicketIDs: []int64{3}, TargetTicketID: 1})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscriberCount(TypeTicketsMerged))
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := New(logger.NewNopLogger())
	var types []EventType

	stop := bus.SubscribeAll(func(e Event) { types = append(types, e.EventType()) })
	bus.Emit(MessageReceived{Message: message.Message{ID: 1}})
	bus.Emit(MessagesSeen{TicketID: 1})
	stop()
	bus.Emit(MessagesSeen{TicketID: 1})

	assert.Equal(t, []EventType{TypeMessageReceived, TypeMessagesSeen}, types)
}

func TestBus_UnsubscribeDuringEmit(t *testing.T) {
	bus := New(logger.NewNopLogger())
	calls := 0
	var unsubscribe func()
	unsubscribe = bus.OnMessagesSeen(func(MessagesSeen) {
		calls++
		unsubscribe()
	})

	bus.Emit(MessagesSeen{TicketID: 1})
	bus.Emit(MessagesSeen{TicketID: 1})
	assert.Equal(t, 1, calls)
}

func TestMarshalUnmarshal(t *testing.T) {
	in := WithOrigin(TicketsMerged{DeletedTicketIDs: []int64{5, 6}, TargetTicketID: 9}, "instance-a")

	data, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "instance-a", out.Origin())

	_, err = Unmarshal([]byte(`{"type":"NOPE","payload":{}}`))
	assert.Error(t, err)
}
