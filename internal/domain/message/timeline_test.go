package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/domain/ticket"
)

func at(minute int) ticket.Timestamp {
	return ticket.Timestamp{Time: time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)}
}

func TestMergeNotes(t *testing.T) {
	history := []Note{
		{TicketID: 1, TechnicianID: 5, Type: "text", Value: "sună mâine", CreatedAt: at(5)},
		{TicketID: 1, TechnicianID: 5, Type: "text", Value: "prima", CreatedAt: at(1)},
	}
	live := []Note{
		{ID: 44, TicketID: 1, TechnicianID: 5, Type: "text", Value: "sună mâine", CreatedAt: at(5)},
		{TicketID: 1, TechnicianID: 5, Type: "text", Value: "nouă", CreatedAt: at(9)},
	}

	merged := MergeNotes(history, live)
	require.Len(t, merged, 3)
	assert.Equal(t, "prima", merged[0].Value)
	assert.Equal(t, int64(44), merged[1].ID, "live copy replaces the historical one")
	assert.Equal(t, "nouă", merged[2].Value)
}

func TestMergeLogs(t *testing.T) {
	history := []Log{{ID: 1, Subject: "workflow", Timestamp: at(3)}, {Subject: "tag", Timestamp: at(1)}}
	live := []Log{{ID: 1, Subject: "workflow", Timestamp: at(3)}, {Subject: "tag", Timestamp: at(1)}, {Subject: "tag", Timestamp: at(2)}}

	merged := MergeLogs(history, live)
	require.Len(t, merged, 3)
	assert.Equal(t, at(1), merged[0].Timestamp)
	assert.Equal(t, at(3), merged[2].Timestamp)
}

func TestGroup(t *testing.T) {
	messages := []Message{
		{ID: 1, TimeSent: at(1)},
		{ID: 2, TimeSent: at(2)},
		{ID: 3, TimeSent: at(8)},
	}
	logs := []Log{{ID: 10, Timestamp: at(3)}, {ID: 11, Timestamp: at(4)}}
	notes := []Note{{Value: "a", CreatedAt: at(5)}, {Value: "b", CreatedAt: at(6)}}

	blocks := Group(messages, logs, notes)
	require.Len(t, blocks, 5)

	assert.Equal(t, BlockDialog, blocks[0].Kind)
	assert.Len(t, blocks[0].Messages, 2)
	assert.Equal(t, BlockLogs, blocks[1].Kind)
	assert.Len(t, blocks[1].Logs, 2)
	assert.Equal(t, BlockNote, blocks[2].Kind)
	assert.Equal(t, "a", blocks[2].Note.Value)
	assert.Equal(t, BlockNote, blocks[3].Kind)
	assert.Equal(t, BlockDialog, blocks[4].Kind)
	assert.Len(t, blocks[4].Messages, 1)
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, Group(nil, nil, nil))
}
