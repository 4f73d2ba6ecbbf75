package message

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"leadsync/internal/domain/ticket"
)

// Note is a free-text remark a technician left on a ticket.
type Note struct {
	ID           int64            `json:"id,omitempty"`
	TicketID     int64            `json:"ticket_id"`
	TechnicianID int64            `json:"technician_id"`
	Type         string           `json:"type"`
	Value        string           `json:"value"`
	CreatedAt    ticket.Timestamp `json:"created_at"`
}

// Key is the natural key notes are de-duplicated by.
func (n Note) Key() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s", n.TicketID, n.TechnicianID, n.Type, n.Value, n.CreatedAt.UTC().Format(time.RFC3339))
}

// Log is an audit entry such as a workflow change.
type Log struct {
	ID        int64            `json:"id,omitempty"`
	TicketID  int64            `json:"ticket_id"`
	Subject   string           `json:"subject"`
	Action    string           `json:"action,omitempty"`
	By        int64            `json:"by,omitempty"`
	Timestamp ticket.Timestamp `json:"timestamp"`
}

// Key uses the server id when there is one, else timestamp and subject.
func (l Log) Key() string {
	if l.ID != 0 {
		return "id:" + strconv.FormatInt(l.ID, 10)
	}
	return l.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + l.Subject
}

// MergeNotes combines REST history with live notes, de-duplicated and
// sorted ascending by creation time.
func MergeNotes(history, live []Note) []Note {
	return mergeByKey(history, live, Note.Key, func(n Note) time.Time { return n.CreatedAt.Time })
}

// MergeLogs combines REST history with live logs, de-duplicated and sorted
// ascending by timestamp.
func MergeLogs(history, live []Log) []Log {
	return mergeByKey(history, live, Log.Key, func(l Log) time.Time { return l.Timestamp.Time })
}

// mergeByKey lets live entries replace historical ones with the same key.
func mergeByKey[T any](history, live []T, key func(T) string, at func(T) time.Time) []T {
	index := make(map[string]int, len(history)+len(live))
	out := make([]T, 0, len(history)+len(live))
	for _, batch := range [][]T{history, live} {
		for _, item := range batch {
			k := key(item)
			if i, ok := index[k]; ok {
				out[i] = item
				continue
			}
			index[k] = len(out)
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return at(out[i]).Before(at(out[j])) })
	return out
}

// BlockKind is the display grouping of timeline entries.
type BlockKind string

const (
	BlockDialog BlockKind = "dialog"
	BlockLogs   BlockKind = "logs"
	BlockNote   BlockKind = "note"
)

// Block is one contiguous run of timeline entries of the same kind.
// Notes always stand alone.
type Block struct {
	Kind     BlockKind `json:"kind"`
	Messages []Message `json:"messages,omitempty"`
	Logs     []Log     `json:"logs,omitempty"`
	Note     *Note     `json:"note,omitempty"`
}

type entry struct {
	at   time.Time
	kind BlockKind
	msg  *Message
	log  *Log
	note *Note
}

// Group orders messages, logs and notes by time and folds them into blocks:
// consecutive messages form a dialog, consecutive logs a cluster, each note
// its own block. A change of kind always closes the current block.
func Group(messages []Message, logs []Log, notes []Note) []Block {
	entries := make([]entry, 0, len(messages)+len(logs)+len(notes))
	for i := range messages {
		entries = append(entries, entry{at: messages[i].TimeSent.Time, kind: BlockDialog, msg: &messages[i]})
	}
	for i := range logs {
		entries = append(entries, entry{at: logs[i].Timestamp.Time, kind: BlockLogs, log: &logs[i]})
	}
	for i := range notes {
		entries = append(entries, entry{at: notes[i].CreatedAt.Time, kind: BlockNote, note: &notes[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	var blocks []Block
	for _, e := range entries {
		last := len(blocks) - 1
		switch e.kind {
		case BlockNote:
			n := *e.note
			blocks = append(blocks, Block{Kind: BlockNote, Note: &n})
		case BlockDialog:
			if last >= 0 && blocks[last].Kind == BlockDialog {
				blocks[last].Messages = append(blocks[last].Messages, *e.msg)
				continue
			}
			blocks = append(blocks, Block{Kind: BlockDialog, Messages: []Message{*e.msg}})
		case BlockLogs:
			if last >= 0 && blocks[last].Kind == BlockLogs {
				blocks[last].Logs = append(blocks[last].Logs, *e.log)
				continue
			}
			blocks = append(blocks, Block{Kind: BlockLogs, Logs: []Log{*e.log}})
		}
	}
	return blocks
}
