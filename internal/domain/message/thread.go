package message

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadsync/internal/domain/ticket"
)

// Thread is the message list of one ticket. Every mutation locates entries
// by identity, never by position.
type Thread struct {
	mu       sync.Mutex
	ticketID int64
	messages []Message
}

func NewThread(ticketID int64) *Thread {
	return &Thread{ticketID: ticketID}
}

func (th *Thread) TicketID() int64 {
	return th.ticketID
}

// AddPending inserts a locally sent message with status PENDING and returns
// it. A message id is generated when the caller did not set one, so the
// server echo can be matched exactly.
func (th *Thread) AddPending(m Message) Message {
	th.mu.Lock()
	defer th.mu.Unlock()

	m.TicketID = th.ticketID
	m.LocalID = uuid.NewString()
	if m.MessageID == "" {
		m.MessageID = m.LocalID
	}
	if m.TimeSent.IsZero() {
		m.TimeSent = ticket.Timestamp{Time: time.Now().UTC()}
	}
	m.Status = StatusPending
	m.Error = ""
	th.messages = append(th.messages, m)
	return m
}

// Confirm flips the matching pending entry to SUCCESS, taking the server's
// identity and time. It reports whether a pending entry was found.
func (th *Thread) Confirm(echo Message) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	idx := th.findPending(echo.MessageID, echo.SenderID, echo.Content)
	if idx < 0 {
		return false
	}
	th.confirmAt(idx, echo)
	return true
}

func (th *Thread) confirmAt(idx int, echo Message) {
	m := &th.messages[idx]
	if echo.ID != 0 {
		m.ID = echo.ID
	}
	if echo.MessageID != "" {
		m.MessageID = echo.MessageID
	}
	if !echo.TimeSent.IsZero() {
		m.TimeSent = echo.TimeSent
	}
	if echo.URL != "" {
		m.URL = echo.URL
	}
	m.Status = StatusSuccess
	m.Error = ""
}

// Fail flips the matching pending entry to ERROR. errText may be the
// prefixed failure echo; it is unwrapped to find the entry and kept whole
// as the error. Unmatched failures report false and change nothing.
func (th *Thread) Fail(messageID string, senderID int64, errText string) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	original, _ := UnwrapError(errText)
	idx := th.findPending(messageID, senderID, original)
	if idx < 0 {
		return false
	}
	th.messages[idx].Status = StatusError
	th.messages[idx].Error = errText
	return true
}

// FailLocal marks the pending entry created under localID as failed. Used
// when the send request itself errors.
func (th *Thread) FailLocal(localID, errText string) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	for i := range th.messages {
		m := &th.messages[i]
		if m.LocalID == localID && m.Status == StatusPending {
			m.Status = StatusError
			m.Error = errText
			return true
		}
	}
	return false
}

// Upsert applies a server message. Call records overwrite the entry with
// the same identity whoever sent them; other messages first settle a
// matching pending entry, then update by identity, then append.
func (th *Thread) Upsert(m Message) {
	th.mu.Lock()
	defer th.mu.Unlock()

	if m.Status == "" {
		m.Status = StatusSuccess
	}

	if idx := th.findByIdentity(&m); idx >= 0 {
		if m.IsCall() {
			m.LocalID = th.messages[idx].LocalID
			th.messages[idx] = m
			return
		}
		if th.messages[idx].Status == StatusPending {
			th.confirmAt(idx, m)
			return
		}
		m.LocalID = th.messages[idx].LocalID
		th.messages[idx] = m
		return
	}

	if !m.IsCall() {
		if idx := th.findPending("", m.SenderID, m.Content); idx >= 0 {
			th.confirmAt(idx, m)
			return
		}
	}
	th.messages = append(th.messages, m)
}

// MarkSeen moves delivered messages to SEEN.
func (th *Thread) MarkSeen() int {
	th.mu.Lock()
	defer th.mu.Unlock()

	n := 0
	for i := range th.messages {
		if th.messages[i].Status == StatusSuccess {
			th.messages[i].Status = StatusSeen
			n++
		}
	}
	return n
}

// Delete removes the message with the given server id.
func (th *Thread) Delete(id int64) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	idx := slices.IndexFunc(th.messages, func(m Message) bool { return m.ID == id })
	if idx < 0 {
		return false
	}
	th.messages = slices.Delete(th.messages, idx, idx+1)
	return true
}

// Replace swaps in a freshly loaded history, keeping entries still pending
// locally.
func (th *Thread) Replace(history []Message) {
	th.mu.Lock()
	defer th.mu.Unlock()

	merged := make([]Message, 0, len(history)+len(th.messages))
	for _, m := range history {
		if m.Status == "" {
			m.Status = StatusSuccess
		}
		merged = append(merged, m)
	}
	for _, m := range th.messages {
		if m.Status != StatusPending {
			continue
		}
		if slices.ContainsFunc(history, func(h Message) bool { return m.sameIdentity(&h) }) {
			continue
		}
		merged = append(merged, m)
	}
	th.messages = merged
}

// Messages returns a copy of the list in display order.
func (th *Thread) Messages() []Message {
	th.mu.Lock()
	defer th.mu.Unlock()
	return slices.Clone(th.messages)
}

func (th *Thread) Len() int {
	th.mu.Lock()
	defer th.mu.Unlock()
	return len(th.messages)
}

// findPending prefers an exact message id, then falls back to sender and
// content. The ticket is implied by the thread.
func (th *Thread) findPending(messageID string, senderID int64, content string) int {
	if messageID != "" {
		for i := range th.messages {
			m := &th.messages[i]
			if m.Status == StatusPending && m.MessageID == messageID {
				return i
			}
		}
	}
	for i := range th.messages {
		m := &th.messages[i]
		if m.Status == StatusPending && m.SenderID == senderID && contentMatches(m.Content, content) {
			return i
		}
	}
	return -1
}

func (th *Thread) findByIdentity(m *Message) int {
	for i := range th.messages {
		if th.messages[i].sameIdentity(m) {
			return i
		}
	}
	return -1
}
