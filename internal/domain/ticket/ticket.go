// Package ticket holds the lead record as the CRM backend serves it, plus the
// workflow and access rules every ticket cache applies.
package ticket

import (
	"slices"
	"strconv"
)

// Ticket is one lead. Light lists receive a subset of the fields; absent
// ones keep their zero value.
type Ticket struct {
	ID                  int64     `json:"id"`
	Workflow            string    `json:"workflow"`
	Priority            string    `json:"priority"`
	GroupTitle          string    `json:"group_title"`
	Tags                []string  `json:"tags"`
	Platform            []string  `json:"platform,omitempty"`
	TechnicianID        *int64    `json:"technician_id"`
	ContactName         string    `json:"contact,omitempty"`
	Phone               string    `json:"phone,omitempty"`
	Email               string    `json:"email,omitempty"`
	ActionNeeded        bool      `json:"action_needed"`
	UnseenCount         int       `json:"unseen_count"`
	LastMessage         string    `json:"last_message,omitempty"`
	LastMessageType     string    `json:"last_message_type,omitempty"`
	LastMessageSenderID *int64    `json:"last_message_sender_id"`
	TimeSent            Timestamp `json:"time_sent"`
	CreationDate        Timestamp `json:"creation_date"`
	LastInteractionDate Timestamp `json:"last_interaction_date"`
}

// Clone returns a deep copy so caches never share slices or pointers.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = slices.Clone(t.Tags)
	c.Platform = slices.Clone(t.Platform)
	if t.TechnicianID != nil {
		id := *t.TechnicianID
		c.TechnicianID = &id
	}
	if t.LastMessageSenderID != nil {
		id := *t.LastMessageSenderID
		c.LastMessageSenderID = &id
	}
	return &c
}

// ResponsibleID returns the technician id as a string, empty when unassigned.
func (t *Ticket) ResponsibleID() string {
	if t.TechnicianID == nil {
		return ""
	}
	return strconv.FormatInt(*t.TechnicianID, 10)
}

// HasTechnician reports whether id is the ticket's responsible user.
func (t *Ticket) HasTechnician(id int64) bool {
	return t.TechnicianID != nil && *t.TechnicianID == id
}

// SetUnseen replaces the unseen counter and returns the delta it caused.
func (t *Ticket) SetUnseen(count int) int {
	if count < 0 {
		count = 0
	}
	delta := count - t.UnseenCount
	t.UnseenCount = count
	return delta
}

// Int64 returns a pointer to v, for optional id fields.
func Int64(v int64) *int64 {
	return &v
}
