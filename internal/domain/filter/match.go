package filter

import (
	"slices"
	"strconv"
	"strings"

	"leadsync/internal/domain/ticket"
	"leadsync/internal/shared/biztime"
	"leadsync/internal/shared/constants"
)

// clientAuthor is the last_message_author value meaning "written by the client".
const clientAuthor = "0"

// MatchContext carries the session facts a predicate needs.
type MatchContext struct {
	CurrentUserID int64
}

// Matches reports whether t would be part of a server query made with the
// same set. Stores call it on every pushed ticket to decide between upsert
// and eviction.
func Matches(t *ticket.Ticket, set Set, mc MatchContext) bool {
	if t == nil {
		return false
	}
	for key, value := range set {
		if isEmptyValue(value) {
			continue
		}
		if !matchField(t, set, key, mc) {
			return false
		}
	}
	return true
}

func matchField(t *ticket.Ticket, set Set, key string, mc MatchContext) bool {
	switch key {
	case FieldWorkflow:
		return slices.Contains(set.Strings(key), t.Workflow)
	case FieldPriority:
		return slices.Contains(set.Strings(key), t.Priority)
	case FieldTechnicianID:
		responsible := t.ResponsibleID()
		return responsible != "" && slices.Contains(set.Strings(key), responsible)
	case FieldTags:
		return overlaps(set.Strings(key), t.Tags)
	case FieldPlatform:
		return overlaps(set.Strings(key), t.Platform)
	case FieldLastMessageAuthor:
		for _, author := range set.Strings(key) {
			if matchAuthor(t, author, mc) {
				return true
			}
		}
		return false
	case FieldSearch:
		return matchSearch(t, set.Scalar(key))
	case FieldUnseen:
		switch set.Scalar(key) {
		case "true":
			return t.UnseenCount > 0
		case "false":
			return t.UnseenCount == 0
		}
		return true
	case FieldActionNeeded:
		want, ok := set.Bool(key)
		return !ok || t.ActionNeeded == want
	case FieldCreationDate:
		return matchDay(t.CreationDate, set, key)
	case FieldLastInteractionDate:
		return matchDay(t.LastInteractionDate, set, key)
	case FieldUnseenCount:
		r, ok := set.Range(key)
		return !ok || inNumberRange(float64(t.UnseenCount), r)
	case FieldGroupTitle:
		return t.GroupTitle == set.Scalar(key)
	}
	// view, type and unknown keys never filter
	return true
}

// matchAuthor treats a missing sender as the client. System messages and
// messages from the responsible or current user are never the client's.
func matchAuthor(t *ticket.Ticket, author string, mc MatchContext) bool {
	sender := t.LastMessageSenderID
	if author != clientAuthor {
		return sender != nil && strconv.FormatInt(*sender, 10) == author
	}
	if sender == nil {
		return true
	}
	switch {
	case *sender == constants.SystemSenderID:
		return false
	case t.HasTechnician(*sender):
		return false
	case mc.CurrentUserID != 0 && *sender == mc.CurrentUserID:
		return false
	}
	return true
}

func matchSearch(t *ticket.Ticket, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	haystack := []string{
		strconv.FormatInt(t.ID, 10),
		t.ContactName,
		t.Phone,
		t.Email,
	}
	haystack = append(haystack, t.Tags...)
	for _, h := range haystack {
		if h != "" && strings.Contains(strings.ToLower(h), query) {
			return true
		}
	}
	return false
}

// matchDay compares the business calendar day of ts with an inclusive
// YYYY-MM-DD range. Days in that layout order lexically.
func matchDay(ts ticket.Timestamp, set Set, key string) bool {
	r, ok := set.Range(key)
	if !ok {
		return true
	}
	if ts.IsZero() {
		return false
	}
	day := biztime.Day(ts.Time)
	if r.From != "" && day < r.From {
		return false
	}
	if r.To != "" && day > r.To {
		return false
	}
	return true
}

func inNumberRange(v float64, r Range) bool {
	if r.From != "" {
		from, err := strconv.ParseFloat(r.From, 64)
		if err == nil && v < from {
			return false
		}
	}
	if r.To != "" {
		to, err := strconv.ParseFloat(r.To, 64)
		if err == nil && v > to {
			return false
		}
	}
	return true
}

func overlaps(want, have []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// Attributes converts the set into the attributes object of a ticket query
// body. view, type and group_title travel outside the attributes.
func Attributes(set Set) map[string]any {
	attrs := make(map[string]any, len(set))
	for k, v := range Prune(set) {
		if nonFilterKeys[k] {
			continue
		}
		if r, ok := v.(Range); ok {
			bounds := make(map[string]string, 2)
			if r.From != "" {
				bounds["from"] = r.From
			}
			if r.To != "" {
				bounds["to"] = r.To
			}
			v = bounds
		}
		attrs[k] = v
	}
	return attrs
}
