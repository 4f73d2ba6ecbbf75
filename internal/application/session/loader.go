package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"leadsync/internal/domain/user"
	"leadsync/internal/shared/logger"
)

// ClaimSource exposes the user id carried by the auth token.
type ClaimSource interface {
	SubjectUserID() (int64, bool)
}

// Loader builds sessions from GET /me, falling back to the token subject
// when the profile lacks an id.
type Loader struct {
	profiles        user.ProfileRepository
	claims          ClaimSource
	workflows       []string
	closedWorkflows []string
	logger          logger.Interface
}

func NewLoader(profiles user.ProfileRepository, claims ClaimSource, workflows, closedWorkflows []string, log logger.Interface) *Loader {
	return &Loader{
		profiles:        profiles,
		claims:          claims,
		workflows:       workflows,
		closedWorkflows: closedWorkflows,
		logger:          log,
	}
}

func (l *Loader) Load(ctx context.Context) (*Session, error) {
	profile, err := l.profiles.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.ID == 0 && l.claims != nil {
		if id, ok := l.claims.SubjectUserID(); ok {
			profile.ID = id
		}
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("profile has no user id")
	}

	s := New(profile, l.workflows, l.closedWorkflows)
	l.logger.Infow("session loaded",
		"user_id", s.UserID(),
		"roles", len(profile.Roles),
		"group_titles", s.AccessibleGroupTitles(),
	)
	return s, nil
}

// Holder publishes the current session. Readers get an immutable snapshot.
type Holder struct {
	current atomic.Pointer[Session]
}

func NewHolder(s *Session) *Holder {
	h := &Holder{}
	if s != nil {
		h.current.Store(s)
	}
	return h
}

// Current returns the live session or nil after logout.
func (h *Holder) Current() *Session {
	return h.current.Load()
}

func (h *Holder) Replace(s *Session) {
	h.current.Store(s)
}

// Clear tears the session down.
func (h *Holder) Clear() {
	h.current.Store(nil)
}
