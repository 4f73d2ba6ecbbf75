// Package token reads the CRM auth token the way the web client reads its
// cookie: the token is opaque to us except for the unverified exp and sub
// claims, which decide whether it may be used and who it belongs to.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadsync/internal/shared/biztime"
	"leadsync/internal/shared/logger"
)

// Claims are the parts of the token the client looks at.
type Claims struct {
	UserID int64 `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Inspect parses a token without verifying its signature. The backend
// verifies; the client only needs exp and the subject.
func Inspect(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the exp claim is at or before now. A token
// without exp never expires client-side.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// SubjectUserID returns the numeric user id from user_id or sub.
func (c *Claims) SubjectUserID() (int64, bool) {
	if c.UserID > 0 {
		return c.UserID, true
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Fingerprint identifies a token in logs without leaking it.
func Fingerprint(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])[:12]
}

// Source serves the current token from a file. The file is re-read on
// every call so a sign-in elsewhere is picked up on the next poll.
type Source struct {
	path   string
	now    func() time.Time
	logger logger.Interface

	mu   sync.Mutex
	last string
}

func NewFileSource(path string, log logger.Interface) *Source {
	return &Source{
		path:   path,
		now:    biztime.NowUTC,
		logger: log.Named("token"),
	}
}

// Token returns the token when it is present, parseable and unexpired.
func (s *Source) Token() (string, bool) {
	raw, claims, ok := s.load()
	if !ok {
		return "", false
	}
	if claims.Expired(s.now()) {
		s.note("", "token expired")
		return "", false
	}
	s.note(raw, "token changed")
	return raw, true
}

// SubjectUserID reads the user id from the current token, expired or not.
func (s *Source) SubjectUserID() (int64, bool) {
	_, claims, ok := s.load()
	if !ok {
		return 0, false
	}
	return claims.SubjectUserID()
}

func (s *Source) load() (string, *Claims, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnw("failed to read token file", "path", s.path, "error", err)
		}
		s.note("", "token missing")
		return "", nil, false
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		s.note("", "token missing")
		return "", nil, false
	}
	claims, err := Inspect(raw)
	if err != nil {
		s.note("", "token unreadable")
		return "", nil, false
	}
	return raw, claims, true
}

// note logs transitions only, the file is polled every few seconds.
func (s *Source) note(raw, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw == s.last {
		return
	}
	s.last = raw
	if raw == "" {
		s.logger.Infow(msg, "path", s.path)
		return
	}
	s.logger.Infow(msg, "fingerprint", Fingerprint(raw))
}
