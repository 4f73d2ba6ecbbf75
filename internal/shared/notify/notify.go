// Package notify carries transient user-facing notifications. The client
// has no UI of its own, so notifications are logged and kept in a short
// history the control surface exposes.
package notify

import (
	"slices"
	"sync"
	"time"

	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
)

type Level string

const (
	LevelWarn  Level = "warning"
	LevelError Level = "error"
)

type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier surfaces a transient message to the user.
type Notifier interface {
	Warn(msg string)
	Error(err error)
}

const defaultCapacity = 50

// Recorder logs each notification and keeps the most recent ones.
type Recorder struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	logger   logger.Interface
}

func NewRecorder(log logger.Interface, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{capacity: capacity, logger: log}
}

func (r *Recorder) Warn(msg string) {
	r.logger.Warnw("user notification", "message", msg)
	r.push(LevelWarn, msg)
}

// Error records the human-readable text of err.
func (r *Recorder) Error(err error) {
	if err == nil {
		return
	}
	msg := errors.UserMessage(err)
	r.logger.Errorw("user notification", "message", msg, "error", err)
	r.push(LevelError, msg)
}

func (r *Recorder) push(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: msg, At: time.Now().UTC()})
	if over := len(r.items) - r.capacity; over > 0 {
		r.items = slices.Delete(r.items, 0, over)
	}
}

// Recent returns the kept notifications, oldest first.
func (r *Recorder) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}
