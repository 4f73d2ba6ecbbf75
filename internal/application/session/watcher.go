package session

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"leadsync/internal/shared/logger"
)

// TokenSource exposes the raw auth token shared with the host app.
type TokenSource interface {
	Token() (string, bool)
}

type ProfileLoader interface {
	Load(ctx context.Context) (*Session, error)
}

// Watcher follows the auth token and keeps the Holder in step with it:
// a new token loads a session, a vanished token tears it down.
type Watcher struct {
	tokens   TokenSource
	loader   ProfileLoader
	holder   *Holder
	interval time.Duration
	logger   logger.Interface

	hookMu  sync.Mutex
	signIn  []func(context.Context, *Session)
	signOut []func(*Session)

	// guarded by syncMu; Sync is not reentrant
	syncMu    sync.Mutex
	token     string
	failed    string
	retry     *backoff.ExponentialBackOff
	nextRetry time.Time
	now       func() time.Time
}

func NewWatcher(tokens TokenSource, loader ProfileLoader, holder *Holder, interval time.Duration, log logger.Interface) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = interval
	retry.MaxInterval = time.Minute

	return &Watcher{
		tokens:   tokens,
		loader:   loader,
		holder:   holder,
		interval: interval,
		logger:   log.Named("session"),
		retry:    retry,
		now:      time.Now,
	}
}

// OnSignIn registers fn to run after a session is published.
func (w *Watcher) OnSignIn(fn func(context.Context, *Session)) {
	w.hookMu.Lock()
	defer w.hookMu.Unlock()
	w.signIn = append(w.signIn, fn)
}

// OnSignOut registers fn to run after a session is cleared. fn receives the
// session that ended.
func (w *Watcher) OnSignOut(fn func(*Session)) {
	w.hookMu.Lock()
	defer w.hookMu.Unlock()
	w.signOut = append(w.signOut, fn)
}

// Run polls the token until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Sync(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sync(ctx)
		}
	}
}

// Sync reconciles the holder with the current token once.
func (w *Watcher) Sync(ctx context.Context) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	raw, ok := w.tokens.Token()
	if !ok {
		w.token = ""
		w.failed = ""
		if prev := w.holder.Current(); prev != nil {
			w.holder.Clear()
			w.logger.Infow("signed out", "user_id", prev.UserID())
			w.fireSignOut(prev)
		}
		return
	}
	if raw == w.token {
		return
	}

	if raw == w.failed && w.now().Before(w.nextRetry) {
		return
	}

	next, err := w.loader.Load(ctx)
	if err != nil {
		if raw != w.failed {
			w.logger.Errorw("failed to load session", "error", err)
			w.failed = raw
			w.retry.Reset()
		}
		w.nextRetry = w.now().Add(w.retry.NextBackOff())
		return
	}

	w.token = raw
	w.failed = ""
	prev := w.holder.Current()
	if prev != nil && prev.UserID() != next.UserID() {
		w.holder.Clear()
		w.logger.Infow("signed out", "user_id", prev.UserID(), "reason", "user changed")
		w.fireSignOut(prev)
	}
	w.holder.Replace(next)
	w.logger.Infow("signed in", "user_id", next.UserID())
	w.fireSignIn(ctx, next)
}

func (w *Watcher) fireSignIn(ctx context.Context, s *Session) {
	w.hookMu.Lock()
	hooks := append([]func(context.Context, *Session){}, w.signIn...)
	w.hookMu.Unlock()
	for _, fn := range hooks {
		fn(ctx, s)
	}
}

func (w *Watcher) fireSignOut(s *Session) {
	w.hookMu.Lock()
	hooks := append([]func(*Session){}, w.signOut...)
	w.hookMu.Unlock()
	for _, fn := range hooks {
		fn(s)
	}
}
