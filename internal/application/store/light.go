package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"leadsync/internal/application/session"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/filter"
	"leadsync/internal/domain/message"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/shared/constants"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
)

type LightConfig struct {
	Name string
	// Limit is the page size of each auto-paginated request.
	Limit int
	// SortField is SortLastInteraction or SortTimeSent.
	SortField string
}

// LightStore holds summary tickets for the kanban board or the chat list.
// Loads fetch every page in turn; a newer load supersedes an older one,
// whose remaining pages are dropped.
type LightStore struct {
	cfg      LightConfig
	less     func(a, b *ticket.Ticket) int
	repo     ticket.TicketRepository
	sessions *session.Holder
	unread   *UnreadCounter
	notifier notify.Notifier
	logger   logger.Interface

	mu         sync.RWMutex
	items      collection
	set        filter.Set
	groupTitle string
	total      int64
	loading    bool

	generation atomic.Uint64
}

// NewLightStore builds a light store. unread may be nil for stores that do
// not feed the global badge.
func NewLightStore(
	cfg LightConfig,
	repo ticket.TicketRepository,
	sessions *session.Holder,
	unread *UnreadCounter,
	notifier notify.Notifier,
	log logger.Interface,
) *LightStore {
	if cfg.Limit <= 0 {
		cfg.Limit = constants.DefaultLightLimit
	}
	if cfg.SortField == "" {
		cfg.SortField = SortLastInteraction
	}
	return &LightStore{
		cfg:      cfg,
		less:     lessFor(cfg.SortField),
		repo:     repo,
		sessions: sessions,
		unread:   unread,
		notifier: notifier,
		logger:   log.Named("store." + cfg.Name),
		items:    newCollection(),
		set:      filter.Set{},
	}
}

func (s *LightStore) Name() string { return s.cfg.Name }

// Bind follows the bus until the returned func is called.
func (s *LightStore) Bind(bus *syncbus.Bus) func() {
	return bind(bus, s)
}

// Load replaces the contents with every page matching set. Pages are
// buffered and swapped in together once the last one arrives. It returns
// ErrSuperseded without touching state when a newer load overtook it; a
// failed request leaves the previous contents in place.
func (s *LightStore) Load(ctx context.Context, set filter.Set, groupTitle string) error {
	gen := s.generation.Add(1)
	set = filter.Prune(set)

	sess := s.sessions.Current()
	if sess == nil {
		return ErrNoSession
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	buf := newCollection()
	var total int64
	for page := 1; ; page++ {
		q := buildQuery(sess, set, groupTitle, ticket.QueryLight)
		q.Page = page
		q.Limit = s.cfg.Limit
		q.SortBy = s.cfg.SortField
		q.Order = "desc"

		res, err := s.repo.FilterTickets(ctx, q)
		if s.generation.Load() != gen {
			s.logger.Debugw("superseded load abandoned", "page", page)
			return ErrSuperseded
		}
		if err != nil {
			s.finishLoading(gen)
			s.notifier.Error(err)
			return fmt.Errorf("failed to load %s page %d: %w", s.cfg.Name, page, err)
		}

		buf.append(acceptAll(sess, res.Tickets))
		total = res.Total
		if page >= res.TotalPages {
			break
		}
		if err := ctx.Err(); err != nil {
			s.finishLoading(gen)
			return err
		}
	}

	if !s.commit(gen, set, groupTitle, buf.items, total) {
		return ErrSuperseded
	}
	s.finishLoading(gen)
	s.logger.Debugw("load finished", "tickets", s.Len(), "group_title", groupTitle)
	return nil
}

func acceptAll(sess *session.Session, tickets []*ticket.Ticket) []*ticket.Ticket {
	accepted := make([]*ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t != nil && sess.CanAccess(t) {
			accepted = append(accepted, t.Clone())
		}
	}
	return accepted
}

func (s *LightStore) commit(gen uint64, set filter.Set, groupTitle string, items []*ticket.Ticket, total int64) bool {
	s.mu.Lock()
	if s.generation.Load() != gen {
		s.mu.Unlock()
		return false
	}
	before := s.items.unseenTotal()
	s.set = set
	s.groupTitle = groupTitle
	s.items.replace(items)
	s.total = total
	delta := s.items.unseenTotal() - before
	s.mu.Unlock()

	s.applyUnread(delta)
	return true
}

func (s *LightStore) finishLoading(gen uint64) {
	s.mu.Lock()
	if s.generation.Load() == gen {
		s.loading = false
	}
	s.mu.Unlock()
}

// ApplyTicket upserts t when it matches the store's filter and evicts it
// when it no longer does.
func (s *LightStore) ApplyTicket(t *ticket.Ticket) {
	sess := s.sessions.Current()
	if sess == nil || t == nil {
		return
	}

	s.mu.Lock()
	delta := s.applyLocked(sess, t.Clone())
	s.mu.Unlock()

	s.applyUnread(delta)
}

// applyLocked returns the unread delta the change caused.
func (s *LightStore) applyLocked(sess *session.Session, next *ticket.Ticket) int {
	old, present := s.items.get(next.ID)
	oldUnseen := 0
	if present {
		oldUnseen = old.UnseenCount
	}

	if accepts(sess, s.set, s.groupTitle, next) {
		s.items.upsert(next, s.less)
		if !present {
			s.total++
		}
		return next.UnseenCount - oldUnseen
	}
	if present {
		s.items.remove(next.ID)
		s.total = max(s.total-1, 0)
		return -oldUnseen
	}
	return 0
}

// ApplyMessage records m as the last message of its ticket. It reports
// whether the ticket is held here.
func (s *LightStore) ApplyMessage(m message.Message) bool {
	sess := s.sessions.Current()
	if sess == nil {
		return false
	}

	s.mu.Lock()
	current, ok := s.items.get(m.TicketID)
	delta := 0
	if ok {
		delta = s.applyLocked(sess, withMessage(current, m))
	}
	s.mu.Unlock()

	s.applyUnread(delta)
	return ok
}

// ApplySeen resets the unseen counter of a held ticket.
func (s *LightStore) ApplySeen(ticketID int64) bool {
	sess := s.sessions.Current()
	if sess == nil {
		return false
	}

	s.mu.Lock()
	current, ok := s.items.get(ticketID)
	delta := 0
	if ok {
		next := current.Clone()
		next.SetUnseen(0)
		delta = s.applyLocked(sess, next)
	}
	s.mu.Unlock()

	s.applyUnread(delta)
	return ok
}

func (s *LightStore) Remove(id int64) bool {
	s.mu.Lock()
	removed, ok := s.items.remove(id)
	if ok {
		s.total = max(s.total-1, 0)
	}
	s.mu.Unlock()

	if ok {
		s.applyUnread(-removed.UnseenCount)
	}
	return ok
}

func (s *LightStore) applyUnread(delta int) {
	if s.unread != nil && delta != 0 {
		s.unread.Apply(delta)
	}
}

func (s *LightStore) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.has(id)
}

func (s *LightStore) Get(id int64) (*ticket.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items.get(id)
	return t.Clone(), ok
}

func (s *LightStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.len()
}

// Tickets returns copies in display order.
func (s *LightStore) Tickets() []*ticket.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.snapshot()
}

func (s *LightStore) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Name:       s.cfg.Name,
		Tickets:    s.items.snapshot(),
		Filter:     s.set.Clone(),
		GroupTitle: s.groupTitle,
		Total:      s.total,
		Loading:    s.loading,
	}
}
