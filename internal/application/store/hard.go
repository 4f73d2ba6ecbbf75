package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"leadsync/internal/application/session"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/filter"
	"leadsync/internal/domain/message"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
	"leadsync/internal/shared/query"
	"leadsync/internal/shared/utils"
)

// HardStore holds one server-ordered page of full tickets for the table.
type HardStore struct {
	name     string
	repo     ticket.TicketRepository
	sessions *session.Holder
	notifier notify.Notifier
	logger   logger.Interface

	mu         sync.RWMutex
	items      collection
	set        filter.Set
	groupTitle string
	page       query.PageFilter
	total      int64
	totalPages int
	loading    bool

	generation atomic.Uint64
}

func NewHardStore(name string, perPage int, repo ticket.TicketRepository, sessions *session.Holder, notifier notify.Notifier, log logger.Interface) *HardStore {
	return &HardStore{
		name:     name,
		repo:     repo,
		sessions: sessions,
		notifier: notifier,
		logger:   log.Named("store." + name),
		items:    newCollection(),
		set:      filter.Set{},
		page:     query.PageFilter{Page: 1, PerPage: perPage}.Normalize(),
	}
}

func (s *HardStore) Name() string { return s.name }

func (s *HardStore) Bind(bus *syncbus.Bus) func() {
	return bind(bus, s)
}

// Load fetches one page. A response for a superseded load is dropped and
// ErrSuperseded returned.
func (s *HardStore) Load(ctx context.Context, set filter.Set, groupTitle string, page query.PageFilter) error {
	gen := s.generation.Add(1)
	set = filter.Prune(set)
	page = page.Normalize()

	sess := s.sessions.Current()
	if sess == nil {
		return ErrNoSession
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	q := buildQuery(sess, set, groupTitle, ticket.QueryHard)
	q.Page = page.Page
	q.PerPage = page.PerPage

	res, err := s.repo.FilterTickets(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		s.logger.Debugw("superseded load abandoned", "page", page.Page)
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.notifier.Error(err)
		return fmt.Errorf("failed to load %s page %d: %w", s.name, page.Page, err)
	}

	fresh := newCollection()
	fresh.append(acceptAll(sess, res.Tickets))
	s.items.replace(fresh.items)
	s.set = set
	s.groupTitle = groupTitle
	s.page = page
	s.total = res.Total
	s.totalPages = res.TotalPages
	if s.totalPages == 0 {
		s.totalPages = utils.TotalPages(res.Total, page.PerPage)
	}
	return nil
}

// ApplyTicket keeps server order: held tickets update in place, new
// matches are inserted on the first page only.
func (s *HardStore) ApplyTicket(t *ticket.Ticket) {
	sess := s.sessions.Current()
	if sess == nil || t == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(sess, t.Clone())
}

func (s *HardStore) applyLocked(sess *session.Session, next *ticket.Ticket) {
	present := s.items.has(next.ID)
	switch {
	case accepts(sess, s.set, s.groupTitle, next):
		if present {
			s.items.upsert(next, nil)
			return
		}
		if s.page.Page != 1 {
			return
		}
		s.items.upsert(next, nil)
		s.total++
		if s.items.len() > s.page.PerPage {
			s.items.replace(slices.Clone(s.items.items[:s.page.PerPage]))
		}
		s.totalPages = utils.TotalPages(s.total, s.page.PerPage)
	case present:
		s.items.remove(next.ID)
		s.total = max(s.total-1, 0)
		s.totalPages = utils.TotalPages(s.total, s.page.PerPage)
	}
}

func (s *HardStore) ApplyMessage(m message.Message) bool {
	sess := s.sessions.Current()
	if sess == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items.get(m.TicketID)
	if ok {
		s.applyLocked(sess, withMessage(current, m))
	}
	return ok
}

func (s *HardStore) ApplySeen(ticketID int64) bool {
	sess := s.sessions.Current()
	if sess == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items.get(ticketID)
	if ok {
		next := current.Clone()
		next.SetUnseen(0)
		s.applyLocked(sess, next)
	}
	return ok
}

func (s *HardStore) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items.remove(id); !ok {
		return false
	}
	s.total = max(s.total-1, 0)
	s.totalPages = utils.TotalPages(s.total, s.page.PerPage)
	return true
}

func (s *HardStore) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.has(id)
}

func (s *HardStore) Get(id int64) (*ticket.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items.get(id)
	return t.Clone(), ok
}

func (s *HardStore) Tickets() []*ticket.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.snapshot()
}

// Page returns the page currently shown.
func (s *HardStore) Page() query.PageFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *HardStore) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Name:       s.name,
		Tickets:    s.items.snapshot(),
		Filter:     s.set.Clone(),
		GroupTitle: s.groupTitle,
		Page:       s.page.Page,
		PerPage:    s.page.PerPage,
		TotalPages: s.totalPages,
		Total:      s.total,
		Loading:    s.loading,
	}
}
