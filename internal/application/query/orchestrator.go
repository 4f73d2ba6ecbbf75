// Package query turns URL query strings into ticket list loads. It keeps the
// last applied URL per view and reloads a view only when the canonical form
// of its query changed.
package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"leadsync/internal/application/session"
	"leadsync/internal/application/store"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/filter"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/infrastructure/metrics"
	"leadsync/internal/shared/constants"
	apperrors "leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
	"leadsync/internal/shared/query"
)

// ErrUnknownView is returned for a view name outside constants.Views.
var ErrUnknownView = errors.New("unknown view")

// Preferences persists small client-side choices across sessions.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Stores groups the caches the orchestrator drives.
type Stores struct {
	Kanban   *store.LightStore
	Table    *store.HardStore
	Chat     *store.LightStore
	Registry *store.Registry
}

type viewState struct {
	set           filter.Set
	explicitGroup string
	page          query.PageFilter
	key           string
}

type Orchestrator struct {
	stores   Stores
	repo     ticket.TicketRepository
	bus      *syncbus.Bus
	sessions *session.Holder
	prefs    Preferences
	notifier notify.Notifier
	metrics  *metrics.Metrics
	schema   filter.Schema
	perPage  int
	logger   logger.Interface

	group singleflight.Group

	mu         sync.Mutex
	groupTitle string
	views      map[string]*viewState
}

type Config struct {
	TablePerPage      int
	DefaultGroupTitle string
}

func NewOrchestrator(
	cfg Config,
	stores Stores,
	repo ticket.TicketRepository,
	bus *syncbus.Bus,
	sessions *session.Holder,
	prefs Preferences,
	notifier notify.Notifier,
	m *metrics.Metrics,
	log logger.Interface,
) *Orchestrator {
	if cfg.TablePerPage <= 0 {
		cfg.TablePerPage = constants.DefaultPageSize
	}
	return &Orchestrator{
		stores:     stores,
		repo:       repo,
		bus:        bus,
		sessions:   sessions,
		prefs:      prefs,
		notifier:   notifier,
		metrics:    m,
		schema:     filter.DefaultSchema(),
		perPage:    cfg.TablePerPage,
		logger:     log.Named("query"),
		groupTitle: cfg.DefaultGroupTitle,
		views:      make(map[string]*viewState, len(constants.Views)),
	}
}

// Init restores the persisted group title. A stored title the user can no
// longer access falls back to the first accessible one.
func (o *Orchestrator) Init(ctx context.Context) error {
	sess := o.sessions.Current()
	if sess == nil {
		return store.ErrNoSession
	}

	stored, err := o.prefs.Get(ctx, constants.PreferenceGroupTitle)
	if err != nil {
		o.logger.Warnw("failed to read group title preference", "error", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, candidate := range []string{stored, o.groupTitle} {
		if candidate != "" && sess.HasGroupTitle(candidate) {
			o.groupTitle = candidate
			return nil
		}
	}
	o.groupTitle = ""
	if titles := sess.AccessibleGroupTitles(); len(titles) > 0 {
		o.groupTitle = titles[0]
	}
	return nil
}

// GroupTitle returns the active group title.
func (o *Orchestrator) GroupTitle() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.groupTitle
}

// SetGroupTitle switches the active group title, persists it and reloads
// every view that does not pin its own.
func (o *Orchestrator) SetGroupTitle(ctx context.Context, title string) error {
	sess := o.sessions.Current()
	if sess == nil {
		return store.ErrNoSession
	}
	if !sess.HasGroupTitle(title) {
		return apperrors.NewForbiddenError("group title not accessible", title)
	}

	o.mu.Lock()
	changed := o.groupTitle != title
	o.groupTitle = title
	o.mu.Unlock()

	if err := o.prefs.Set(ctx, constants.PreferenceGroupTitle, title); err != nil {
		o.logger.Warnw("failed to persist group title", "error", err)
	}
	if !changed {
		return nil
	}
	o.logger.Infow("group title switched", "group_title", title)
	return o.reload(ctx, func(st *viewState) bool { return st.explicitGroup == "" })
}

// Apply drives view from a URL query string. It reports whether a load ran.
func (o *Orchestrator) Apply(ctx context.Context, view, rawQuery string) (bool, error) {
	if !slices.Contains(constants.Views, view) {
		return false, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	set := filter.DecodeQuery(rawQuery, o.schema)
	st := &viewState{
		set:           set.Without(filter.FieldGroupTitle),
		explicitGroup: set.Scalar(filter.FieldGroupTitle),
		page:          o.parsePage(rawQuery),
	}

	o.mu.Lock()
	st.key = o.keyLocked(view, st)
	if prev, ok := o.views[view]; ok && prev.key == st.key {
		o.mu.Unlock()
		return false, nil
	}
	o.views[view] = st
	o.mu.Unlock()

	return true, o.load(ctx, view, st)
}

// Refresh reloads every view that has been applied, e.g. after a reconnect.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	return o.reload(ctx, func(*viewState) bool { return true })
}

// Resume loads every view once a session is available: views already driven
// by a query reload it, the others load unfiltered.
func (o *Orchestrator) Resume(ctx context.Context) error {
	if err := o.Init(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	var fresh []string
	for _, view := range constants.Views {
		if _, ok := o.views[view]; !ok {
			fresh = append(fresh, view)
		}
	}
	o.mu.Unlock()

	errs := []error{o.Refresh(ctx)}
	for _, view := range fresh {
		_, err := o.Apply(ctx, view, "")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) reload(ctx context.Context, include func(*viewState) bool) error {
	o.mu.Lock()
	pending := make(map[string]*viewState)
	for view, st := range o.views {
		if !include(st) {
			continue
		}
		next := *st
		next.key = o.keyLocked(view, &next)
		o.views[view] = &next
		pending[view] = &next
	}
	o.mu.Unlock()

	var errs []error
	for _, view := range constants.Views {
		if st, ok := pending[view]; ok {
			errs = append(errs, o.load(ctx, view, st))
		}
	}
	return errors.Join(errs...)
}

// load runs one store load. Identical concurrent loads share one request
// sequence. When that sequence was overtaken by a newer load and st is still
// the view's current state, the load runs again so the store ends up on st.
func (o *Orchestrator) load(ctx context.Context, view string, st *viewState) error {
	for {
		err := o.loadOnce(ctx, view, st)
		if !errors.Is(err, store.ErrSuperseded) {
			return err
		}
		if !o.isCurrent(view, st) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Debugw("load overtaken, retrying current state", "view", view)
	}
}

func (o *Orchestrator) loadOnce(ctx context.Context, view string, st *viewState) error {
	started := time.Now()
	groupTitle := o.effectiveGroup(st)

	leader := false
	_, err, _ := o.group.Do(st.key, func() (any, error) {
		leader = true
		switch view {
		case constants.ViewKanban:
			return nil, o.stores.Kanban.Load(ctx, st.set, groupTitle)
		case constants.ViewChat:
			return nil, o.stores.Chat.Load(ctx, st.set, groupTitle)
		default:
			return nil, o.stores.Table.Load(ctx, st.set, groupTitle, st.page)
		}
	})

	switch {
	case !leader:
		o.metrics.ObserveLoad(view, "shared", started)
	case errors.Is(err, store.ErrSuperseded):
		o.metrics.ObserveLoad(view, "superseded", started)
	case err != nil:
		o.metrics.ObserveLoad(view, "error", started)
	default:
		o.metrics.ObserveLoad(view, "ok", started)
	}

	if errors.Is(err, store.ErrSuperseded) {
		return err
	}
	if err != nil {
		// A retry of the same URL must load again.
		o.mu.Lock()
		if cur, ok := o.views[view]; ok && cur == st {
			cur.key = ""
		}
		o.mu.Unlock()
		return fmt.Errorf("failed to load %s view: %w", view, err)
	}
	return nil
}

func (o *Orchestrator) isCurrent(view string, st *viewState) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.views[view] == st
}

func (o *Orchestrator) effectiveGroup(st *viewState) string {
	if st.explicitGroup != "" {
		return st.explicitGroup
	}
	return o.GroupTitle()
}

func (o *Orchestrator) keyLocked(view string, st *viewState) string {
	group := st.explicitGroup
	if group == "" {
		group = o.groupTitle
	}
	key := view + "|" + group + "|" + filter.Canonical(st.set, o.schema)
	if view == constants.ViewTable {
		key += "|" + strconv.Itoa(st.page.Page) + "/" + strconv.Itoa(st.page.PerPage)
	}
	return key
}

func (o *Orchestrator) parsePage(rawQuery string) query.PageFilter {
	values, _ := url.ParseQuery(rawQuery)
	return query.PageFilter{
		Page:    atoiOr(values.Get("page"), constants.DefaultPage),
		PerPage: atoiOr(values.Get("per_page"), o.perPage),
	}.Normalize()
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return fallback
}

// URL returns the canonical query string last applied to view, the way the
// address bar would show it.
func (o *Orchestrator) URL(view string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.views[view]
	if !ok {
		return "", false
	}
	set := st.set.Clone()
	if st.explicitGroup != "" {
		set[filter.FieldGroupTitle] = st.explicitGroup
	}
	values := filter.Encode(set, o.schema)
	if view == constants.ViewTable {
		values.Set("page", strconv.Itoa(st.page.Page))
		values.Set("per_page", strconv.Itoa(st.page.PerPage))
	}
	return values.Encode(), true
}

// View returns the state of the store behind view.
func (o *Orchestrator) View(view string) (store.View, error) {
	switch view {
	case constants.ViewKanban:
		return o.stores.Kanban.View(), nil
	case constants.ViewTable:
		return o.stores.Table.View(), nil
	case constants.ViewChat:
		return o.stores.Chat.View(), nil
	}
	return store.View{}, fmt.Errorf("%w: %s", ErrUnknownView, view)
}

// FetchTicket re-reads one ticket and fans the result out on the bus. A
// ticket the user can no longer reach is purged from every store.
func (o *Orchestrator) FetchTicket(ctx context.Context, id int64) error {
	_, err, _ := o.group.Do("ticket:"+strconv.FormatInt(id, 10), func() (any, error) {
		return nil, o.fetchTicket(ctx, id)
	})
	return err
}

func (o *Orchestrator) fetchTicket(ctx context.Context, id int64) error {
	sess := o.sessions.Current()
	if sess == nil {
		return store.ErrNoSession
	}

	t, err := o.repo.GetTicket(ctx, id, false)
	if err != nil {
		if apperrors.IsNotFoundError(err) || apperrors.IsForbiddenError(err) {
			o.stores.Registry.Purge(id)
			return nil
		}
		o.notifier.Error(err)
		return fmt.Errorf("failed to fetch ticket %d: %w", id, err)
	}

	if !sess.CanAccess(t) {
		o.logger.Infow("ticket moved out of reach", "ticket_id", id, "group_title", t.GroupTitle)
		o.stores.Registry.Purge(id)
		return nil
	}

	o.bus.Emit(syncbus.TicketUpdated{TicketID: id, Ticket: t})
	return nil
}

// FetchTickets fetches each id in turn and reports every failure.
func (o *Orchestrator) FetchTickets(ctx context.Context, ids []int64) error {
	var errs []error
	for _, id := range ids {
		if err := o.FetchTicket(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
