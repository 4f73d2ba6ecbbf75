package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"leadsync/internal/application/chat"
	"leadsync/internal/application/query"
	"leadsync/internal/application/realtime"
	"leadsync/internal/application/session"
	"leadsync/internal/application/store"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/infrastructure/api"
	"leadsync/internal/infrastructure/config"
	"leadsync/internal/infrastructure/metrics"
	"leadsync/internal/infrastructure/permission"
	"leadsync/internal/infrastructure/preference"
	"leadsync/internal/infrastructure/pubsub"
	"leadsync/internal/infrastructure/socket"
	"leadsync/internal/infrastructure/token"
	httpRouter "leadsync/internal/interfaces/http"
	"leadsync/internal/shared/constants"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
	"leadsync/internal/shared/services/markdown"
)

const notificationCapacity = 50

// app is the wired sync core for one process.
type app struct {
	cfg    *config.Config
	logger logger.Interface

	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	notifier  *notify.Recorder
	tokens    *token.Source
	client    *api.Client
	holder    *session.Holder
	watcher   *session.Watcher
	guard     *permission.Enforcer
	prefs     *preference.Store
	bus       *syncbus.Bus
	unread    *store.UnreadCounter
	stores    query.Stores
	orch      *query.Orchestrator
	transport *socket.Transport
	chat      *chat.Service
	realtime  *realtime.Translator
	redis     *redis.Client
	relay     *pubsub.RedisBusRelay
	router    *httpRouter.Router

	unbind []func()
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Interface) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)
	a.notifier = notify.NewRecorder(log, notificationCapacity)

	a.tokens = token.NewFileSource(cfg.Session.TokenFile, log)
	a.client = api.NewClient(cfg.API.BaseURL, a.tokens, log, api.WithTimeout(cfg.API.Timeout))
	a.holder = session.NewHolder(nil)
	loader := session.NewLoader(a.client, a.tokens, cfg.Sync.Workflows, cfg.Sync.ClosedWorkflows, log.Named("session"))
	a.watcher = session.NewWatcher(a.tokens, loader, a.holder, cfg.Socket.TokenPollInterval, log)

	guard, err := permission.NewEnforcer(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create permission enforcer: %w", err)
	}
	a.guard = guard

	prefs, err := preference.Open(cfg.Preference.Path, log)
	if err != nil {
		return nil, err
	}
	a.prefs = prefs

	a.bus = syncbus.New(log)
	a.unread = store.NewUnreadCounter(log)
	a.unbind = append(a.unbind, a.unread.OnChange(a.metrics.SetUnread))

	kanban := store.NewLightStore(store.LightConfig{Name: constants.ViewKanban, Limit: cfg.Sync.LightLimit}, a.client, a.holder, a.unread, a.notifier, log)
	chatList := store.NewLightStore(store.LightConfig{Name: constants.ViewChat, Limit: cfg.Sync.LightLimit, SortField: store.SortTimeSent}, a.client, a.holder, nil, a.notifier, log)
	table := store.NewHardStore(constants.ViewTable, cfg.Sync.TablePerPage, a.client, a.holder, a.notifier, log)
	a.stores = query.Stores{
		Kanban:   kanban,
		Table:    table,
		Chat:     chatList,
		Registry: store.NewRegistry(log.Named("store"), kanban, table, chatList),
	}
	a.unbind = append(a.unbind, kanban.Bind(a.bus), table.Bind(a.bus), chatList.Bind(a.bus))

	a.orch = query.NewOrchestrator(query.Config{
		TablePerPage:      cfg.Sync.TablePerPage,
		DefaultGroupTitle: cfg.Sync.GroupTitle,
	}, a.stores, a.client, a.bus, a.holder, a.prefs, a.notifier, a.metrics, log)

	a.transport = socket.NewTransport(socket.Config{
		URL:                  cfg.API.SocketURL,
		PingInterval:         cfg.Socket.PingInterval,
		PongTimeout:          cfg.Socket.PongTimeout,
		ReconnectDelay:       cfg.Socket.ReconnectDelay,
		MaxReconnectAttempts: cfg.Socket.MaxReconnectAttempts,
		TokenPollInterval:    cfg.Socket.TokenPollInterval,
	}, a.tokens, nil, a.notifier, a.metrics, log)

	a.chat = chat.NewService(a.client, a.transport, a.holder, chat.NewPresence(), markdown.NewRenderer(), a.notifier, log)
	a.unbind = append(a.unbind, a.chat.Bind(a.bus))
	a.realtime = realtime.NewTranslator(a.transport, a.bus, a.orch, a.chat, a.metrics, log)

	a.watcher.OnSignIn(a.signedIn)
	a.watcher.OnSignOut(a.signedOut)

	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
		a.relay = pubsub.NewRedisBusRelay(a.redis, cfg.Redis.Channel, a.bus, log)
	}

	if cfg.Control.Enabled {
		a.router = httpRouter.NewRouter(httpRouter.Deps{
			Config:       cfg.Control,
			Orchestrator: a.orch,
			Unread:       a.unread,
			Chat:         a.chat,
			Client:       a.client,
			Sessions:     a.holder,
			Enforcer:     a.guard,
			Notifier:     a.notifier,
			Bus:          a.bus,
			Caches:       a.stores.Registry,
			Registry:     a.registry,
			Redis:        a.redis,
			SocketState:  func() string { return a.transport.State().String() },
		}, log)
		a.router.SetupRoutes()
	}

	return a, nil
}

// signedIn grants the new session's routes and loads every view.
func (a *app) signedIn(ctx context.Context, s *session.Session) {
	if err := a.guard.LoadRoles(s.UserIDString(), s.Roles()); err != nil {
		a.logger.Errorw("failed to load roles", "user_id", s.UserID(), "error", err)
	}
	if err := a.orch.Resume(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warnw("initial load incomplete", "user_id", s.UserID(), "error", err)
	}
}

func (a *app) signedOut(s *session.Session) {
	if err := a.guard.Reset(s.UserIDString()); err != nil {
		a.logger.Warnw("failed to reset roles", "user_id", s.UserID(), "error", err)
	}
}

// run blocks until ctx is done or a component fails.
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.realtime.Start(ctx)
	defer a.realtime.Close()

	g.Go(func() error {
		a.watcher.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return a.transport.Start(ctx)
	})
	if a.relay != nil {
		g.Go(func() error {
			return a.relay.Run(ctx)
		})
	}
	if a.router != nil {
		g.Go(func() error {
			return a.router.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) close() {
	for _, u := range a.unbind {
		u()
	}
	a.unbind = nil
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warnw("failed to close redis client", "error", err)
		}
	}
	if a.prefs != nil {
		if err := a.prefs.Close(); err != nil {
			a.logger.Warnw("failed to close preference store", "error", err)
		}
	}
}
