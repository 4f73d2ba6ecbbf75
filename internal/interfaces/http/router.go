package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"leadsync/internal/application/chat"
	"leadsync/internal/application/query"
	"leadsync/internal/application/session"
	"leadsync/internal/application/store"
	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/permission"
	vo "leadsync/internal/domain/permission/value_objects"
	"leadsync/internal/infrastructure/api"
	"leadsync/internal/interfaces/http/handlers"
	"leadsync/internal/interfaces/http/handlers/common"
	"leadsync/internal/interfaces/http/middleware"
	"leadsync/internal/shared/config"
	"leadsync/internal/shared/goroutine"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
)

const shutdownTimeout = 5 * time.Second

// Deps carries the running sync core the control surface exposes.
type Deps struct {
	Config       config.ControlConfig
	Orchestrator *query.Orchestrator
	Unread       *store.UnreadCounter
	Chat         *chat.Service
	Client       *api.Client
	Sessions     *session.Holder
	Enforcer     permission.RouteEnforcer
	Notifier     *notify.Recorder
	Bus          *syncbus.Bus
	Caches       *store.Registry
	Registry     *prometheus.Registry
	Redis        *redis.Client
	SocketState  func() string
}

// Router represents the HTTP router configuration
type Router struct {
	engine              *gin.Engine
	server              *http.Server
	cfg                 config.ControlConfig
	healthHandler       *handlers.HealthHandler
	viewHandler         *handlers.ViewHandler
	chatHandler         *handlers.ChatHandler
	ticketHandler       *handlers.TicketHandler
	permissionHandler   *handlers.PermissionHandler
	notificationHandler *handlers.NotificationHandler
	eventStream         *common.EventStreamHandler
	permMiddleware      *middleware.PermissionMiddleware
	sendLimiter         *middleware.RateLimiter
	registry            *prometheus.Registry
	logger              logger.Interface
}

// NewRouter creates a new router with the handlers wired to deps.
func NewRouter(deps Deps, log logger.Interface) *Router {
	if deps.Config.Mode != "" {
		gin.SetMode(deps.Config.Mode)
	}
	log = log.Named("control")

	var sendLimiter *middleware.RateLimiter
	if deps.Redis != nil {
		sendLimiter = middleware.NewRateLimiter(deps.Redis, "send", deps.Config.SendLimit, deps.Config.SendWindow, log)
	}

	return &Router{
		engine:              gin.New(),
		cfg:                 deps.Config,
		healthHandler:       handlers.NewHealthHandler(deps.Sessions, deps.SocketState),
		viewHandler:         handlers.NewViewHandler(deps.Orchestrator, deps.Unread, log),
		chatHandler:         handlers.NewChatHandler(deps.Chat, log),
		ticketHandler:       handlers.NewTicketHandler(deps.Client, deps.Bus, deps.Caches, log),
		permissionHandler:   handlers.NewPermissionHandler(deps.Sessions, log),
		notificationHandler: handlers.NewNotificationHandler(deps.Notifier),
		eventStream:         common.NewEventStreamHandler(deps.Bus, log),
		permMiddleware:      middleware.NewPermissionMiddleware(deps.Sessions, deps.Enforcer, log),
		sendLimiter:         sendLimiter,
		registry:            deps.Registry,
		logger:              log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestLogger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CORS(r.cfg.AllowedOrigins))

	r.engine.GET("/health", r.healthHandler.HealthCheck)
	if r.registry != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))
	}

	r.setupSessionRoutes()
	r.setupViewRoutes()
	r.setupChatRoutes()
}

func (r *Router) setupSessionRoutes() {
	apiGroup := r.engine.Group("/api")
	apiGroup.Use(r.permMiddleware.RequireSession())
	{
		apiGroup.GET("/group-title", r.viewHandler.GetGroupTitle)
		apiGroup.PUT("/group-title", r.viewHandler.SetGroupTitle)
		apiGroup.GET("/notifications", r.notificationHandler.ListNotifications)
		apiGroup.GET("/events", r.eventStream.Stream)
		apiGroup.POST("/permissions/check", r.permissionHandler.CheckPermission)
	}
}

func (r *Router) setupViewRoutes() {
	views := r.engine.Group("/api")
	views.Use(r.permMiddleware.RequirePermission(vo.ModuleLeads, vo.ActionView))
	{
		views.GET("/views/:view", r.viewHandler.GetView)
		views.PUT("/views/:view", r.viewHandler.ApplyView)
		views.POST("/views/refresh", r.viewHandler.Refresh)
		views.GET("/unread", r.viewHandler.GetUnread)
	}

	r.engine.POST("/api/tickets/merge",
		r.permMiddleware.RequirePermission(vo.ModuleLeads, vo.ActionEdit),
		r.ticketHandler.MergeTickets,
	)
	r.engine.PATCH("/api/tickets/:id",
		r.permMiddleware.RequirePermission(vo.ModuleLeads, vo.ActionEdit),
		r.ticketHandler.UpdateTicket,
	)
	r.engine.DELETE("/api/tickets",
		r.permMiddleware.RequirePermission(vo.ModuleLeads, vo.ActionDelete),
		r.ticketHandler.DeleteTickets,
	)
}

func (r *Router) setupChatRoutes() {
	tickets := r.engine.Group("/api/tickets/:id")
	tickets.Use(r.permMiddleware.RequirePermission(vo.ModuleChat, vo.ActionView))
	{
		tickets.POST("/open", r.chatHandler.OpenTicket)
		tickets.GET("/messages", r.chatHandler.ListMessages)
		tickets.POST("/messages", r.sendLimiter.Limit(), r.chatHandler.SendMessage)
		tickets.GET("/timeline", r.chatHandler.GetTimeline)
		tickets.GET("/presence", r.chatHandler.GetPresence)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run serves until ctx is cancelled, then shuts the server down.
func (r *Router) Run(ctx context.Context) error {
	r.server = &http.Server{
		Addr:              r.cfg.GetAddr(),
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	goroutine.SafeGo(r.logger, "control-server", func() {
		r.logger.Infow("control server listening", "addr", r.server.Addr)
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	})

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		return r.Shutdown()
	}
}

// Shutdown gracefully shuts down the server
func (r *Router) Shutdown() error {
	if r.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return r.server.Shutdown(ctx)
}
