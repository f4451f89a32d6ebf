package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/filmlink/filmlink/internal/api/middleware"
	"github.com/filmlink/filmlink/internal/config"
	"github.com/filmlink/filmlink/internal/logger"
	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/scheduler"
	"github.com/filmlink/filmlink/internal/scheduler/tasks"
	"github.com/filmlink/filmlink/internal/settings"
	"github.com/filmlink/filmlink/internal/suggest"
	"github.com/filmlink/filmlink/internal/websocket"
)

// MetadataService is what the server needs from the metadata layer.
type MetadataService interface {
	metadata.Client
	IsConfigured() bool
	SetToken(token string)
	Test(ctx context.Context) error
	ProviderName() string
}

// LogsProvider provides access to recent log data.
type LogsProvider interface {
	RecentLogs() []logger.LogEntry
	LogFilePath() string
}

// Server handles HTTP and WebSocket requests for editor extensions.
type Server struct {
	echo      *echo.Echo
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	startedAt time.Time

	metadataService MetadataService
	settingsService *settings.Service
	sessions        *SessionRegistry
	logs            LogsProvider

	// scheduler is nil when it could not be created.
	scheduler     *scheduler.Scheduler
	providerCheck *tasks.ProviderCheckTask
}

// NewServer creates a new API server instance. settingsService and logs
// may be nil, in which case their routes are not registered.
func NewServer(cfg *config.Config, meta MetadataService, settingsService *settings.Service, logs LogsProvider, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:            e,
		logger:          logger.With().Str("component", "api").Logger(),
		cfg:             cfg,
		startedAt:       time.Now(),
		metadataService: meta,
		settingsService: settingsService,
		logs:            logs,
	}

	s.hub = websocket.NewHub(s.newSession, logger)
	s.sessions = NewSessionRegistry(cfg.Suggest.MaxSessions, sessionTTL, s.newSession)
	s.providerCheck = tasks.NewProviderCheckTask(meta, logger)
	s.setupScheduler(logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// newSession starts a suggestion session wired to the configured options.
func (s *Server) newSession(ctx context.Context, kind metadata.MediaKind, notifier suggest.Notifier) *suggest.Session {
	opts := suggest.OptionsFromConfig(s.cfg.Suggest, s.logger)
	opts.Notifier = notifier
	return suggest.NewSession(ctx, s.metadataService, kind, opts)
}

func (s *Server) setupScheduler(logger zerolog.Logger) {
	sched, err := scheduler.New(logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Background tasks disabled")
		return
	}
	if err := tasks.RegisterProviderCheckTask(sched, s.providerCheck, s.cfg.Health.ProviderCheckInterval); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to register provider check")
	}
	s.scheduler = sched
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("1M"))
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ws", s.hub.HandleWebSocket)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	sessions := api.Group("/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("/:id/suggestions", s.getSuggestions)
	sessions.POST("/:id/link", s.createLink)
	sessions.DELETE("/:id", s.deleteSession)

	if s.scheduler != nil {
		taskRoutes := api.Group("/tasks")
		taskRoutes.GET("", s.listTasks)
		taskRoutes.POST("/:id/run", s.runTask)
	}

	if s.settingsService != nil {
		handlers := settings.NewHandlers(s.settingsService, s.cfg.TMDB.Token, s.applyToken)
		handlers.RegisterRoutes(api.Group("/settings"))
	}

	if s.logs != nil {
		NewLogsHandlers(s.logs).RegisterRoutes(api.Group("/logs"))
	}
}

// applyToken switches the metadata client to a new credential.
func (s *Server) applyToken(token string) {
	s.metadataService.SetToken(token)
	s.logger.Info().Bool("configured", token != "").Msg("TMDB token applied")
	if err := s.hub.Broadcast(websocket.TypeNotice, websocket.NoticePayload{Message: "TMDB token updated"}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to broadcast token change")
	}
}

// Start runs the WebSocket hub and listens for HTTP requests until
// Shutdown is called.
func (s *Server) Start(ctx context.Context, address string) error {
	go s.hub.Run(ctx)
	if s.scheduler != nil {
		s.scheduler.Start()
	}
	s.logger.Info().Str("address", address).Msg("Starting server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.Purge()
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}
