// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - SQL Server pools (dashboard only)
//   - redis client
//   - background job worker server (asynq)
//   - periodic health checks (cron)
//   - http.Server
//
// The same container backs both surfaces: the reporting dashboard and the
// process manager sidecar. Surface decides the port, the TLS pair and
// whether database pools are opened.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/lib/job"
	"github.com/grupotelles/comercial/internal/lib/shell"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	loggerPkg "github.com/grupotelles/comercial/internal/logger"
)

// Surface selects which of the two HTTP applications the server runs.
type Surface string

const (
	SurfaceWeb     Surface = "web"
	SurfaceManager Surface = "manager"
)

// RedisPingTimeout bounds the startup ping of Redis.
const RedisPingTimeout = 5 * time.Second

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. It holds:
//   - the config
//   - the logger(s)
//   - database and redis connections
//   - background job service
//   - an internal *http.Server used to listen and serve requests
type Server struct {
	Surface Surface

	// Config holds all environment/config values for the app.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	// DB holds the SQL Server pools. It is nil on the manager surface.
	DB *database.Database

	// Redis is the Redis client. RedisAvailable is false when the startup
	// ping failed; sessions then fall back to memory.
	Redis          *redis.Client
	RedisAvailable bool

	// Job runs background workers (Asynq server) and provides a client for enqueueing.
	Job *job.JobService

	// Runner executes external commands (pm2, git, npm, netstat).
	Runner shell.Runner

	cron       *cron.Cron
	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// It does NOT start the HTTP server directly. That is done in SetupHTTPServer + Start.
//
// Notes:
//   - A required database that does not answer blocks startup.
//   - Redis connection failure does not block startup (it logs and continues).
//   - JobService Start failure DOES block startup (returns error).
func New(surface Surface, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	server := &Server{
		Surface:       surface,
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Runner:        shell.NewRunner(logger, cfg.Manager.CommandTimeout),
	}

	if surface == SurfaceWeb {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		server.DB = db
	}

	// Redis connections are lazy; the ping only tells us whether it is there.
	server.Redis = redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})
	if loggerService != nil && loggerService.GetApplication() != nil {
		server.Redis.AddHook(nrredis.NewHook(server.Redis.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
	defer cancel()
	if err := server.Redis.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
	} else {
		server.RedisAvailable = true
	}

	// Alerts are only raised by the manager.
	if surface == SurfaceManager {
		server.Job = job.NewJobService(logger, cfg)
		server.Job.InitHandlers(cfg, logger)
		if err := server.Job.Start(); err != nil {
			server.closeStores()
			return nil, err
		}
	}

	server.startHealthChecks()

	return server, nil
}

// Port returns the port the surface listens on.
func (s *Server) Port() string {
	if s.Surface == SurfaceManager {
		return s.Config.Manager.Port
	}
	return s.Config.Server.Port
}

func (s *Server) tls() config.TLSConfig {
	if s.Surface == SurfaceManager {
		return s.Config.Manager.TLS
	}
	return s.Config.Server.TLS
}

// SetupHTTPServer configures the internal net/http server.
//
// The actual router/mux is passed in as handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Port(),
		Handler: handler,

		// Config stores int values, interpreted here as seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}

	// git clone and npm install run inside the request.
	if s.Surface == SurfaceManager && s.Config.Manager.UpdateTimeout > 0 {
		s.httpServer.WriteTimeout = s.Config.Manager.UpdateTimeout + time.Minute
	}
}

// Start runs the HTTP server. It serves HTTPS when both halves of the
// surface's certificate pair are configured.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	tlsCfg := s.tls()
	secure := tlsCfg.CertFile != "" && tlsCfg.KeyFile != ""

	s.Logger.Info().
		Str("surface", string(s.Surface)).
		Str("port", s.Port()).
		Str("env", s.Config.Primary.Env).
		Bool("tls", secure).
		Msg("starting server")

	if secure {
		return s.httpServer.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its dependencies.
//
// It stops the HTTP server (finishing inflight requests until ctx deadline),
// then the health checks, the job service and finally the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	return s.closeStores()
}

func (s *Server) closeStores() error {
	var firstErr error
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	return firstErr
}
