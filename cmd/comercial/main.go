// Command comercial runs the commercial reporting dashboard and the process
// manager sidecar.
//
//	comercial web      # dashboard under /comercial
//	comercial manager  # PM2 and port management API
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/handler"
	"github.com/grupotelles/comercial/internal/logger"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/router"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ShutdownTimeout bounds graceful shutdown after a signal.
const ShutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:           "comercial",
	Short:         "Commercial reporting dashboard and process manager",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the reporting dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), server.SurfaceWeb)
	},
}

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Serve the process manager API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), server.SurfaceManager)
	},
}

func init() {
	rootCmd.AddCommand(webCmd, managerCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("comercial exited")
	}
}

// run wires one surface and serves it until ctx is cancelled.
func run(ctx context.Context, surface server.Surface) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	validate := cfg.ValidateWeb
	if surface == server.SurfaceManager {
		validate = cfg.ValidateManager
	}
	if err := validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	srv, err := server.New(surface, cfg, &log, loggerService)
	if err != nil {
		return errors.Wrap(err, "initialize server")
	}

	var httpHandler http.Handler
	var closeServices func()

	switch surface {
	case server.SurfaceWeb:
		services, err := service.NewService(srv, repository.NewRepositories(srv))
		if err != nil {
			return errors.Wrap(err, "create services")
		}
		closeServices = services.Close

		r, err := router.NewWebRouter(srv, handler.NewHandlers(srv, services), services)
		if err != nil {
			services.Close()
			return errors.Wrap(err, "create router")
		}
		httpHandler = r
	case server.SurfaceManager:
		services := service.NewManagerService(srv)
		httpHandler = router.NewManagerRouter(srv, handler.NewManagerHandlers(srv, services))
		closeServices = func() {}
	}
	defer closeServices()

	srv.SetupHTTPServer(httpHandler)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "serve")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}
