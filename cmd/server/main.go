package main // Entry point package

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/redis-counter/internal/config"
	"github.com/iliyamo/redis-counter/internal/database"
	"github.com/iliyamo/redis-counter/internal/handler"
	"github.com/iliyamo/redis-counter/internal/middleware"
	"github.com/iliyamo/redis-counter/internal/queue"
	"github.com/iliyamo/redis-counter/internal/repository"
	"github.com/iliyamo/redis-counter/internal/router"
	"github.com/iliyamo/redis-counter/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newRootCmd() *cobra.Command {
	var (
		port      string
		redisHost string
	)

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the web counter backed by Redis",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if redisHost != "" {
				cfg.Redis.Host = redisHost
			}
			setupLogging(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides APP_PORT)")
	cmd.Flags().StringVar(&redisHost, "redis-host", "", "Redis host (overrides REDIS_HOST)")
	return cmd
}

func setupLogging(cfg config.Config) {
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func run(ctx context.Context, cfg config.Config) error {
	rdb, err := database.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var opts []service.Option
	if cfg.Events.Enabled {
		pub := service.NewAMQPPublisher(cfg.Events.URL)
		defer pub.Close()
		opts = append(opts, service.WithEvents(pub))

		if cfg.Events.AuditLog != "" {
			go func() {
				if err := queue.StartAuditConsumer(ctx, cfg.Events.URL, cfg.Events.AuditLog); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("audit consumer stopped")
				}
			}()
		}
	}

	svc := service.NewCounterService(repository.NewCounterRepo(rdb), opts...)
	e := router.New(log.Logger)
	router.RegisterRoutes(e, handler.NewCounterHandler(svc), middleware.NewTokenBucket(cfg.RateLimit, rdb))

	return serve(ctx, e, ":"+cfg.Port, cfg.Env)
}

func serve(ctx context.Context, e *echo.Echo, addr, env string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", env).Msg("listening")
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}
