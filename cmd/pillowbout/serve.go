package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/pillowbout/internal/adapters/http/api"
	"github.com/okian/pillowbout/internal/adapters/http/swagger"
	"github.com/okian/pillowbout/internal/adapters/repository"
	service "github.com/okian/pillowbout/internal/app"
	"github.com/okian/pillowbout/internal/config"
	"github.com/okian/pillowbout/internal/domain/rounds"
	"github.com/okian/pillowbout/pkg/logger"
	"github.com/okian/pillowbout/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the judging console API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{config.EnvFile},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides the config",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadFile(ctx, c.String("config"))
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.Addr = addr
			}
			return serve(ctx, cfg)
		},
	}
}

// sessionOptions translates the config into session options.
func sessionOptions(cfg *config.Config, log logger.Logger) ([]service.Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return []service.Option{
		service.WithLogger(log),
		service.WithDurations(rounds.Durations{Round: cfg.RoundSeconds, Tiebreaker: cfg.TiebreakerSeconds}),
		service.WithPointTable(cfg.PointTable()),
		service.WithLocation(loc),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithTickInterval(cfg.TickInterval()),
		service.WithStore(repository.NewFileStore(cfg.ScoresDir)),
	}, nil
}

// newHandler builds the routed mux for a started session.
func newHandler(ctx context.Context, session *service.Session, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(session, session, api.WithLogger(log.Named("http"))).Register(ctx, mux)
	return mux
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if err := metrics.RegisterRuntimeCollectors(); err != nil {
		log.Warn(ctx, "runtime collectors unavailable", logger.Error(err))
	}

	opts, err := sessionOptions(cfg, log)
	if err != nil {
		return err
	}
	session := service.New(opts...)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := session.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "session stop failed", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, session, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("scores_dir", cfg.ScoresDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
