package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ctchen222/Connect-Four/internal/config"
	"ctchen222/Connect-Four/internal/db"
	"ctchen222/Connect-Four/internal/events"
	"ctchen222/Connect-Four/internal/hub"
	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/logger"
	"ctchen222/Connect-Four/internal/repository"
	"ctchen222/Connect-Four/internal/server"
	"ctchen222/Connect-Four/internal/session"
	"ctchen222/Connect-Four/internal/telemetry"

	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}

	logger.Init(cfg.LogLevel)

	runErr := run(ctx, cfg)
	if runErr != nil {
		slog.ErrorContext(ctx, "Server stopped with error", "error", runErr)
	} else {
		slog.InfoContext(ctx, "Server exiting")
	}

	if err := shutdown(context.Background()); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	scores, closeScores, err := openScores(ctx, cfg.Scores)
	if err != nil {
		return err
	}
	defer closeScores()

	bus := events.NewBus()
	h := hub.NewHub(bus, scores, types.Limits{
		DefaultRows:    cfg.Game.Rows,
		DefaultCols:    cfg.Game.Cols,
		DefaultConnect: cfg.Game.ConnectLength,
		MaxRows:        cfg.Game.MaxRows,
		MaxCols:        cfg.Game.MaxCols,
	})
	defer h.Close()

	srv := server.NewServer(ctx, h, bus, session.Options{
		PingInterval: cfg.HTTP.PingInterval,
		PongWait:     cfg.HTTP.PongWait,
		MaxMessage:   cfg.HTTP.MaxMessageBytes,
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "HTTP server started", "http.addr", cfg.HTTP.Addr, "scores.backend", cfg.Scores.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.InfoContext(gctx, "Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openScores builds the score repository for the configured backend. The
// returned func releases the underlying connection.
func openScores(ctx context.Context, cfg config.Scores) (repository.ScoreRepository, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		return repository.NewRedisScoreRepository(rdb), func() { rdb.Close() }, nil
	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize sqlite db: %w", err)
		}
		return repository.NewSQLiteScoreRepository(sqlDB), func() { sqlDB.Close() }, nil
	case config.BackendMemory:
		return repository.NewMemoryScoreRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown score backend %q", cfg.Backend)
	}
}
