package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/amenassefagashaye/USA3/internal/bingo"
	"github.com/amenassefagashaye/USA3/internal/config"
	"github.com/amenassefagashaye/USA3/internal/database"
	"github.com/amenassefagashaye/USA3/internal/handler/health"
	"github.com/amenassefagashaye/USA3/internal/migrations"
	"github.com/amenassefagashaye/USA3/internal/results"
	"github.com/amenassefagashaye/USA3/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin secret: %w", err)
	}

	deps := server.Deps{
		AdminHash:    adminHash,
		Checks:       map[string]health.Checker{},
		StaticDir:    cfg.StaticDir,
		DefaultStake: cfg.DefaultStake,
		SendBuffer:   cfg.SendBuffer,
	}
	opts := bingo.Options{
		FirstDrawDelay: cfg.FirstDrawDelay,
		DrawInterval:   cfg.DrawInterval,
	}

	// --- SQLite round ledger ---
	if cfg.Ledger {
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		defer db.Close()

		if err := migrations.Run(ctx, db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)

		store := results.NewSQLiteStore(db)
		opts.Recorder = store
		deps.Results = store
		deps.Checks["sqlite"] = store
	} else {
		logger.Warn("round ledger disabled")
	}

	// --- Game engine ---
	seed, err := bingo.NewSeed()
	if err != nil {
		return fmt.Errorf("seeding generator: %w", err)
	}
	registry := bingo.NewRegistry(ctx, logger, bingo.NewGenerator(seed), opts)
	defer registry.Close()
	deps.Registry = registry

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, deps)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
