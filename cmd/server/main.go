package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/beasthike/internal/config"
	"github.com/playperu/beasthike/internal/database"
	"github.com/playperu/beasthike/internal/game"
	"github.com/playperu/beasthike/internal/geo"
	"github.com/playperu/beasthike/internal/handler/health"
	"github.com/playperu/beasthike/internal/migrations"
	"github.com/playperu/beasthike/internal/server"
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

	course, err := cfg.Course()
	if err != nil {
		return fmt.Errorf("reading course: %w", err)
	}

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "migrations_applied", applied)

	store := server.NewDocStore(db)

	// --- Game ---
	catalogue, err := loadCatalogue(cfg.GeneratorsPath)
	if err != nil {
		return err
	}
	rng, err := newRand()
	if err != nil {
		return err
	}
	planner, err := game.NewPlanner(catalogue, cfg.NumBeasts, rng)
	if err != nil {
		return fmt.Errorf("building planner: %w", err)
	}

	broker := server.NewBroker()
	engine := game.NewEngine(ctx, logger, store, planner, game.Options{
		Course:   course,
		Notifier: broker,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, engine, broker, server.Options{
		StaticDir: cfg.StaticDir,
		LinesPath: cfg.LinesPath,
		Scale:     geo.ScaleAt(course.HikerStart.Lat()),
		Checks: map[string]health.Checker{
			"sqlite": health.CheckerFunc(store.Ping),
		},
	})

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

	g.Go(func() error {
		logger.Info("starting game clock", "interval", cfg.TickInterval)
		return engine.Run(gctx, cfg.TickInterval)
	})

	return g.Wait()
}

func loadCatalogue(path string) (game.Catalogue, error) {
	if path == "" {
		return game.DefaultCatalogue()
	}
	c, err := game.LoadCatalogue(path)
	if err != nil {
		return nil, fmt.Errorf("loading generators from %s: %w", path, err)
	}
	return c, nil
}

// newRand seeds the round planner from crypto/rand.
func newRand() (*rand.Rand, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	)), nil
}
