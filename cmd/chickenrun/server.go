package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/chickenrun/cmd/chickenrun/shared"
	"github.com/lox/chickenrun/internal/game"
	"github.com/lox/chickenrun/internal/randutil"
	"github.com/lox/chickenrun/internal/server"
	"github.com/lox/chickenrun/internal/store"
)

// ServerCmd runs the engine behind the WebSocket gateway.
type ServerCmd struct {
	Config string `kong:"default='chickenrun.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	JSON   bool   `kong:"name='json',help='Structured JSON logs instead of console output'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	if c.JSON {
		logger = shared.SetupStructuredLogger(c.Debug)
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("using deterministic seed")
	}

	engine := game.NewEngine(cfg.GameConfig(),
		game.WithRand(randutil.New(seed)),
		game.WithStore(store.NewFileStore(cfg.Persistence.DataDir)),
		game.WithLogger(logger),
	)
	gateway := server.NewServer(cfg, engine, logger)

	logger.Info().
		Str("address", cfg.ListenAddress()).
		Dur("betting", cfg.GameConfig().BettingTime).
		Float64("min_bet", cfg.Game.MinBet).
		Str("data_dir", cfg.Persistence.DataDir).
		Msg("starting chickenrun server")

	ctx := shared.SetupSignalHandler(logger)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error { return gateway.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
