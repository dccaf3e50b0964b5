package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"

	"github.com/lox/chickenrun/internal/game"
	"github.com/lox/chickenrun/internal/randutil"
	"github.com/lox/chickenrun/internal/store"
	"github.com/lox/chickenrun/internal/tui"
)

// PlayCmd runs the engine in-process and plays it from a terminal UI.
type PlayCmd struct {
	DataDir string `kong:"default='.',help='Directory for the session snapshot'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	LogFile string `kong:"help='Write logs to a file (the TUI owns the terminal)'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *PlayCmd) Run() error {
	// The TUI owns stdout, so logs go to a file or nowhere.
	logger := log.New(io.Discard)
	engineLogger := zerolog.Nop()
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = log.New(f)
		level := zerolog.InfoLevel
		if c.Debug {
			logger.SetLevel(log.DebugLevel)
			level = zerolog.DebugLevel
		}
		engineLogger = zerolog.New(f).Level(level).With().Timestamp().Logger()
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}

	engine := game.NewEngine(game.DefaultConfig(),
		game.WithRand(randutil.New(seed)),
		game.WithStore(store.NewFileStore(c.DataDir)),
		game.WithLogger(engineLogger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = engine.Run(ctx) }()

	return tui.Run(engine, logger)
}
