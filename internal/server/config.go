package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/chickenrun/internal/game"
)

// Config is the complete server configuration.
type Config struct {
	Server      ServerSettings      `hcl:"server,block"`
	Game        GameSettings        `hcl:"game,block"`
	Persistence PersistenceSettings `hcl:"persistence,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	BroadcastMs   int    `hcl:"broadcast_ms,optional"`
	AllowedOrigin string `hcl:"allowed_origin,optional"`
}

// GameSettings paces the round engine and sets the table economy.
type GameSettings struct {
	BettingSeconds int     `hcl:"betting_seconds,optional"`
	ResolveSeconds int     `hcl:"resolve_seconds,optional"`
	CrossMs        int     `hcl:"cross_ms,optional"`
	RestMs         int     `hcl:"rest_ms,optional"`
	SettleMs       int     `hcl:"settle_ms,optional"`
	MinBet         float64 `hcl:"min_bet,optional"`
	StartBalance   float64 `hcl:"start_balance,optional"`
}

// PersistenceSettings locates the session snapshot.
type PersistenceSettings struct {
	DataDir string `hcl:"data_dir,optional"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:     "localhost",
			Port:        8080,
			LogLevel:    "info",
			BroadcastMs: 100,
		},
		Game: GameSettings{
			BettingSeconds: 15,
			ResolveSeconds: 5,
			CrossMs:        2000,
			RestMs:         2000,
			SettleMs:       4000,
			MinBet:         10,
			StartBalance:   game.DefaultStartBalance,
		},
		Persistence: PersistenceSettings{
			DataDir: ".",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	def := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = def.Server.LogLevel
	}
	if config.Server.BroadcastMs == 0 {
		config.Server.BroadcastMs = def.Server.BroadcastMs
	}
	if config.Game.BettingSeconds == 0 {
		config.Game.BettingSeconds = def.Game.BettingSeconds
	}
	if config.Game.ResolveSeconds == 0 {
		config.Game.ResolveSeconds = def.Game.ResolveSeconds
	}
	if config.Game.CrossMs == 0 {
		config.Game.CrossMs = def.Game.CrossMs
	}
	if config.Game.RestMs == 0 {
		config.Game.RestMs = def.Game.RestMs
	}
	if config.Game.SettleMs == 0 {
		config.Game.SettleMs = def.Game.SettleMs
	}
	if config.Game.MinBet == 0 {
		config.Game.MinBet = def.Game.MinBet
	}
	if config.Game.StartBalance == 0 {
		config.Game.StartBalance = def.Game.StartBalance
	}
	if config.Persistence.DataDir == "" {
		config.Persistence.DataDir = def.Persistence.DataDir
	}

	return &config, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.BroadcastMs < 10 {
		return fmt.Errorf("broadcast interval too small: %dms", c.Server.BroadcastMs)
	}
	if c.Game.BettingSeconds <= 0 || c.Game.ResolveSeconds <= 0 {
		return fmt.Errorf("phase durations must be positive")
	}
	if c.Game.CrossMs <= 0 || c.Game.RestMs <= 0 || c.Game.SettleMs <= 0 {
		return fmt.Errorf("lane timings must be positive")
	}
	if c.Game.MinBet <= 0 {
		return fmt.Errorf("min bet must be positive: %v", c.Game.MinBet)
	}
	if c.Game.StartBalance < c.Game.MinBet {
		return fmt.Errorf("start balance %v below min bet %v", c.Game.StartBalance, c.Game.MinBet)
	}
	return nil
}

// ListenAddress returns the full listener address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameConfig converts the settings into the engine's configuration.
func (c *Config) GameConfig() game.Config {
	return game.Config{
		BettingTime:  time.Duration(c.Game.BettingSeconds) * time.Second,
		ResolveTime:  time.Duration(c.Game.ResolveSeconds) * time.Second,
		CrossTime:    time.Duration(c.Game.CrossMs) * time.Millisecond,
		RestTime:     time.Duration(c.Game.RestMs) * time.Millisecond,
		SettleTime:   time.Duration(c.Game.SettleMs) * time.Millisecond,
		MinBet:       c.Game.MinBet,
		StartBalance: c.Game.StartBalance,
	}
}

// BroadcastInterval returns how often snapshots are pushed to clients.
func (c *Config) BroadcastInterval() time.Duration {
	return time.Duration(c.Server.BroadcastMs) * time.Millisecond
}
