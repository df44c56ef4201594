package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	rand "math/rand/v2"

	"github.com/coder/quartz"

	"github.com/lox/guessrush/cmd/guessrush/shared"
	"github.com/lox/guessrush/internal/game"
	"github.com/lox/guessrush/internal/randutil"
	"github.com/lox/guessrush/internal/server"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Addr       string `kong:"default=':8080',help='Server listen address'"`
	Config     string `kong:"help='Path to an HCL config file; overrides the game flags'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
	Min        int    `kong:"default='1',help='Lowest possible secret'"`
	Max        int    `kong:"default='100',help='Highest possible secret'"`
	MinPlayers int    `kong:"default='1',help='Players required before a round auto-starts'"`
	MaxPlayers int    `kong:"default='8',help='Maximum connected players'"`
	MaxRounds  int    `kong:"default='5',help='Rounds per game series'"`
	Seed       *int64 `kong:"help='Deterministic RNG seed for the secret sequence (optional)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	// Setup RNG and seed
	var rng *rand.Rand
	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng = randutil.New(seed)

	gameCfg := game.Config{
		Min:        c.Min,
		Max:        c.Max,
		MinPlayers: c.MinPlayers,
		MaxPlayers: c.MaxPlayers,
		MaxRounds:  c.MaxRounds,
	}
	addr := c.Addr

	if c.Config != "" {
		fileCfg, err := server.LoadServerConfig(c.Config)
		if err != nil {
			return err
		}
		if err := fileCfg.Validate(); err != nil {
			return err
		}
		gameCfg = fileCfg.GameConfig()
		addr = fileCfg.GetServerAddress()
	}

	bus := game.NewEventBus()
	coordinator, err := game.NewCoordinator(gameCfg, logger, bus, rng, quartz.NewReal())
	if err != nil {
		return err
	}

	registry := server.NewRegistry(logger)
	bus.Subscribe(server.NewBroadcaster(registry, logger))

	s := server.NewServer(logger, coordinator, registry)

	logger.Info("starting guessrush server",
		"addr", addr,
		"range_min", gameCfg.Min,
		"range_max", gameCfg.Max,
		"min_players", gameCfg.MinPlayers,
		"max_players", gameCfg.MaxPlayers,
		"max_rounds", gameCfg.MaxRounds)

	// Setup graceful shutdown
	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
