package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/guessrush/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings defines the game series configuration
type GameSettings struct {
	Min        int `hcl:"min,optional"`
	Max        int `hcl:"max,optional"`
	MinPlayers int `hcl:"min_players,optional"`
	MaxPlayers int `hcl:"max_players,optional"`
	MaxRounds  int `hcl:"max_rounds,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: &GameSettings{
			Min:        1,
			Max:        100,
			MinPlayers: 1,
			MaxPlayers: 8,
			MaxRounds:  5,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file, falling back
// to defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing blocks and values
	defaults := DefaultServerConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Game == nil {
		config.Game = defaults.Game
	}
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.Min == 0 {
		config.Game.Min = defaults.Game.Min
	}
	if config.Game.Max == 0 {
		config.Game.Max = defaults.Game.Max
	}
	if config.Game.MinPlayers == 0 {
		config.Game.MinPlayers = defaults.Game.MinPlayers
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if config.Game.MaxRounds == 0 {
		config.Game.MaxRounds = defaults.Game.MaxRounds
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	return c.GameConfig().Validate()
}

// GameConfig converts the game settings into the game package's config.
func (c *ServerConfig) GameConfig() game.Config {
	return game.Config{
		Min:        c.Game.Min,
		Max:        c.Game.Max,
		MinPlayers: c.Game.MinPlayers,
		MaxPlayers: c.Game.MaxPlayers,
		MaxRounds:  c.Game.MaxRounds,
	}
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
