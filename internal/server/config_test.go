package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guessrush.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfigFile(t, `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
}

game {
  min         = 1
  max         = 50
  min_players = 2
  max_players = 4
  max_rounds  = 3
}
`)

	config, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "0.0.0.0:9090", config.GetServerAddress())
	assert.Equal(t, "debug", config.Server.LogLevel)

	gc := config.GameConfig()
	assert.Equal(t, 1, gc.Min)
	assert.Equal(t, 50, gc.Max)
	assert.Equal(t, 2, gc.MinPlayers)
	assert.Equal(t, 4, gc.MaxPlayers)
	assert.Equal(t, 3, gc.MaxRounds)
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	config, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), config)
}

func TestLoadServerConfigPartial(t *testing.T) {
	path := writeConfigFile(t, `
game {
  max_rounds = 10
}
`)

	config, err := LoadServerConfig(path)
	require.NoError(t, err)

	// Unset values fall back to defaults
	assert.Equal(t, "localhost:8080", config.GetServerAddress())
	assert.Equal(t, 1, config.Game.Min)
	assert.Equal(t, 100, config.Game.Max)
	assert.Equal(t, 10, config.Game.MaxRounds)
}

func TestLoadServerConfigPartialRange(t *testing.T) {
	path := writeConfigFile(t, `
game {
  max = 50
}
`)

	config, err := LoadServerConfig(path)
	require.NoError(t, err)

	// An unset bound defaults on its own; max = 50 means [1, 50], not [0, 50]
	assert.Equal(t, 1, config.Game.Min)
	assert.Equal(t, 50, config.Game.Max)
}

func TestLoadServerConfigInvalidSyntax(t *testing.T) {
	path := writeConfigFile(t, `server { address = `)

	_, err := LoadServerConfig(path)
	assert.Error(t, err)
}

func TestServerConfigValidate(t *testing.T) {
	config := DefaultServerConfig()
	config.Server.Port = 0
	assert.Error(t, config.Validate())

	config = DefaultServerConfig()
	config.Game.Min = 50
	config.Game.Max = 10
	assert.Error(t, config.Validate())

	config = DefaultServerConfig()
	config.Game.MaxPlayers = 0
	assert.Error(t, config.Validate())
}
