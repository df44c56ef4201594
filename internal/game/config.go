package game

import "fmt"

// Config holds the tunables for a game series.
type Config struct {
	Min        int // Lowest possible secret, inclusive
	Max        int // Highest possible secret, inclusive
	MinPlayers int // Players required before a round auto-starts
	MaxPlayers int // Join cap; joins beyond this fail with ErrGameFull
	MaxRounds  int // Rounds per series before the game resolves
}

// DefaultConfig returns a config matching the classic 1-100 game.
func DefaultConfig() Config {
	return Config{
		Min:        1,
		Max:        100,
		MinPlayers: 1,
		MaxPlayers: 8,
		MaxRounds:  5,
	}
}

// Validate reports configuration errors. An empty or inverted secret range
// is fatal at startup and can never surface at runtime.
func (c Config) Validate() error {
	if c.Min > c.Max {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, c.Min, c.Max)
	}
	if c.MinPlayers < 1 {
		return fmt.Errorf("min players must be at least 1, got %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max players %d is below min players %d", c.MaxPlayers, c.MinPlayers)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", c.MaxRounds)
	}
	return nil
}
