package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// SessionState represents the coordinator's lifecycle stage
type SessionState int

const (
	StateIdle SessionState = iota
	StateLobby
	StateActive
	StateResolved
)

func (s SessionState) String() string {
	return [...]string{"idle", "lobby", "active", "resolved"}[s]
}

// nextRoundDelay is how long the session lingers in the resolved state
// before the next round starts, giving clients time to show standings.
const nextRoundDelay = 3 * time.Second

var (
	// ErrGameFull is returned when a join would exceed the player cap.
	ErrGameFull = errors.New("game is full")

	// ErrUnknownPlayer is returned for operations referencing a player that
	// is not (or no longer) part of the session.
	ErrUnknownPlayer = errors.New("unknown player")
)

// JoinInfo describes the session from a newly joined player's perspective.
type JoinInfo struct {
	PlayerID  uuid.UUID
	Name      string
	Round     int
	MaxRounds int
	Min       int
	Max       int
	Players   []string
}

// Status is a point-in-time snapshot of the session, used by the stats
// endpoint and by tests.
type Status struct {
	State     SessionState
	Round     int
	MaxRounds int
	Players   int
	Standings []Standing
}

// Coordinator orchestrates the session: it owns the single live Round and
// the player set, serializes every mutation through one lock, and publishes
// resulting events to the bus inside the same critical section. Broadcast
// delivery happens behind per-connection queues elsewhere, so a slow peer
// never extends this lock's hold time.
type Coordinator struct {
	cfg    Config
	logger *log.Logger
	bus    EventBus
	clock  quartz.Clock

	mu           sync.Mutex
	rng          *rand.Rand
	state        SessionState
	players      map[uuid.UUID]*Player
	round        *Round
	roundNum     int
	advanceTimer *quartz.Timer
}

// NewCoordinator creates a coordinator for a single shared game. An invalid
// config (notably an empty or inverted secret range) is rejected here, at
// startup, and never surfaces mid-game.
func NewCoordinator(cfg Config, logger *log.Logger, bus EventBus, rng *rand.Rand, clock quartz.Clock) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}

	return &Coordinator{
		cfg:      cfg,
		logger:   logger.WithPrefix("coordinator"),
		bus:      bus,
		clock:    clock,
		rng:      rng,
		state:    StateIdle,
		players:  make(map[uuid.UUID]*Player),
		roundNum: 1,
	}, nil
}

// Join adds a player to the session. Duplicate display names are fine; each
// join gets a distinct identifier. An empty name gets a generated fallback.
// Joining may auto-start a round once the configured player threshold is met.
func (c *Coordinator) Join(name string) (JoinInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.players) >= c.cfg.MaxPlayers {
		return JoinInfo{}, fmt.Errorf("%w: %d players connected", ErrGameFull, len(c.players))
	}

	id := uuid.New()
	if name == "" {
		name = "player-" + id.String()[:8]
	}

	p := &Player{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}
	c.players[id] = p

	if c.state == StateIdle {
		c.state = StateLobby
	}

	c.logger.Info("player joined", "player", name, "id", id, "total", len(c.players))
	c.bus.Publish(NewPlayerJoinedEvent(id, name, c.playerNamesLocked()))

	if c.state == StateLobby && len(c.players) >= c.cfg.MinPlayers {
		c.startRoundLocked()
	}

	return JoinInfo{
		PlayerID:  id,
		Name:      name,
		Round:     c.roundNum,
		MaxRounds: c.cfg.MaxRounds,
		Min:       c.cfg.Min,
		Max:       c.cfg.Max,
		Players:   c.playerNamesLocked(),
	}, nil
}

// Leave removes a player. It is an idempotent no-op for unknown identifiers,
// so disconnect cleanup may run more than once. Guesses are processed
// synchronously before disconnects are observed, so leaving never invalidates
// an already-recorded guess.
func (c *Coordinator) Leave(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players[id]
	if !ok {
		return
	}
	delete(c.players, id)

	c.logger.Info("player left", "player", p.Name, "remaining", len(c.players))
	c.bus.Publish(NewPlayerLeftEvent(id, p.Name, c.playerNamesLocked()))

	if len(c.players) == 0 {
		// Series is abandoned once the room empties; the next connect gets
		// a fresh game from round 1.
		if c.advanceTimer != nil {
			c.advanceTimer.Stop()
		}
		c.state = StateIdle
		c.round = nil
		c.roundNum = 1
	}
}

// Guess validates and applies a single guess for the identified player.
// TooLow, TooHigh and Correct outcomes are published as GuessResult events
// in the order guesses were applied; error conditions are returned to the
// caller and never broadcast.
func (c *Coordinator) Guess(id uuid.UUID, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players[id]
	if !ok {
		return ErrUnknownPlayer
	}

	value, err := ParseGuess(raw, c.cfg.Min, c.cfg.Max)
	if err != nil {
		return err
	}

	switch c.state {
	case StateActive:
	case StateResolved:
		return ErrRoundAlreadyWon
	default:
		return ErrRoundNotActive
	}

	outcome, err := c.round.submitGuess(p, value)
	if err != nil {
		return err
	}

	c.bus.Publish(NewGuessResultEvent(p.ID, p.Name, value, outcome, p.Attempts, c.roundNum))

	if outcome == Correct {
		p.Wins++
		c.state = StateResolved
		c.logger.Info("round won", "round", c.roundNum, "winner", p.Name, "attempts", p.Attempts)
		c.bus.Publish(NewRoundWonEvent(c.roundNum, p.ID, p.Name, value, p.Attempts, standingsOf(c.players)))
		c.advanceTimer = c.clock.AfterFunc(nextRoundDelay, c.advance)
	}

	return nil
}

// advance moves the session out of the resolved state once the post-round
// delay elapses: on to the next round, or through game-over and back to
// round 1 after the final round of the series.
func (c *Coordinator) advance() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateResolved {
		return
	}

	if c.roundNum >= c.cfg.MaxRounds {
		standings := standingsOf(c.players)
		champion := ""
		if len(standings) > 0 {
			champion = standings[0].Name
		}
		c.logger.Info("game over", "rounds", c.cfg.MaxRounds, "champion", champion)
		c.bus.Publish(NewGameOverEvent(champion, standings))

		for _, p := range c.players {
			p.Wins = 0
			p.Attempts = 0
		}
		c.roundNum = 1
	} else {
		c.roundNum++
	}

	c.round.reset()
	c.state = StateLobby

	if len(c.players) >= c.cfg.MinPlayers {
		c.startRoundLocked()
	} else if len(c.players) == 0 {
		c.state = StateIdle
	}
}

// startRoundLocked opens a new round. Callers must hold c.mu.
func (c *Coordinator) startRoundLocked() {
	c.round = newRound(c.roundNum)
	if err := c.round.start(c.rng, c.cfg.Min, c.cfg.Max); err != nil {
		// The range is validated at construction, so this is unreachable at
		// runtime; log rather than crash the session if it ever regresses.
		c.logger.Error("failed to start round", "error", err)
		return
	}

	for _, p := range c.players {
		p.Attempts = 0
	}
	c.state = StateActive

	c.logger.Info("round started", "round", c.roundNum, "players", len(c.players))
	c.bus.Publish(NewRoundStartedEvent(c.roundNum, c.cfg.Min, c.cfg.Max))
}

// playerNamesLocked returns the connected display names sorted for stable
// output. Callers must hold c.mu.
func (c *Coordinator) playerNamesLocked() []string {
	names := make([]string, 0, len(c.players))
	for _, p := range c.players {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// State returns the coordinator's current lifecycle stage.
func (c *Coordinator) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PlayerCount returns the number of connected players.
func (c *Coordinator) PlayerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.players)
}

// Snapshot returns a point-in-time view of the session.
func (c *Coordinator) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		State:     c.state,
		Round:     c.roundNum,
		MaxRounds: c.cfg.MaxRounds,
		Players:   len(c.players),
		Standings: standingsOf(c.players),
	}
}
