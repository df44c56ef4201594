package game

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/guessrush/internal/randutil"
)

// eventRecorder captures published events for assertions. Publish happens
// under the coordinator's lock, so the recorder needs its own.
type eventRecorder struct {
	mu     sync.Mutex
	events []GameEvent
}

func (r *eventRecorder) OnEvent(event GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) byType(et EventType) []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []GameEvent
	for _, e := range r.events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *eventRecorder, *quartz.Mock) {
	t.Helper()

	bus := NewEventBus()
	recorder := &eventRecorder{}
	bus.Subscribe(recorder)

	clock := quartz.NewMock(t)
	c, err := NewCoordinator(cfg, log.New(io.Discard), bus, randutil.New(42), clock)
	require.NoError(t, err)
	return c, recorder, clock
}

// setSecret fixes the live round's secret for deterministic outcomes
func setSecret(c *Coordinator, secret int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.round.secret = secret
}

func TestNewCoordinator_InvalidRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Min, cfg.Max = 10, 1

	_, err := NewCoordinator(cfg, log.New(io.Discard), NewEventBus(), randutil.New(42), quartz.NewMock(t))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestCoordinator_JoinAutoStartsRound(t *testing.T) {
	c, recorder, _ := newTestCoordinator(t, DefaultConfig())

	info, err := c.Join("alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", info.Name)
	assert.Equal(t, 1, info.Round)
	assert.Equal(t, 5, info.MaxRounds)
	assert.Equal(t, []string{"alice"}, info.Players)
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, []EventType{EventTypePlayerJoined, EventTypeRoundStarted}, recorder.types())
}

func TestCoordinator_MinPlayersThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPlayers = 2
	c, recorder, _ := newTestCoordinator(t, cfg)

	_, err := c.Join("alice")
	require.NoError(t, err)
	assert.Equal(t, StateLobby, c.State())
	assert.Empty(t, recorder.byType(EventTypeRoundStarted))

	_, err = c.Join("bob")
	require.NoError(t, err)
	assert.Equal(t, StateActive, c.State())
	assert.Len(t, recorder.byType(EventTypeRoundStarted), 1)
}

func TestCoordinator_GameFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 1
	c, _, _ := newTestCoordinator(t, cfg)

	_, err := c.Join("alice")
	require.NoError(t, err)

	_, err = c.Join("bob")
	require.ErrorIs(t, err, ErrGameFull)
	assert.Equal(t, 1, c.PlayerCount())
}

func TestCoordinator_GeneratedNameFallback(t *testing.T) {
	c, _, _ := newTestCoordinator(t, DefaultConfig())

	info, err := c.Join("")
	require.NoError(t, err)
	assert.NotEmpty(t, info.Name)
}

func TestCoordinator_GuessWhileWaiting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPlayers = 2
	c, recorder, _ := newTestCoordinator(t, cfg)

	info, err := c.Join("alice")
	require.NoError(t, err)

	err = c.Guess(info.PlayerID, []byte(`5`))
	require.ErrorIs(t, err, ErrRoundNotActive)
	assert.Empty(t, recorder.byType(EventTypeGuessResult))

	status := c.Snapshot()
	require.Len(t, status.Standings, 1)
	assert.Zero(t, status.Standings[0].Attempts, "rejected guess must not count as an attempt")
}

func TestCoordinator_MalformedGuess(t *testing.T) {
	c, recorder, _ := newTestCoordinator(t, DefaultConfig())

	info, err := c.Join("alice")
	require.NoError(t, err)

	err = c.Guess(info.PlayerID, []byte(`"abc"`))
	require.ErrorIs(t, err, ErrMalformedGuess)

	// No state mutation, no broadcast
	assert.Empty(t, recorder.byType(EventTypeGuessResult))
	status := c.Snapshot()
	assert.Zero(t, status.Standings[0].Attempts)
	assert.Equal(t, StateActive, status.State)
}

func TestCoordinator_UnknownPlayer(t *testing.T) {
	c, _, _ := newTestCoordinator(t, DefaultConfig())
	_, err := c.Join("alice")
	require.NoError(t, err)

	err = c.Guess(uuid.New(), []byte(`5`))
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestCoordinator_GuessFlow(t *testing.T) {
	c, recorder, clock := newTestCoordinator(t, DefaultConfig())

	alice, err := c.Join("alice")
	require.NoError(t, err)
	bob, err := c.Join("bob")
	require.NoError(t, err)
	setSecret(c, 7)

	require.NoError(t, c.Guess(alice.PlayerID, []byte(`3`)))
	require.NoError(t, c.Guess(bob.PlayerID, []byte(`9`)))
	require.NoError(t, c.Guess(alice.PlayerID, []byte(`7`)))

	results := recorder.byType(EventTypeGuessResult)
	require.Len(t, results, 3)

	first := results[0].(GuessResultEvent)
	assert.Equal(t, "alice", first.Player)
	assert.Equal(t, TooLow, first.Outcome)
	assert.Equal(t, 1, first.Attempts)

	second := results[1].(GuessResultEvent)
	assert.Equal(t, "bob", second.Player)
	assert.Equal(t, TooHigh, second.Outcome)
	assert.Equal(t, 1, second.Attempts)

	third := results[2].(GuessResultEvent)
	assert.Equal(t, "alice", third.Player)
	assert.Equal(t, Correct, third.Outcome)
	assert.Equal(t, 2, third.Attempts)

	assert.Equal(t, StateResolved, c.State())

	wins := recorder.byType(EventTypeRoundWon)
	require.Len(t, wins, 1)
	won := wins[0].(RoundWonEvent)
	assert.Equal(t, "alice", won.Winner)
	assert.Equal(t, 7, won.Value)
	assert.Equal(t, []Standing{
		{Name: "alice", Wins: 1, Attempts: 2},
		{Name: "bob", Wins: 0, Attempts: 1},
	}, won.Standings)

	// A guess that arrives while resolved is too late, not an error
	err = c.Guess(bob.PlayerID, []byte(`7`))
	assert.ErrorIs(t, err, ErrRoundAlreadyWon)

	// After the post-round delay the next round starts with attempts reset
	clock.Advance(nextRoundDelay).MustWait(context.Background())

	assert.Equal(t, StateActive, c.State())
	status := c.Snapshot()
	assert.Equal(t, 2, status.Round)
	for _, s := range status.Standings {
		assert.Zero(t, s.Attempts)
	}
	assert.Len(t, recorder.byType(EventTypeRoundStarted), 2)
}

func TestCoordinator_ConcurrentCorrectGuesses(t *testing.T) {
	c, recorder, _ := newTestCoordinator(t, DefaultConfig())

	alice, err := c.Join("alice")
	require.NoError(t, err)
	bob, err := c.Join("bob")
	require.NoError(t, err)
	setSecret(c, 7)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = c.Guess(alice.PlayerID, []byte(`7`))
	}()
	go func() {
		defer wg.Done()
		errs[1] = c.Guess(bob.PlayerID, []byte(`7`))
	}()
	wg.Wait()

	// Exactly one winner; the race loser is told the round was already won
	var winners, losers int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case assert.ErrorIs(t, err, ErrRoundAlreadyWon):
			losers++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	var correct int
	for _, e := range recorder.byType(EventTypeGuessResult) {
		if e.(GuessResultEvent).Outcome == Correct {
			correct++
		}
	}
	assert.Equal(t, 1, correct)
	assert.Len(t, recorder.byType(EventTypeRoundWon), 1)
}

func TestCoordinator_SeriesGameOver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRounds = 2
	c, recorder, clock := newTestCoordinator(t, cfg)

	alice, err := c.Join("alice")
	require.NoError(t, err)

	setSecret(c, 7)
	require.NoError(t, c.Guess(alice.PlayerID, []byte(`7`)))
	clock.Advance(nextRoundDelay).MustWait(context.Background())
	require.Equal(t, 2, c.Snapshot().Round)

	setSecret(c, 13)
	require.NoError(t, c.Guess(alice.PlayerID, []byte(`13`)))
	clock.Advance(nextRoundDelay).MustWait(context.Background())

	overs := recorder.byType(EventTypeGameOver)
	require.Len(t, overs, 1)
	over := overs[0].(GameOverEvent)
	assert.Equal(t, "alice", over.Champion)
	require.Len(t, over.Standings, 1)
	assert.Equal(t, 2, over.Standings[0].Wins)

	// A fresh series begins: round 1, tallies cleared
	status := c.Snapshot()
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, 1, status.Round)
	assert.Zero(t, status.Standings[0].Wins)
}

func TestCoordinator_LeaveReturnsToIdle(t *testing.T) {
	c, recorder, _ := newTestCoordinator(t, DefaultConfig())

	info, err := c.Join("alice")
	require.NoError(t, err)
	require.Equal(t, StateActive, c.State())

	c.Leave(info.PlayerID)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.PlayerCount())
	assert.Len(t, recorder.byType(EventTypePlayerLeft), 1)

	// Idempotent: a second leave publishes nothing
	c.Leave(info.PlayerID)
	assert.Len(t, recorder.byType(EventTypePlayerLeft), 1)
}

func TestCoordinator_WinnerLeavingKeepsResult(t *testing.T) {
	c, recorder, clock := newTestCoordinator(t, DefaultConfig())

	alice, err := c.Join("alice")
	require.NoError(t, err)
	_, err = c.Join("bob")
	require.NoError(t, err)
	setSecret(c, 7)

	require.NoError(t, c.Guess(alice.PlayerID, []byte(`7`)))
	c.Leave(alice.PlayerID)

	// Bob remains, so the series carries on into round 2
	clock.Advance(nextRoundDelay).MustWait(context.Background())
	status := c.Snapshot()
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, 2, status.Round)
	assert.Len(t, recorder.byType(EventTypeRoundWon), 1)
}
