package game

import (
	"errors"
	rand "math/rand/v2"
	"time"
)

// Phase represents the lifecycle stage of a round
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseInProgress
	PhaseWon
)

func (p Phase) String() string {
	return [...]string{"waiting", "in_progress", "won"}[p]
}

// Outcome represents the result of evaluating a single guess
type Outcome int

const (
	TooLow Outcome = iota
	TooHigh
	Correct
)

func (o Outcome) String() string {
	return [...]string{"too_low", "too_high", "correct"}[o]
}

var (
	// ErrInvalidRange is returned when the configured secret range is empty
	// or inverted. This is a configuration error and only occurs at startup.
	ErrInvalidRange = errors.New("secret range is empty or inverted")

	// ErrRoundNotActive is returned for guesses submitted while no round is
	// in progress.
	ErrRoundNotActive = errors.New("round is not active")

	// ErrRoundAlreadyWon is returned to the loser of a guess race: the round
	// was won before their guess acquired the state lock.
	ErrRoundAlreadyWon = errors.New("round already won")
)

// Round owns a single secret-number play-through. Round carries no lock of
// its own: the coordinator serializes every access, which is what makes the
// won transition in submitGuess a true compare-and-set rather than a
// read-then-write race.
type Round struct {
	number    int
	secret    int
	phase     Phase
	winner    *Player
	createdAt time.Time
}

func newRound(number int) *Round {
	return &Round{
		number:    number,
		phase:     PhaseWaiting,
		createdAt: time.Now(),
	}
}

// start draws a fresh secret uniformly from [min, max] and opens the round
// for guesses.
func (r *Round) start(rng *rand.Rand, min, max int) error {
	if min > max {
		return ErrInvalidRange
	}

	r.secret = min + rng.IntN(max-min+1)
	r.phase = PhaseInProgress
	r.winner = nil
	return nil
}

// reset clears the winner and returns the round to the waiting phase.
func (r *Round) reset() {
	r.phase = PhaseWaiting
	r.winner = nil
}

// submitGuess evaluates value against the secret and increments the player's
// attempt count. A round transitions to won at most once: the first correct
// guess records the winner, and any guess that arrives once the phase is won
// gets ErrRoundAlreadyWon with no attempt increment.
func (r *Round) submitGuess(p *Player, value int) (Outcome, error) {
	switch r.phase {
	case PhaseWaiting:
		return 0, ErrRoundNotActive
	case PhaseWon:
		return 0, ErrRoundAlreadyWon
	}

	p.Attempts++

	switch {
	case value < r.secret:
		return TooLow, nil
	case value > r.secret:
		return TooHigh, nil
	default:
		r.phase = PhaseWon
		r.winner = p
		return Correct, nil
	}
}

// Number returns the round's position in the series, starting at 1.
func (r *Round) Number() int {
	return r.number
}

// Phase returns the round's current lifecycle stage.
func (r *Round) Phase() Phase {
	return r.phase
}

// Winner returns the winning player, or nil if the round has not been won.
func (r *Round) Winner() *Player {
	return r.winner
}
