// Package game implements the core state engine for the number-guessing
// server: the round state machine, guess validation, and the coordinator
// that serializes all mutations to shared session state.
//
// The main type is Coordinator, which owns the single live Round and the
// player set. Every mutation (join, leave, guess, timer-driven round
// transitions) passes through the coordinator's lock, and resulting events
// are published to the EventBus inside the same logical step so that
// subscribers observe them in mutation order.
//
// # Deterministic Testing
//
// The coordinator accepts an injected *rand.Rand for secret generation and
// a quartz.Clock for round-transition timers:
//
//	rng := randutil.New(42)
//	clock := quartz.NewMock(t)
//	c, err := game.NewCoordinator(cfg, logger, bus, rng, clock)
//
// Tests can also construct a Round directly and drive submitGuess against a
// known secret.
package game
