package game

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypePlayerJoined EventType = "player_joined"
	EventTypePlayerLeft   EventType = "player_left"
	EventTypeRoundStarted EventType = "round_started"
	EventTypeGuessResult  EventType = "guess_result"
	EventTypeRoundWon     EventType = "round_won"
	EventTypeGameOver     EventType = "game_over"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event produced by the session state machine.
// Events carry value snapshots rather than references into coordinator
// state, so subscribers may retain them freely.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// PlayerJoinedEvent is published when a player joins the game
type PlayerJoinedEvent struct {
	PlayerID  uuid.UUID
	Name      string
	Players   []string
	timestamp time.Time
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerJoinedEvent creates a new player joined event
func NewPlayerJoinedEvent(playerID uuid.UUID, name string, players []string) PlayerJoinedEvent {
	return PlayerJoinedEvent{
		PlayerID:  playerID,
		Name:      name,
		Players:   players,
		timestamp: time.Now(),
	}
}

// PlayerLeftEvent is published when a player disconnects
type PlayerLeftEvent struct {
	PlayerID  uuid.UUID
	Name      string
	Players   []string
	timestamp time.Time
}

func (e PlayerLeftEvent) EventType() EventType { return EventTypePlayerLeft }
func (e PlayerLeftEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerLeftEvent creates a new player left event
func NewPlayerLeftEvent(playerID uuid.UUID, name string, players []string) PlayerLeftEvent {
	return PlayerLeftEvent{
		PlayerID:  playerID,
		Name:      name,
		Players:   players,
		timestamp: time.Now(),
	}
}

// RoundStartedEvent is published when a new round opens for guesses
type RoundStartedEvent struct {
	Round     int
	Min       int
	Max       int
	timestamp time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundStartedEvent creates a new round started event
func NewRoundStartedEvent(round, min, max int) RoundStartedEvent {
	return RoundStartedEvent{
		Round:     round,
		Min:       min,
		Max:       max,
		timestamp: time.Now(),
	}
}

// GuessResultEvent is published for every applied guess. It is ephemeral:
// produced per guess, consumed by subscribers, never retained by the game.
type GuessResultEvent struct {
	PlayerID  uuid.UUID
	Player    string
	Value     int
	Outcome   Outcome
	Attempts  int
	Round     int
	timestamp time.Time
}

func (e GuessResultEvent) EventType() EventType { return EventTypeGuessResult }
func (e GuessResultEvent) Timestamp() time.Time { return e.timestamp }

// NewGuessResultEvent creates a new guess result event
func NewGuessResultEvent(playerID uuid.UUID, player string, value int, outcome Outcome, attempts, round int) GuessResultEvent {
	return GuessResultEvent{
		PlayerID:  playerID,
		Player:    player,
		Value:     value,
		Outcome:   outcome,
		Attempts:  attempts,
		Round:     round,
		timestamp: time.Now(),
	}
}

// RoundWonEvent is published when a round resolves, carrying the final
// standings for the series so far
type RoundWonEvent struct {
	Round     int
	WinnerID  uuid.UUID
	Winner    string
	Value     int
	Attempts  int
	Standings []Standing
	timestamp time.Time
}

func (e RoundWonEvent) EventType() EventType { return EventTypeRoundWon }
func (e RoundWonEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundWonEvent creates a new round won event
func NewRoundWonEvent(round int, winnerID uuid.UUID, winner string, value, attempts int, standings []Standing) RoundWonEvent {
	return RoundWonEvent{
		Round:     round,
		WinnerID:  winnerID,
		Winner:    winner,
		Value:     value,
		Attempts:  attempts,
		Standings: standings,
		timestamp: time.Now(),
	}
}

// GameOverEvent is published after the final round of a series resolves
type GameOverEvent struct {
	Champion  string
	Standings []Standing
	timestamp time.Time
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }
func (e GameOverEvent) Timestamp() time.Time { return e.timestamp }

// NewGameOverEvent creates a new game over event
func NewGameOverEvent(champion string, standings []Standing) GameOverEvent {
	return GameOverEvent{
		Champion:  champion,
		Standings: standings,
		timestamp: time.Now(),
	}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus. Publish delivers
// synchronously on the caller's goroutine, which is what preserves the
// guarantee that broadcasts observe guesses in mutation order.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
