package server

import (
	"github.com/charmbracelet/log"

	"github.com/lox/guessrush/internal/game"
)

// Broadcaster translates game events into wire messages and fans them out
// through the registry. It subscribes to the coordinator's event bus, so
// OnEvent runs synchronously inside the coordinator's critical section:
// messages are enqueued to every peer in mutation order, and the actual
// socket writes happen later on each connection's write pump.
type Broadcaster struct {
	registry *Registry
	logger   *log.Logger
}

// NewBroadcaster creates a broadcaster over the given registry
func NewBroadcaster(registry *Registry, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger.WithPrefix("broadcaster"),
	}
}

// OnEvent implements game.EventSubscriber. Delivery is best effort: a
// failure for one peer never propagates back into the game layer.
func (b *Broadcaster) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.PlayerJoinedEvent:
		b.broadcast(MessageTypePlayerJoined, PlayerJoinedData{
			Name:    e.Name,
			Players: e.Players,
		})

	case game.PlayerLeftEvent:
		b.broadcast(MessageTypePlayerLeft, PlayerLeftData{
			Name:    e.Name,
			Players: e.Players,
		})

	case game.RoundStartedEvent:
		b.broadcast(MessageTypeRoundStarted, RoundStartedData{
			Round: e.Round,
			Min:   e.Min,
			Max:   e.Max,
		})

	case game.GuessResultEvent:
		b.broadcast(MessageTypeGuessResult, GuessResultData{
			Player:   e.Player,
			Value:    e.Value,
			Outcome:  e.Outcome.String(),
			Attempts: e.Attempts,
			Round:    e.Round,
		})

	case game.RoundWonEvent:
		b.broadcast(MessageTypeRoundWon, RoundWonData{
			Round:     e.Round,
			Winner:    e.Winner,
			Value:     e.Value,
			Attempts:  e.Attempts,
			Standings: StandingsFromGame(e.Standings),
		})

	case game.GameOverEvent:
		b.broadcast(MessageTypeGameOver, GameOverData{
			Champion:  e.Champion,
			Standings: StandingsFromGame(e.Standings),
		})

	default:
		b.logger.Warn("no wire mapping for event", "type", event.EventType())
	}
}

func (b *Broadcaster) broadcast(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		b.logger.Error("failed to encode broadcast message", "type", messageType, "error", err)
		return
	}
	b.registry.Broadcast(msg)
}
