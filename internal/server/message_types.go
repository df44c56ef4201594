package server

// Note: the payloads for game events (round_started, guess_result, etc.) are
// derived from internal/game events by the Broadcaster

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeJoin  MessageType = "join"
	MessageTypeGuess MessageType = "guess"

	// Server to client messages
	MessageTypeWelcome      MessageType = "welcome"
	MessageTypePlayerJoined MessageType = "player_joined"
	MessageTypePlayerLeft   MessageType = "player_left"
	MessageTypeRoundStarted MessageType = "round_started"
	MessageTypeGuessResult  MessageType = "guess_result"
	MessageTypeRoundWon     MessageType = "round_won"
	MessageTypeGameOver     MessageType = "game_over"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
