package server

import (
	"encoding/json"
	"time"

	"github.com/lox/guessrush/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	Name string `json:"name"`
}

// GuessData carries the submitted value as raw JSON so that non-numeric
// payloads reach the guess processor for rejection instead of failing
// silently during envelope decoding.
type GuessData struct {
	Value json.RawMessage `json:"value"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type WelcomeData struct {
	PlayerID  string   `json:"playerId"`
	Name      string   `json:"name"`
	Round     int      `json:"round"`
	MaxRounds int      `json:"maxRounds"`
	Min       int      `json:"min"`
	Max       int      `json:"max"`
	Players   []string `json:"players"`
}

type PlayerJoinedData struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

type PlayerLeftData struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

type RoundStartedData struct {
	Round int `json:"round"`
	Min   int `json:"min"`
	Max   int `json:"max"`
}

type GuessResultData struct {
	Player   string `json:"player"`
	Value    int    `json:"value"`
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts"`
	Round    int    `json:"round"`
}

type StandingData struct {
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
	Attempts int    `json:"attempts"`
}

type RoundWonData struct {
	Round     int            `json:"round"`
	Winner    string         `json:"winner"`
	Value     int            `json:"value"`
	Attempts  int            `json:"attempts"`
	Standings []StandingData `json:"standings"`
}

type GameOverData struct {
	Champion  string         `json:"champion"`
	Standings []StandingData `json:"standings"`
}

// Helper functions to convert between internal types and message types

func StandingsFromGame(standings []game.Standing) []StandingData {
	out := make([]StandingData, len(standings))
	for i, s := range standings {
		out[i] = StandingData{
			Name:     s.Name,
			Wins:     s.Wins,
			Attempts: s.Attempts,
		}
	}
	return out
}
