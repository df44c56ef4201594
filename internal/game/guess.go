package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedGuess is returned for guess payloads that are not integers or
// fall outside the configured range. Malformed guesses never reach the round
// state machine and mutate nothing.
var ErrMalformedGuess = errors.New("malformed guess")

// ParseGuess validates a raw guess payload before it is forwarded to the
// round state machine. The payload must decode as a bare JSON integer within
// [min, max]. ParseGuess is a pure translation layer so parsing rules can be
// tested independently of the state machine's concurrency rules.
func ParseGuess(raw json.RawMessage, min, max int) (int, error) {
	// Decode through a pointer so a JSON null is rejected instead of
	// silently becoming zero.
	var value *int
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return 0, fmt.Errorf("%w: expected an integer, got %q", ErrMalformedGuess, string(raw))
	}

	if *value < min || *value > max {
		return 0, fmt.Errorf("%w: %d is outside [%d, %d]", ErrMalformedGuess, *value, min, max)
	}

	return *value, nil
}
