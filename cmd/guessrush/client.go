package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/guessrush/cmd/guessrush/shared"
	"github.com/lox/guessrush/internal/server"
)

// ClientCmd connects to a server as an interactive player
type ClientCmd struct {
	URL   string `kong:"default='ws://localhost:8080/ws',help='Server WebSocket URL'"`
	Name  string `kong:"help='Display name; generated by the server when empty'"`
	Debug bool   `kong:"help='Enable debug logging'"`
}

var (
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	playerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#74B9FF"))
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

func (c *ClientCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandler()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.URL, err)
	}

	join, err := server.NewMessage(server.MessageTypeJoin, server.JoinData{Name: c.Name})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	// Stdin reads cannot be interrupted, so the write loop runs detached;
	// it exits on the first failed write after the connection closes.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var value json.RawMessage
			if n, err := strconv.Atoi(line); err == nil {
				value, _ = json.Marshal(n)
			} else {
				// Let the server reject it so the user sees the real error
				value, _ = json.Marshal(line)
			}

			guess, err := server.NewMessage(server.MessageTypeGuess, server.GuessData{Value: value})
			if err != nil {
				continue
			}
			if err := conn.WriteJSON(guess); err != nil {
				return
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})

	g.Go(func() error {
		for {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return err
			}
			logger.Debug("received message", "type", msg.Type)
			fmt.Println(render(&msg))
		}
	})

	err = g.Wait()
	if ctx.Err() != nil {
		// Interrupted by the user; the read error is just the closed socket
		return nil
	}
	return err
}

// render formats a server message for the terminal
func render(msg *server.Message) string {
	switch msg.Type {
	case server.MessageTypeWelcome:
		var data server.WelcomeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return infoStyle.Render(fmt.Sprintf("Welcome %s! Round %d/%d - guess a number between %d and %d. Players: %s",
			data.Name, data.Round, data.MaxRounds, data.Min, data.Max, strings.Join(data.Players, ", ")))

	case server.MessageTypePlayerJoined:
		var data server.PlayerJoinedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return playerStyle.Render(fmt.Sprintf("%s joined the game (%d players)", data.Name, len(data.Players)))

	case server.MessageTypePlayerLeft:
		var data server.PlayerLeftData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return playerStyle.Render(fmt.Sprintf("%s left the game (%d players)", data.Name, len(data.Players)))

	case server.MessageTypeRoundStarted:
		var data server.RoundStartedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return winStyle.Render(fmt.Sprintf("=== ROUND %d STARTED === guess a number between %d and %d", data.Round, data.Min, data.Max))

	case server.MessageTypeGuessResult:
		var data server.GuessResultData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return fmt.Sprintf("%s guessed %d: %s (attempt %d)", data.Player, data.Value, data.Outcome, data.Attempts)

	case server.MessageTypeRoundWon:
		var data server.RoundWonData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return winStyle.Render(fmt.Sprintf("%s wins round %d with %d after %d attempts!\n%s",
			data.Winner, data.Round, data.Value, data.Attempts, renderStandings(data.Standings)))

	case server.MessageTypeGameOver:
		var data server.GameOverData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return winStyle.Render(fmt.Sprintf("GAME OVER - %s is the champion!\n%s", data.Champion, renderStandings(data.Standings)))

	case server.MessageTypeError:
		var data server.ErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			break
		}
		return errorStyle.Render(fmt.Sprintf("error (%s): %s", data.Code, data.Message))
	}

	return infoStyle.Render(fmt.Sprintf("unhandled message: %s", msg.Type))
}

func renderStandings(standings []server.StandingData) string {
	var b strings.Builder
	b.WriteString("Standings:")
	for i, s := range standings {
		b.WriteString(fmt.Sprintf("\n%d. %s - %d wins (%d attempts)", i+1, s.Name, s.Wins, s.Attempts))
	}
	return b.String()
}
