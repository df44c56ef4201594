package game

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Player represents a connected participant. The ID is assigned at join time
// and is never reused; Attempts resets to zero at the start of every round
// while Wins accumulates across the rounds of a series.
type Player struct {
	ID       uuid.UUID
	Name     string
	Attempts int
	Wins     int
	JoinedAt time.Time
}

// Standing is a leaderboard row, broadcast when a round resolves and when
// the series ends.
type Standing struct {
	Name     string
	Wins     int
	Attempts int
}

// standingsOf snapshots the leaderboard sorted by wins descending, with name
// as a tiebreaker so the ordering is stable for equal scores.
func standingsOf(players map[uuid.UUID]*Player) []Standing {
	standings := make([]Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, Standing{
			Name:     p.Name,
			Wins:     p.Wins,
			Attempts: p.Attempts,
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Wins != standings[j].Wins {
			return standings[i].Wins > standings[j].Wins
		}
		return standings[i].Name < standings[j].Name
	})

	return standings
}
