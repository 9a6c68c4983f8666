package rooms

import (
	"chinchi/internal/board"
	"chinchi/internal/turntimer"
	"slices"
	"time"
)

type Status string

const (
	StatusWaiting  = Status("waiting")
	StatusPlaying  = Status("playing")
	StatusFinished = Status("finished")
)

const MaxPlayers = 2

// Room is one two-player session. It is only mutated from the engine loop.
type Room struct {
	Code           string
	Players        []string
	Board          board.Board
	Turn           int
	Status         Status
	StartingPlayer int
	RematchVotes   map[string]struct{}
	TargetLength   int
	TimeLimit      int
	CreatedAt      time.Time

	// Timer is the live countdown, nil when none runs.
	Timer    turntimer.Handle
	TimeLeft int
}

func (r *Room) HasPlayer(connID string) bool {
	return slices.Contains(r.Players, connID)
}

// PlayerIndex returns the seat of connID or -1.
func (r *Room) PlayerIndex(connID string) int {
	return slices.Index(r.Players, connID)
}

// Members returns a copy of the player list, safe to hand to senders.
func (r *Room) Members() []string {
	return slices.Clone(r.Players)
}

// Others returns every player except connID.
func (r *Room) Others(connID string) []string {
	out := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p != connID {
			out = append(out, p)
		}
	}
	return out
}
