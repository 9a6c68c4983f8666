// Package local runs a two-players-one-device game without a server or timer.
package local

import (
	"chinchi/internal/board"
	"chinchi/internal/game"
	"errors"
)

var ErrGameOver = errors.New("the game is over")

type Result int

const (
	Continue Result = iota
	Win
	Draw
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "continue"
	}
}

// Outcome is what a placement led to. Winner and Line are set on a win.
type Outcome struct {
	Result Result
	Winner int
	Line   []int
}

type Game struct {
	Board          board.Board
	Turn           int
	StartingPlayer int
	TargetLength   int
	over           bool
}

func New(targetLength int) *Game {
	return &Game{TargetLength: targetLength}
}

func (g *Game) Over() bool {
	return g.over
}

// Place puts glyph on index for the player on turn. Rejected moves leave the
// game unchanged.
func (g *Game) Place(index int, glyph string) (Outcome, error) {
	if g.over {
		return Outcome{}, ErrGameOver
	}
	if index < 0 || index >= board.Cells {
		return Outcome{}, game.ErrInvalidCell
	}
	if g.Board[index] != board.Empty {
		return Outcome{}, game.ErrCellTaken
	}
	if !board.IsGlyph(glyph) {
		return Outcome{}, game.ErrInvalidSymbol
	}

	g.Board[index] = glyph
	if line := board.Evaluate(g.Board, g.TargetLength); line != nil {
		g.over = true
		return Outcome{Result: Win, Winner: g.Turn, Line: line}, nil
	}
	if g.Board.Full() {
		g.over = true
		return Outcome{Result: Draw}, nil
	}
	g.Turn = 1 - g.Turn
	return Outcome{Result: Continue}, nil
}

// Rematch clears the board and hands the first move to the other player.
func (g *Game) Rematch() {
	g.Board.Clear()
	g.StartingPlayer = 1 - g.StartingPlayer
	g.Turn = g.StartingPlayer
	g.over = false
}
