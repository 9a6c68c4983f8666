package game

import "errors"

// Validation failures. They are reported to the offending connection only.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrNotYourTurn   = errors.New("it is not your turn")
	ErrCellTaken     = errors.New("that cell is already taken")
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrInvalidCell   = errors.New("invalid cell")
)
