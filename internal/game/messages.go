package game

import "chinchi/internal/board"

// Event names shared with browser clients.
const (
	EventCreateRoom         = "createRoom"
	EventRoomCreated        = "roomCreated"
	EventJoinRoom           = "joinRoom"
	EventGameStart          = "gameStart"
	EventTimerUpdate        = "timerUpdate"
	EventMakeMove           = "makeMove"
	EventUpdateBoard        = "updateBoard"
	EventGameEnd            = "gameEnd"
	EventRequestRematch     = "requestRematch"
	EventRematchRequested   = "rematchRequested"
	EventQuitGame           = "quitGame"
	EventPlayerQuit         = "playerQuit"
	EventPlayerDisconnected = "playerDisconnected"
	EventError              = "error"
	EventPingCheck          = "ping-check"
	EventPongCheck          = "pong-check"
)

type Reason string

const (
	ReasonWin     = Reason("win")
	ReasonDraw    = Reason("draw")
	ReasonTimeout = Reason("timeout")
)

type GameStart struct {
	RoomID       string   `json:"roomId"`
	Players      []string `json:"players"`
	Turn         int      `json:"turn"`
	TargetLength int      `json:"targetLength"`
	TimeLimit    int      `json:"timeLimit"`
}

type BoardUpdate struct {
	Board board.Board `json:"board"`
	Turn  int         `json:"turn"`
}

type GameEnd struct {
	Board  board.Board `json:"board"`
	Winner *string     `json:"winner"`
	Reason Reason      `json:"reason"`
	Line   []int       `json:"line,omitempty"`
}

// Command is one outbound message. Recipients are resolved when the command
// is produced, so a room deleted in the same transition still gets notified.
type Command struct {
	To      []string
	Event   string
	Payload any
}

func send(to []string, event string, payload any) Command {
	return Command{To: to, Event: event, Payload: payload}
}

func ErrorCommand(connID string, err error) Command {
	return send([]string{connID}, EventError, err.Error())
}
