package game

import (
	"chinchi/internal/board"
	"chinchi/internal/rooms"
	"chinchi/internal/turntimer"
	"log"
	"time"
)

// Result describes one finished game.
type Result struct {
	RoomCode     string
	Players      []string
	Winner       string // empty on a draw
	Reason       Reason
	Board        board.Board
	Line         []int
	TargetLength int
	TimeLimit    int
	FinishedAt   time.Time
}

// ResultSink receives finished games. Implementations must not block.
type ResultSink interface {
	Record(Result)
}

type SinkFunc func(Result)

func (f SinkFunc) Record(r Result) { f(r) }

// Machine applies every room transition. It is not safe for concurrent use:
// the engine calls it from a single goroutine, one event at a time.
type Machine struct {
	rooms    *rooms.Store
	timers   turntimer.Scheduler
	defaults rooms.Settings
	sinks    []ResultSink
	now      func() time.Time
}

func NewMachine(store *rooms.Store, timers turntimer.Scheduler, defaults rooms.Settings, sinks ...ResultSink) *Machine {
	return &Machine{
		rooms:    store,
		timers:   timers,
		defaults: defaults,
		sinks:    sinks,
		now:      time.Now,
	}
}

func (m *Machine) Defaults() rooms.Settings {
	return m.defaults
}

func (m *Machine) CreateRoom(connID string, settings rooms.Settings) ([]Command, error) {
	room, err := m.rooms.Create(connID, settings)
	if err != nil {
		return nil, err
	}
	log.Printf("[Room] %s created by %s (length=%d, limit=%ds)\n", room.Code, connID, room.TargetLength, room.TimeLimit)
	return []Command{send([]string{connID}, EventRoomCreated, room.Code)}, nil
}

func (m *Machine) Join(code, connID string) ([]Command, error) {
	room := m.rooms.Get(code)
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.HasPlayer(connID) {
		return nil, nil
	}
	if len(room.Players) >= rooms.MaxPlayers {
		return nil, ErrRoomFull
	}

	room.Players = append(room.Players, connID)
	room.Status = rooms.StatusPlaying
	log.Printf("[Room] %s joined by %s\n", code, connID)

	cmds := []Command{m.gameStart(room)}
	return append(cmds, m.startTimer(room)...), nil
}

func (m *Machine) Move(code, connID string, index int, symbol string) ([]Command, error) {
	room := m.rooms.Get(code)
	if room == nil || room.Status != rooms.StatusPlaying {
		return nil, nil
	}
	if room.Players[room.Turn] != connID {
		return nil, ErrNotYourTurn
	}
	if index < 0 || index >= board.Cells {
		return nil, ErrInvalidCell
	}
	if room.Board[index] != board.Empty {
		return nil, ErrCellTaken
	}
	if !board.IsGlyph(symbol) {
		return nil, ErrInvalidSymbol
	}

	room.Board[index] = symbol

	if line := board.Evaluate(room.Board, room.TargetLength); line != nil {
		return m.finish(room, connID, ReasonWin, line), nil
	}
	if room.Board.Full() {
		return m.finish(room, "", ReasonDraw, nil), nil
	}

	room.Turn = 1 - room.Turn
	cmds := []Command{send(room.Members(), EventUpdateBoard, BoardUpdate{Board: room.Board, Turn: room.Turn})}
	return append(cmds, m.startTimer(room)...), nil
}

// StartTimer restarts the room's countdown at its full time limit.
func (m *Machine) StartTimer(code string) []Command {
	return m.startTimer(m.rooms.Get(code))
}

// Tick advances the countdown owned by timerID. Ticks from a handle that is
// no longer the room's live timer are dropped.
func (m *Machine) Tick(code string, timerID uint64) []Command {
	room := m.rooms.Get(code)
	if room == nil || room.Status != rooms.StatusPlaying {
		return nil
	}
	if room.Timer == nil || room.Timer.ID() != timerID {
		return nil
	}

	room.TimeLeft--
	cmds := []Command{m.timerUpdate(room)}
	if room.TimeLeft <= 0 {
		cmds = append(cmds, m.Timeout(code)...)
	}
	return cmds
}

// Timeout ends the game in favour of the player not on turn.
func (m *Machine) Timeout(code string) []Command {
	room := m.rooms.Get(code)
	if room == nil || room.Status != rooms.StatusPlaying {
		return nil
	}
	winner := room.Players[1-room.Turn]
	return m.finish(room, winner, ReasonTimeout, nil)
}

func (m *Machine) RequestRematch(code, connID string) []Command {
	room := m.rooms.Get(code)
	if room == nil || room.Status != rooms.StatusFinished || !room.HasPlayer(connID) {
		return nil
	}

	room.RematchVotes[connID] = struct{}{}
	if len(room.RematchVotes) < rooms.MaxPlayers {
		return []Command{send(room.Others(connID), EventRematchRequested, nil)}
	}

	room.Board.Clear()
	clear(room.RematchVotes)
	room.StartingPlayer = 1 - room.StartingPlayer
	room.Turn = room.StartingPlayer
	room.Status = rooms.StatusPlaying
	log.Printf("[Room] %s rematch, player %d starts\n", code, room.StartingPlayer)

	cmds := []Command{m.gameStart(room)}
	return append(cmds, m.startTimer(room)...)
}

func (m *Machine) Quit(code, connID string) []Command {
	room := m.rooms.Get(code)
	if room == nil || !room.HasPlayer(connID) {
		return nil
	}
	m.stopTimer(room)
	cmds := []Command{send(room.Members(), EventPlayerQuit, nil)}
	m.rooms.Delete(code)
	log.Printf("[Room] %s closed, %s quit\n", code, connID)
	return cmds
}

// Disconnect ends every room connID belongs to.
func (m *Machine) Disconnect(connID string) []Command {
	var cmds []Command
	for _, room := range m.rooms.WithPlayer(connID) {
		m.stopTimer(room)
		cmds = append(cmds, send(room.Others(connID), EventPlayerDisconnected, nil))
		m.rooms.Delete(room.Code)
		log.Printf("[Room] %s closed, %s disconnected\n", room.Code, connID)
	}
	return cmds
}

// Close stops every running countdown.
func (m *Machine) Close() {
	for _, room := range m.rooms.List() {
		m.stopTimer(room)
	}
}

func (m *Machine) startTimer(room *rooms.Room) []Command {
	if room == nil || room.Status != rooms.StatusPlaying {
		return nil
	}
	m.stopTimer(room)
	room.TimeLeft = room.TimeLimit
	room.Timer = m.timers.Start(room.Code)
	return []Command{m.timerUpdate(room)}
}

func (m *Machine) stopTimer(room *rooms.Room) {
	if room.Timer != nil {
		room.Timer.Stop()
		room.Timer = nil
	}
}

func (m *Machine) finish(room *rooms.Room, winner string, reason Reason, line []int) []Command {
	m.stopTimer(room)
	room.Status = rooms.StatusFinished

	end := GameEnd{Board: room.Board, Reason: reason, Line: line}
	if winner != "" {
		w := winner
		end.Winner = &w
	}
	log.Printf("[Room] %s finished: %s\n", room.Code, reason)

	res := Result{
		RoomCode:     room.Code,
		Players:      room.Members(),
		Winner:       winner,
		Reason:       reason,
		Board:        room.Board,
		Line:         line,
		TargetLength: room.TargetLength,
		TimeLimit:    room.TimeLimit,
		FinishedAt:   m.now(),
	}
	for _, s := range m.sinks {
		s.Record(res)
	}

	return []Command{send(room.Members(), EventGameEnd, end)}
}

func (m *Machine) gameStart(room *rooms.Room) Command {
	return send(room.Members(), EventGameStart, GameStart{
		RoomID:       room.Code,
		Players:      room.Members(),
		Turn:         room.Turn,
		TargetLength: room.TargetLength,
		TimeLimit:    room.TimeLimit,
	})
}

func (m *Machine) timerUpdate(room *rooms.Room) Command {
	return send(room.Members(), EventTimerUpdate, room.TimeLeft)
}
