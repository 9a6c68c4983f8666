package game

import (
	"chinchi/internal/board"
	"chinchi/internal/rooms"
	"chinchi/internal/turntimer"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	id      uint64
	stopped bool
}

func (h *fakeHandle) ID() uint64 { return h.id }
func (h *fakeHandle) Stop()      { h.stopped = true }

type fakeScheduler struct {
	started []*fakeHandle
}

func (s *fakeScheduler) Start(string) turntimer.Handle {
	h := &fakeHandle{id: uint64(len(s.started) + 1)}
	s.started = append(s.started, h)
	return h
}

func (s *fakeScheduler) live() []*fakeHandle {
	var out []*fakeHandle
	for _, h := range s.started {
		if !h.stopped {
			out = append(out, h)
		}
	}
	return out
}

type fixture struct {
	store   *rooms.Store
	timers  *fakeScheduler
	m       *Machine
	results []Result
}

func newFixture() *fixture {
	f := &fixture{store: rooms.NewStore(), timers: &fakeScheduler{}}
	f.m = NewMachine(f.store, f.timers, rooms.DefaultSettings(), SinkFunc(func(r Result) {
		f.results = append(f.results, r)
	}))
	return f
}

// startGame creates a room for "A", joins "B" and returns the code.
func (f *fixture) startGame(t *testing.T, settings rooms.Settings) string {
	t.Helper()
	cmds, err := f.m.CreateRoom("A", settings)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	code := cmds[0].Payload.(string)

	_, err = f.m.Join(code, "B")
	require.NoError(t, err)
	return code
}

func (f *fixture) move(t *testing.T, code, conn string, index int, symbol string) []Command {
	t.Helper()
	cmds, err := f.m.Move(code, conn, index, symbol)
	require.NoError(t, err)
	return cmds
}

func findEvent(cmds []Command, event string) *Command {
	for i := range cmds {
		if cmds[i].Event == event {
			return &cmds[i]
		}
	}
	return nil
}

func TestCreateRoom(t *testing.T) {
	f := newFixture()
	cmds, err := f.m.CreateRoom("A", rooms.Settings{TargetLength: 3, TimeLimit: 10})
	require.NoError(t, err)
	require.Len(t, cmds, 1)

	assert.Equal(t, EventRoomCreated, cmds[0].Event)
	assert.Equal(t, []string{"A"}, cmds[0].To)

	room := f.store.Get(cmds[0].Payload.(string))
	require.NotNil(t, room)
	assert.Equal(t, rooms.StatusWaiting, room.Status)
	assert.Empty(t, f.timers.started, "no timer before the second player")
}

func TestJoin_StartsGame(t *testing.T) {
	f := newFixture()
	cmds, _ := f.m.CreateRoom("A", rooms.Settings{TargetLength: 4, TimeLimit: 30})
	code := cmds[0].Payload.(string)

	cmds, err := f.m.Join(code, "B")
	require.NoError(t, err)

	start := findEvent(cmds, EventGameStart)
	require.NotNil(t, start)
	assert.ElementsMatch(t, []string{"A", "B"}, start.To)
	assert.Equal(t, GameStart{RoomID: code, Players: []string{"A", "B"}, Turn: 0, TargetLength: 4, TimeLimit: 30}, start.Payload)

	tick := findEvent(cmds, EventTimerUpdate)
	require.NotNil(t, tick)
	assert.Equal(t, 30, tick.Payload)

	assert.Equal(t, rooms.StatusPlaying, f.store.Get(code).Status)
	assert.Len(t, f.timers.live(), 1)
}

func TestJoin_Rejections(t *testing.T) {
	f := newFixture()

	_, err := f.m.Join("9999", "B")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	code := f.startGame(t, rooms.DefaultSettings())

	cmds, err := f.m.Join(code, "A")
	assert.NoError(t, err)
	assert.Nil(t, cmds, "rejoining is a silent no-op")

	_, err = f.m.Join(code, "C")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, []string{"A", "B"}, f.store.Get(code).Players)
}

func TestMove_Validation(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.DefaultSettings())

	_, err := f.m.Move(code, "B", 0, board.Chi)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = f.m.Move(code, "A", 25, board.Chi)
	assert.ErrorIs(t, err, ErrInvalidCell)

	_, err = f.m.Move(code, "A", -1, board.Chi)
	assert.ErrorIs(t, err, ErrInvalidCell)

	_, err = f.m.Move(code, "A", 0, "x")
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	f.move(t, code, "A", 0, board.Chi)
	_, err = f.m.Move(code, "B", 0, board.N)
	assert.ErrorIs(t, err, ErrCellTaken)

	room := f.store.Get(code)
	assert.Equal(t, board.Chi, room.Board[0])
	assert.Equal(t, 1, room.Turn)
}

func TestMove_IgnoredWhenStale(t *testing.T) {
	f := newFixture()

	cmds, err := f.m.Move("1234", "A", 0, board.Chi)
	assert.NoError(t, err)
	assert.Nil(t, cmds)

	created, _ := f.m.CreateRoom("A", rooms.DefaultSettings())
	code := created[0].Payload.(string)
	cmds, err = f.m.Move(code, "A", 0, board.Chi)
	assert.NoError(t, err)
	assert.Nil(t, cmds, "waiting rooms accept no moves")
}

func TestMove_TurnAlternation(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 5, TimeLimit: 30})

	players := []string{"A", "B"}
	// same glyph everywhere never forms an alternating line
	for n := 1; n <= 10; n++ {
		room := f.store.Get(code)
		cmds := f.move(t, code, players[room.Turn], n-1, board.Chi)

		update := findEvent(cmds, EventUpdateBoard)
		require.NotNil(t, update)
		assert.Equal(t, n%2, update.Payload.(BoardUpdate).Turn)
		assert.Equal(t, n%2, f.store.Get(code).Turn)
	}
	assert.Len(t, f.timers.live(), 1, "each turn replaces the timer")
	assert.Len(t, f.timers.started, 11)
}

func TestMove_WinScenario(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 4, TimeLimit: 30})

	f.move(t, code, "A", board.Index(0, 0), board.Chi)
	f.move(t, code, "B", board.Index(0, 4), board.Chi)
	f.move(t, code, "A", board.Index(1, 0), board.N)
	f.move(t, code, "B", board.Index(1, 4), board.Chi)
	f.move(t, code, "A", board.Index(2, 0), board.Chi)
	f.move(t, code, "B", board.Index(2, 4), board.Chi)
	cmds := f.move(t, code, "A", board.Index(3, 0), board.N)

	end := findEvent(cmds, EventGameEnd)
	require.NotNil(t, end)
	payload := end.Payload.(GameEnd)
	assert.Equal(t, ReasonWin, payload.Reason)
	require.NotNil(t, payload.Winner)
	assert.Equal(t, "A", *payload.Winner)
	assert.Equal(t, []int{0, 1, 2, 3}, payload.Line)
	assert.ElementsMatch(t, []string{"A", "B"}, end.To)

	assert.Nil(t, findEvent(cmds, EventUpdateBoard))
	assert.Equal(t, rooms.StatusFinished, f.store.Get(code).Status)
	assert.Empty(t, f.timers.live())

	require.Len(t, f.results, 1)
	assert.Equal(t, "A", f.results[0].Winner)
	assert.Equal(t, ReasonWin, f.results[0].Reason)

	_, err := f.m.Move(code, "B", 10, board.Chi)
	assert.NoError(t, err, "moves after the end are ignored")
}

func TestMove_SecondPlayerCanWin(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 2, TimeLimit: 30})

	f.move(t, code, "A", 0, board.Chi)
	cmds := f.move(t, code, "B", 1, board.N)
	end := findEvent(cmds, EventGameEnd)
	require.NotNil(t, end)
	assert.Equal(t, "B", *end.Payload.(GameEnd).Winner)
}

func TestMove_DrawScenario(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 2, TimeLimit: 30})

	players := []string{"A", "B"}
	var cmds []Command
	for i := 0; i < board.Cells; i++ {
		room := f.store.Get(code)
		cmds = f.move(t, code, players[room.Turn], i, board.N)
		if i < board.Cells-1 {
			require.Nil(t, findEvent(cmds, EventGameEnd), "move %d", i)
		}
	}

	end := findEvent(cmds, EventGameEnd)
	require.NotNil(t, end)
	payload := end.Payload.(GameEnd)
	assert.Equal(t, ReasonDraw, payload.Reason)
	assert.Nil(t, payload.Winner)
	assert.True(t, payload.Board.Full())
	assert.Empty(t, f.timers.live())
}

func TestTick_CountsDownAndTimesOut(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 4, TimeLimit: 3})
	h := f.timers.live()[0]

	cmds := f.m.Tick(code, h.id)
	require.Len(t, cmds, 1)
	assert.Equal(t, 2, cmds[0].Payload)

	f.m.Tick(code, h.id)
	cmds = f.m.Tick(code, h.id)

	assert.Equal(t, 0, findEvent(cmds, EventTimerUpdate).Payload)
	end := findEvent(cmds, EventGameEnd)
	require.NotNil(t, end)
	payload := end.Payload.(GameEnd)
	assert.Equal(t, ReasonTimeout, payload.Reason)
	assert.Equal(t, "B", *payload.Winner, "the player not on turn wins")
	assert.True(t, h.stopped)
	assert.Equal(t, rooms.StatusFinished, f.store.Get(code).Status)
}

func TestTick_StaleHandleIgnored(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 4, TimeLimit: 1})
	old := f.timers.live()[0]

	f.move(t, code, "A", 0, board.Chi)
	assert.True(t, old.stopped)

	assert.Nil(t, f.m.Tick(code, old.id), "tick from a replaced timer")
	assert.Equal(t, rooms.StatusPlaying, f.store.Get(code).Status)

	cur := f.timers.live()[0]
	cmds := f.m.Tick(code, cur.id)
	end := findEvent(cmds, EventGameEnd)
	require.NotNil(t, end)
	assert.Equal(t, "A", *end.Payload.(GameEnd).Winner, "B was on turn")
}

func TestTimeout_Idempotent(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.DefaultSettings())

	require.NotNil(t, findEvent(f.m.Timeout(code), EventGameEnd))
	assert.Nil(t, f.m.Timeout(code))
	assert.Nil(t, f.m.Timeout("0000"))
	assert.Len(t, f.results, 1)
}

func TestStartTimer_SingleLiveTimer(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.DefaultSettings())

	f.m.StartTimer(code)
	f.m.StartTimer(code)

	assert.Len(t, f.timers.live(), 1)
	assert.Equal(t, f.timers.live()[0], f.store.Get(code).Timer)
}

func TestStartTimer_NoopUnlessPlaying(t *testing.T) {
	f := newFixture()
	assert.Nil(t, f.m.StartTimer("0000"))

	created, _ := f.m.CreateRoom("A", rooms.DefaultSettings())
	assert.Nil(t, f.m.StartTimer(created[0].Payload.(string)))
	assert.Empty(t, f.timers.started)
}

func TestRematch(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.Settings{TargetLength: 4, TimeLimit: 30})
	f.m.Timeout(code)

	cmds := f.m.RequestRematch(code, "A")
	require.Len(t, cmds, 1)
	assert.Equal(t, EventRematchRequested, cmds[0].Event)
	assert.Equal(t, []string{"B"}, cmds[0].To)
	assert.Equal(t, rooms.StatusFinished, f.store.Get(code).Status)

	// repeated vote from the same player does not count twice
	f.m.RequestRematch(code, "A")
	assert.Equal(t, rooms.StatusFinished, f.store.Get(code).Status)

	cmds = f.m.RequestRematch(code, "B")
	start := findEvent(cmds, EventGameStart)
	require.NotNil(t, start)
	assert.Equal(t, 1, start.Payload.(GameStart).Turn)

	room := f.store.Get(code)
	assert.Equal(t, rooms.StatusPlaying, room.Status)
	assert.Equal(t, 1, room.StartingPlayer)
	assert.Equal(t, 1, room.Turn)
	assert.Equal(t, board.Board{}, room.Board)
	assert.Empty(t, room.RematchVotes)
	assert.Len(t, f.timers.live(), 1)

	// next rematch alternates back
	f.m.Timeout(code)
	f.m.RequestRematch(code, "B")
	f.m.RequestRematch(code, "A")
	assert.Equal(t, 0, f.store.Get(code).StartingPlayer)
}

func TestRematch_IgnoredOutsideFinished(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.DefaultSettings())

	assert.Nil(t, f.m.RequestRematch(code, "A"))
	assert.Empty(t, f.store.Get(code).RematchVotes)
	assert.Nil(t, f.m.RequestRematch("0000", "A"))

	f.m.Timeout(code)
	assert.Nil(t, f.m.RequestRematch(code, "stranger"))
}

func TestQuit(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.DefaultSettings())

	assert.Nil(t, f.m.Quit(code, "stranger"))
	require.NotNil(t, f.store.Get(code))

	cmds := f.m.Quit(code, "A")
	require.Len(t, cmds, 1)
	assert.Equal(t, EventPlayerQuit, cmds[0].Event)
	assert.ElementsMatch(t, []string{"A", "B"}, cmds[0].To)
	assert.Nil(t, f.store.Get(code))
	assert.Empty(t, f.timers.live())

	assert.Nil(t, f.m.Quit(code, "B"), "room is already gone")
}

func TestDisconnect_EndsRoom(t *testing.T) {
	f := newFixture()
	code := f.startGame(t, rooms.DefaultSettings())
	f.move(t, code, "A", 0, board.Chi)

	cmds := f.m.Disconnect("B")
	require.Len(t, cmds, 1)
	assert.Equal(t, EventPlayerDisconnected, cmds[0].Event)
	assert.Equal(t, []string{"A"}, cmds[0].To)
	assert.Nil(t, f.store.Get(code))
	assert.Empty(t, f.timers.live())

	moved, err := f.m.Move(code, "B", 1, board.N)
	assert.NoError(t, err)
	assert.Nil(t, moved)

	assert.Nil(t, f.m.Disconnect("B"), "second disconnect is a no-op")
}

func TestDisconnect_WaitingRoom(t *testing.T) {
	f := newFixture()
	created, _ := f.m.CreateRoom("A", rooms.DefaultSettings())
	code := created[0].Payload.(string)

	cmds := f.m.Disconnect("A")
	require.Len(t, cmds, 1)
	assert.Empty(t, cmds[0].To)
	assert.Nil(t, f.store.Get(code))
}

func TestClose_StopsTimers(t *testing.T) {
	f := newFixture()
	f.startGame(t, rooms.DefaultSettings())
	f.startGame(t, rooms.DefaultSettings())
	require.Len(t, f.timers.live(), 2)

	f.m.Close()
	assert.Empty(t, f.timers.live())
}
