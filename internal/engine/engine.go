package engine

import (
	"chinchi/internal/broadcast"
	"chinchi/internal/events"
	"chinchi/internal/game"
	"chinchi/internal/liveness"
	"chinchi/internal/metrics"
	"chinchi/internal/rooms"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"
)

var (
	errInvalidPayload = errors.New("invalid payload")
	errCreateFailed   = errors.New("could not create a room, please try again")
)

// Closer force-closes a transport connection.
type Closer interface {
	Close(connID, reason string)
}

// Engine is the only goroutine that touches rooms, timers and liveness state.
// Every event runs to completion before the next one is read.
type Engine struct {
	bus       *events.Bus
	machine   *game.Machine
	out       *broadcast.Broadcaster
	closer    Closer
	monitor   *liveness.Monitor
	heartbeat time.Duration
	metrics   *metrics.Metrics
	conns     map[string]struct{}
}

func New(bus *events.Bus, machine *game.Machine, out *broadcast.Broadcaster, closer Closer,
	monitor *liveness.Monitor, heartbeat time.Duration, m *metrics.Metrics) *Engine {
	return &Engine{
		bus:       bus,
		machine:   machine,
		out:       out,
		closer:    closer,
		monitor:   monitor,
		heartbeat: heartbeat,
		metrics:   m,
		conns:     make(map[string]struct{}),
	}
}

// Run processes events until ctx is cancelled. It stops all countdowns and
// closes the bus on the way out.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.heartbeat)
	defer ticker.Stop()
	defer e.bus.Close()
	defer e.machine.Close()

	log.Printf("[Engine] running, heartbeat every %s\n", e.heartbeat)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Sweep()
		case ev := <-e.bus.C:
			e.Handle(ev)
		}
	}
}

func (e *Engine) Handle(ev events.Event) {
	switch ev := ev.(type) {
	case events.Connected:
		e.conns[ev.ConnID] = struct{}{}
		e.monitor.Track(ev.ConnID)
		e.metrics.ConnectionOpened()
	case events.Disconnected:
		e.disconnect(ev.ConnID)
	case events.TimerTick:
		e.out.Execute(e.machine.Tick(ev.RoomCode, ev.TimerID))
	case events.Message:
		e.dispatch(ev)
	}
}

// Sweep runs one liveness interval: probe the quiet, drop the dead.
func (e *Engine) Sweep() {
	probe, drop := e.monitor.Sweep()
	for _, id := range probe {
		e.out.Unicast(id, game.EventPingCheck, nil)
	}
	for _, id := range drop {
		log.Printf("[Liveness] %s missed too many heartbeats, disconnecting\n", id)
		e.metrics.LivenessDrop()
		e.out.Execute(e.machine.Disconnect(id))
		e.closer.Close(id, "heartbeat timeout")
	}
}

func (e *Engine) disconnect(connID string) {
	e.monitor.Forget(connID)
	e.out.Execute(e.machine.Disconnect(connID))
	if _, ok := e.conns[connID]; ok {
		delete(e.conns, connID)
		e.metrics.ConnectionClosed()
	}
}

func (e *Engine) dispatch(msg events.Message) {
	switch msg.Name {
	case game.EventCreateRoom:
		settings := rooms.ParseSettings(msg.Data, e.machine.Defaults())
		cmds, err := e.machine.CreateRoom(msg.ConnID, settings)
		if err != nil {
			log.Printf("[Engine] create room for %s: %v\n", msg.ConnID, err)
			e.reject(msg.ConnID, errCreateFailed)
			return
		}
		e.metrics.RoomCreated()
		e.out.Execute(cmds)

	case game.EventJoinRoom:
		code, err := decodeRoomID(msg.Data)
		if err != nil {
			e.reject(msg.ConnID, err)
			return
		}
		cmds, err := e.machine.Join(code, msg.ConnID)
		e.apply(msg.ConnID, cmds, err)

	case game.EventMakeMove:
		var in struct {
			RoomID json.RawMessage `json:"roomId"`
			Index  *int            `json:"index"`
			Symbol string          `json:"symbol"`
		}
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			e.reject(msg.ConnID, errInvalidPayload)
			return
		}
		code, err := decodeRoomID(in.RoomID)
		if err != nil {
			e.reject(msg.ConnID, err)
			return
		}
		index := -1
		if in.Index != nil {
			index = *in.Index
		}
		cmds, err := e.machine.Move(code, msg.ConnID, index, in.Symbol)
		e.apply(msg.ConnID, cmds, err)

	case game.EventRequestRematch:
		code, err := decodeRoomID(msg.Data)
		if err != nil {
			e.reject(msg.ConnID, err)
			return
		}
		e.out.Execute(e.machine.RequestRematch(code, msg.ConnID))

	case game.EventQuitGame:
		code, err := decodeRoomID(msg.Data)
		if err != nil {
			e.reject(msg.ConnID, err)
			return
		}
		e.out.Execute(e.machine.Quit(code, msg.ConnID))

	case game.EventPongCheck:
		e.monitor.Ack(msg.ConnID)

	default:
		log.Printf("[Engine] ignoring unknown event %q from %s\n", msg.Name, msg.ConnID)
	}
}

func (e *Engine) apply(connID string, cmds []game.Command, err error) {
	if err != nil {
		e.reject(connID, err)
		return
	}
	e.out.Execute(cmds)
}

func (e *Engine) reject(connID string, err error) {
	e.out.Execute([]game.Command{game.ErrorCommand(connID, err)})
}

// decodeRoomID accepts a room code sent either as a string or a number.
func decodeRoomID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", errInvalidPayload
}
