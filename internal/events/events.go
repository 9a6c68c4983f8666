package events

import (
	"chinchi/internal/turntimer"
	"encoding/json"
	"sync"
)

// Event is anything the engine loop reacts to.
type Event interface {
	event()
}

type Connected struct {
	ConnID string
}

type Disconnected struct {
	ConnID string
}

// Message is one decoded client envelope.
type Message struct {
	ConnID string
	Name   string
	Data   json.RawMessage
}

// TimerTick wraps a countdown tick from turntimer.
type TimerTick struct {
	turntimer.Tick
}

func (Connected) event()    {}
func (Disconnected) event() {}
func (Message) event()      {}
func (TimerTick) event()    {}

// Bus carries events from connection and timer goroutines into the engine.
type Bus struct {
	C    chan Event
	done chan struct{}
	once sync.Once
}

func NewBus(size int) *Bus {
	return &Bus{
		C:    make(chan Event, size),
		done: make(chan struct{}),
	}
}

// Post blocks until the engine accepts ev or the bus is closed.
func (b *Bus) Post(ev Event) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.C <- ev:
		return true
	case <-b.done:
		return false
	}
}

// PostTick adapts Post to the turntimer fire callback.
func (b *Bus) PostTick(t turntimer.Tick) {
	b.Post(TimerTick{Tick: t})
}

func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bus) Done() <-chan struct{} {
	return b.done
}
