package turntimer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tick is emitted once per interval for a live handle.
type Tick struct {
	RoomCode string
	TimerID  uint64
}

// Handle is one room's running countdown.
type Handle interface {
	ID() uint64
	// Stop is idempotent and never blocks.
	Stop()
}

// Scheduler starts countdown handles. The owner decides what a tick means.
type Scheduler interface {
	Start(roomCode string) Handle
}

// Ticker runs one goroutine per handle and passes every tick to fire.
type Ticker struct {
	interval time.Duration
	fire     func(Tick)
	nextID   atomic.Uint64
	live     atomic.Int64
}

func NewTicker(interval time.Duration, fire func(Tick)) *Ticker {
	return &Ticker{interval: interval, fire: fire}
}

// Live reports the number of handles whose goroutine has not exited yet.
func (t *Ticker) Live() int {
	return int(t.live.Load())
}

func (t *Ticker) Start(roomCode string) Handle {
	h := &handle{
		id:   t.nextID.Add(1),
		stop: make(chan struct{}),
	}
	t.live.Add(1)
	go t.run(roomCode, h)
	return h
}

func (t *Ticker) run(roomCode string, h *handle) {
	defer t.live.Add(-1)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			select {
			case <-h.stop:
				return
			default:
			}
			t.fire(Tick{RoomCode: roomCode, TimerID: h.id})
		}
	}
}

type handle struct {
	id   uint64
	stop chan struct{}
	once sync.Once
}

func (h *handle) ID() uint64 { return h.id }

func (h *handle) Stop() {
	h.once.Do(func() { close(h.stop) })
}
