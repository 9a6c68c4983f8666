package history

import (
	"chinchi/internal/db"
	"chinchi/internal/game"
	"context"
	"log"
	"time"
)

const (
	batchSize     = 50
	flushInterval = 500 * time.Millisecond
)

type Store interface {
	RecordResults([]db.GameResult) error
}

// Writer buffers finished games and writes them in batches. Record never
// blocks the engine; results are dropped when the buffer is full.
type Writer struct {
	store    Store
	buffer   chan db.GameResult
	interval time.Duration
}

func NewWriter(store Store, size int) *Writer {
	return &Writer{
		store:    store,
		buffer:   make(chan db.GameResult, size),
		interval: flushInterval,
	}
}

func (w *Writer) Record(r game.Result) {
	select {
	case w.buffer <- convert(r):
	default:
		log.Printf("[DB] history buffer full, dropping result for room %s\n", r.RoomCode)
	}
}

// Run flushes every batchSize results or every interval, whichever comes
// first. On cancel it drains what is buffered and returns.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	batch := make([]db.GameResult, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.store.RecordResults(batch); err != nil {
			log.Printf("[DB] RecordResults error: %v\n", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case r := <-w.buffer:
			batch = append(batch, r)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case r := <-w.buffer:
					batch = append(batch, r)
				default:
					flush()
					return
				}
			}
		}
	}
}

func convert(r game.Result) db.GameResult {
	out := db.GameResult{
		RoomCode:     r.RoomCode,
		Winner:       r.Winner,
		Reason:       string(r.Reason),
		Board:        r.Board,
		Line:         r.Line,
		TargetLength: r.TargetLength,
		TimeLimit:    r.TimeLimit,
		FinishedAt:   r.FinishedAt,
	}
	copy(out.Players[:], r.Players)
	return out
}
