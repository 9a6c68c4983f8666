package rooms

import (
	"chinchi/internal/board"
	"fmt"
	"sync"
	"time"
)

const codeAttempts = 10

// Store is the registry of active rooms. The engine loop is its only writer;
// the mutex lets HTTP handlers read counts concurrently.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

func (s *Store) Create(creatorID string, settings Settings) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < codeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		room := &Room{
			Code:         code,
			Players:      []string{creatorID},
			Board:        board.Board{},
			Turn:         0,
			Status:       StatusWaiting,
			RematchVotes: make(map[string]struct{}),
			TargetLength: settings.TargetLength,
			TimeLimit:    settings.TimeLimit,
			CreatedAt:    time.Now(),
		}
		s.rooms[code] = room
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after %d attempts", codeAttempts)
}

func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

// Delete removes the room and reports whether it was present.
func (s *Store) Delete(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return false
	}
	delete(s.rooms, code)
	return true
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// WithPlayer returns every room connID sits in.
func (s *Store) WithPlayer(connID string) []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Room
	for _, r := range s.rooms {
		if r.HasPlayer(connID) {
			out = append(out, r)
		}
	}
	return out
}
