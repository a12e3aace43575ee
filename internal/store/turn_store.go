// Package store keeps an in-memory record of completed turns for the
// HTTP layer.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stellarlink/repochat/internal/engine"
	"github.com/stellarlink/repochat/internal/provider"
)

// TurnStatus is the lifecycle state of a recorded turn.
type TurnStatus string

const (
	StatusRunning   TurnStatus = "running"
	StatusCompleted TurnStatus = "completed"
	StatusFailed    TurnStatus = "failed"
)

// Turn is one recorded request/response cycle.
type Turn struct {
	ID        string              `json:"id"`
	Request   string              `json:"request"`
	Status    TurnStatus          `json:"status"`
	Text      string              `json:"text,omitempty"`
	Error     string              `json:"error,omitempty"`
	Changes   []engine.FileChange `json:"changes,omitempty"`
	Usage     provider.Usage      `json:"usage"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Store is a thread-safe in-memory turn store.
type Store struct {
	mu    sync.RWMutex
	turns map[string]*Turn
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		turns: make(map[string]*Turn),
	}
}

// Create records a new running turn and returns its ID.
func (s *Store) Create(request string) *Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	turn := &Turn{
		ID:        ulid.Make().String(),
		Request:   request,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.turns[turn.ID] = turn
	return turn
}

// Complete marks a turn finished with its result.
func (s *Store) Complete(id string, result *engine.TurnResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn, ok := s.turns[id]; ok {
		turn.Status = StatusCompleted
		turn.Text = result.Text
		turn.Changes = result.Changes
		turn.Usage = result.Usage
		turn.UpdatedAt = time.Now()
	}
}

// Fail marks a turn failed with the error message.
func (s *Store) Fail(id string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn, ok := s.turns[id]; ok {
		turn.Status = StatusFailed
		turn.Error = errMsg
		turn.UpdatedAt = time.Now()
	}
}

// Get returns a copy of the turn with the given ID.
func (s *Store) Get(id string) (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turn, ok := s.turns[id]
	if !ok {
		return Turn{}, false
	}
	return *turn, true
}

// List returns copies of all turns, newest first.
func (s *Store) List() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		turns = append(turns, *t)
	}
	// ULIDs sort lexicographically by creation time
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].ID > turns[j].ID
	})
	return turns
}
