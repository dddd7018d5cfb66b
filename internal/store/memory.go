// internal/store/memory.go
package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
)

// Memory is a process-local MatchStore. Snapshots are cloned on the way in
// and out so callers never share slices with the stored copy.
type Memory struct {
	mu      sync.Mutex
	matches map[uuid.UUID]models.MatchState
	codes   map[string]uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{
		matches: make(map[uuid.UUID]models.MatchState),
		codes:   make(map[string]uuid.UUID),
	}
}

func (s *Memory) CreateMatch(ctx context.Context, m models.MatchState) (models.MatchState, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchState{}, err
	}
	code := NormalizeCode(m.Code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.matches[m.ID]; exists {
		return models.MatchState{}, ErrConflict
	}
	if _, exists := s.codes[code]; exists && code != "" {
		return models.MatchState{}, ErrConflict
	}

	stored := m.Clone()
	stored.Version = 1
	s.matches[m.ID] = stored
	if code != "" {
		s.codes[code] = m.ID
	}
	return stored.Clone(), nil
}

func (s *Memory) ReadMatch(ctx context.Context, id uuid.UUID) (models.MatchState, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, exists := s.matches[id]
	if !exists {
		return models.MatchState{}, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *Memory) ReadMatchByCode(ctx context.Context, code string) (models.MatchState, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, exists := s.codes[NormalizeCode(code)]
	if !exists {
		return models.MatchState{}, ErrNotFound
	}
	return s.matches[id].Clone(), nil
}

func (s *Memory) CommitMatch(ctx context.Context, expectedVersion int64, next models.MatchState) (models.MatchState, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.matches[next.ID]
	if !exists {
		return models.MatchState{}, ErrNotFound
	}
	if current.Version != expectedVersion {
		return models.MatchState{}, ErrConflict
	}

	stored := next.Clone()
	stored.Code = current.Code
	stored.Version = expectedVersion + 1
	s.matches[next.ID] = stored
	return stored.Clone(), nil
}

// NormalizeCode is the canonical form join codes are indexed under.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
