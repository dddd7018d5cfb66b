// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
)

var (
	// ErrNotFound indicates the requested match does not exist.
	ErrNotFound = errors.New("match not found")
	// ErrConflict indicates the stored version moved since it was read, or a
	// created match collides with an existing id or join code.
	ErrConflict = errors.New("match conflict")
)

// MatchStore keeps one snapshot per match behind a version token.
//
// CreateMatch stores m at version 1. CommitMatch replaces the stored snapshot
// only if its version still equals expectedVersion; the committed snapshot is
// returned with the bumped version.
type MatchStore interface {
	CreateMatch(ctx context.Context, m models.MatchState) (models.MatchState, error)
	ReadMatch(ctx context.Context, id uuid.UUID) (models.MatchState, error)
	ReadMatchByCode(ctx context.Context, code string) (models.MatchState, error)
	CommitMatch(ctx context.Context, expectedVersion int64, next models.MatchState) (models.MatchState, error)
}
