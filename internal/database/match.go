// internal/database/match.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/store"
)

// MatchStore keeps one JSONB snapshot per match. The version column is the
// commit token.
type MatchStore struct {
	pool *pgxpool.Pool
}

func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

func (s *MatchStore) CreateMatch(ctx context.Context, m models.MatchState) (models.MatchState, error) {
	m = m.Clone()
	m.Version = 1
	doc, err := store.Encode(m)
	if err != nil {
		return models.MatchState{}, err
	}

	q := `
		INSERT INTO matches (id, code, version, status, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.pool.Exec(ctx, q, m.ID, nullableCode(m.Code), m.Version, string(m.Status), doc, m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.MatchState{}, store.ErrConflict
		}
		return models.MatchState{}, fmt.Errorf("insert match: %w", err)
	}
	return m, nil
}

func (s *MatchStore) ReadMatch(ctx context.Context, id uuid.UUID) (models.MatchState, error) {
	return s.readOne(ctx, `SELECT state, version FROM matches WHERE id = $1`, id)
}

func (s *MatchStore) ReadMatchByCode(ctx context.Context, code string) (models.MatchState, error) {
	return s.readOne(ctx, `SELECT state, version FROM matches WHERE code = $1`, store.NormalizeCode(code))
}

func (s *MatchStore) readOne(ctx context.Context, q string, arg interface{}) (models.MatchState, error) {
	var (
		doc     []byte
		version int64
	)
	if err := s.pool.QueryRow(ctx, q, arg).Scan(&doc, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MatchState{}, store.ErrNotFound
		}
		return models.MatchState{}, fmt.Errorf("read match: %w", err)
	}
	return store.Decode(doc, version)
}

// CommitMatch updates the row only while its version still equals
// expectedVersion. A concurrent writer holding the row lock makes this
// statement wait and then re-check the predicate against the new version.
func (s *MatchStore) CommitMatch(ctx context.Context, expectedVersion int64, next models.MatchState) (models.MatchState, error) {
	next = next.Clone()
	next.Version = expectedVersion + 1
	doc, err := store.Encode(next)
	if err != nil {
		return models.MatchState{}, err
	}

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE matches
			SET state = $1, status = $2, version = version + 1, updated_at = now()
			WHERE id = $3 AND version = $4
		`
		tag, err := tx.Exec(ctx, q, doc, string(next.Status), next.ID, expectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, next.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrConflict
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
			return models.MatchState{}, err
		}
		return models.MatchState{}, fmt.Errorf("tx commit match: %w", err)
	}
	return next, nil
}

func nullableCode(code string) *string {
	code = store.NormalizeCode(code)
	if code == "" {
		return nil
	}
	return &code
}
