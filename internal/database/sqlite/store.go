// Package sqlite is an embedded MatchStore for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/store"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	code       TEXT UNIQUE,
	version    INTEGER NOT NULL,
	state      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store keeps match snapshots in one SQLite table.
type Store struct {
	sqlDB *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-process database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) CreateMatch(ctx context.Context, m models.MatchState) (models.MatchState, error) {
	m = m.Clone()
	m.Version = 1
	doc, err := store.Encode(m)
	if err != nil {
		return models.MatchState{}, err
	}

	now := time.Now().UTC().UnixMilli()
	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO matches (id, code, version, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID.String(), nullableCode(m.Code), m.Version, string(doc), m.CreatedAt.UTC().UnixMilli(), now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.MatchState{}, store.ErrConflict
		}
		return models.MatchState{}, fmt.Errorf("insert match: %w", err)
	}
	return m, nil
}

func (s *Store) ReadMatch(ctx context.Context, id uuid.UUID) (models.MatchState, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT state, version FROM matches WHERE id = ?`, id.String())
	return scanMatch(row)
}

func (s *Store) ReadMatchByCode(ctx context.Context, code string) (models.MatchState, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT state, version FROM matches WHERE code = ?`, store.NormalizeCode(code))
	return scanMatch(row)
}

// CommitMatch runs a conditional UPDATE inside an immediate transaction;
// zero affected rows means the row is gone or its version moved.
func (s *Store) CommitMatch(ctx context.Context, expectedVersion int64, next models.MatchState) (models.MatchState, error) {
	next = next.Clone()
	next.Version = expectedVersion + 1
	doc, err := store.Encode(next)
	if err != nil {
		return models.MatchState{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return models.MatchState{}, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	UPDATE matches SET state = ?, version = version + 1, updated_at = ?
	WHERE id = ? AND version = ?`,
		string(doc), time.Now().UTC().UnixMilli(), next.ID.String(), expectedVersion,
	)
	if err != nil {
		return models.MatchState{}, fmt.Errorf("update match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.MatchState{}, fmt.Errorf("update match rows affected: %w", err)
	}
	if affected == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM matches WHERE id = ?`, next.ID.String()).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return models.MatchState{}, store.ErrNotFound
		}
		if err != nil {
			return models.MatchState{}, fmt.Errorf("check match: %w", err)
		}
		return models.MatchState{}, store.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return models.MatchState{}, fmt.Errorf("commit match: %w", err)
	}
	return next, nil
}

func scanMatch(row *sql.Row) (models.MatchState, error) {
	var (
		doc     string
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MatchState{}, store.ErrNotFound
		}
		return models.MatchState{}, fmt.Errorf("read match: %w", err)
	}
	return store.Decode([]byte(doc), version)
}

func nullableCode(code string) sql.NullString {
	code = store.NormalizeCode(code)
	return sql.NullString{String: code, Valid: code != ""}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}
