// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for match action logs.
const DefaultQueueName = "manaclash_actions"

// ConnectRedis builds a client for addr/db and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// MatchStore keeps each snapshot as a JSON string under <prefix>:<id> and the
// join code index under <prefix>_code:<CODE>. Commits are optimistic: the
// match key is WATCHed, its version compared, and the SET runs in MULTI/EXEC.
type MatchStore struct {
	rdb    *redis.Client
	prefix string
}

// NewMatchStore returns a store using prefix for its keys; empty means "match".
func NewMatchStore(rdb *redis.Client, prefix string) *MatchStore {
	if prefix == "" {
		prefix = "match"
	}
	return &MatchStore{rdb: rdb, prefix: prefix}
}

func (s *MatchStore) matchKey(id uuid.UUID) string {
	return s.prefix + ":" + id.String()
}

func (s *MatchStore) codeKey(code string) string {
	return s.prefix + "_code:" + store.NormalizeCode(code)
}

func (s *MatchStore) CreateMatch(ctx context.Context, m models.MatchState) (models.MatchState, error) {
	m = m.Clone()
	m.Version = 1
	doc, err := store.Encode(m)
	if err != nil {
		return models.MatchState{}, err
	}

	mk, ck := s.matchKey(m.ID), s.codeKey(m.Code)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, mk, ck).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return store.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, mk, doc, 0)
			pipe.Set(ctx, ck, m.ID.String(), 0)
			return nil
		})
		return err
	}, mk, ck)
	if err != nil {
		return models.MatchState{}, s.mapErr("create match", err)
	}
	return m, nil
}

func (s *MatchStore) ReadMatch(ctx context.Context, id uuid.UUID) (models.MatchState, error) {
	data, err := s.rdb.Get(ctx, s.matchKey(id)).Bytes()
	if err != nil {
		return models.MatchState{}, s.mapErr("read match", err)
	}
	return store.Decode(data, 0)
}

func (s *MatchStore) ReadMatchByCode(ctx context.Context, code string) (models.MatchState, error) {
	raw, err := s.rdb.Get(ctx, s.codeKey(code)).Result()
	if err != nil {
		return models.MatchState{}, s.mapErr("read match code", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return models.MatchState{}, fmt.Errorf("corrupt code index %q: %w", code, err)
	}
	return s.ReadMatch(ctx, id)
}

func (s *MatchStore) CommitMatch(ctx context.Context, expectedVersion int64, next models.MatchState) (models.MatchState, error) {
	next = next.Clone()
	next.Version = expectedVersion + 1
	doc, err := store.Encode(next)
	if err != nil {
		return models.MatchState{}, err
	}

	mk := s.matchKey(next.ID)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, mk).Bytes()
		if err != nil {
			return err
		}
		current, err := store.Decode(data, 0)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return store.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, mk, doc, 0)
			return nil
		})
		return err
	}, mk)
	if err != nil {
		return models.MatchState{}, s.mapErr("commit match", err)
	}
	return next, nil
}

// mapErr turns redis outcomes into store sentinels. TxFailedErr means a
// WATCHed key changed before EXEC.
func (s *MatchStore) mapErr(op string, err error) error {
	switch {
	case errors.Is(err, redis.Nil):
		return store.ErrNotFound
	case errors.Is(err, redis.TxFailedErr):
		return store.ErrConflict
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
