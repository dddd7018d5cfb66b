// Package storetest holds the behaviour every store.MatchStore must share.
package storetest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Code returns a fresh join code so suites can share a long-lived backend.
func Code() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// NewMatch returns a waiting match with two seated players.
func NewMatch(code string) models.MatchState {
	leader := uuid.New()
	return models.MatchState{
		ID:   uuid.New(),
		Code: code,
		Players: []models.PlayerState{
			{ID: leader, Name: "alice", Health: 100, Mana: 50, IsLeader: true,
				Cards: []models.CardInstance{{InstanceID: uuid.New(), CardID: "fireball"}}},
			{ID: uuid.New(), Name: "bob", Health: 100, Mana: 50,
				Cards: []models.CardInstance{{InstanceID: uuid.New(), CardID: "ice-shard"}}},
		},
		CurrentTurnPlayerID: leader,
		Status:              models.StatusWaiting,
		LeaderID:            leader,
		Settings:            &models.SettingsOverrides{MaxHealth: models.Int(120)},
		CreatedAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Run exercises a MatchStore. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.MatchStore) {
	t.Run("create and read", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMatch(Code())

		created, err := s.CreateMatch(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)

		got, err := s.ReadMatch(ctx, m.ID)
		require.NoError(t, err)
		want := m.Clone()
		want.Version = 1
		assert.Equal(t, want, got)

		byCode, err := s.ReadMatchByCode(ctx, strings.ToLower(m.Code))
		require.NoError(t, err)
		assert.Equal(t, m.ID, byCode.ID)
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.ReadMatch(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.ReadMatchByCode(ctx, Code())
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.CommitMatch(ctx, 1, NewMatch(Code()))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("create collisions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		code := Code()
		m := NewMatch(code)
		_, err := s.CreateMatch(ctx, m)
		require.NoError(t, err)

		_, err = s.CreateMatch(ctx, m)
		assert.ErrorIs(t, err, store.ErrConflict, "same id")

		_, err = s.CreateMatch(ctx, NewMatch(code))
		assert.ErrorIs(t, err, store.ErrConflict, "same code")
	})

	t.Run("commit bumps version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m, err := s.CreateMatch(ctx, NewMatch(Code()))
		require.NoError(t, err)

		next := m.Clone()
		next.Status = models.StatusPlaying
		next.Players[1].Health = 80
		next.LastAction = &models.GameAction{Type: "play_card", ActorID: m.LeaderID, CardID: "fireball", Value: 20, Timestamp: 1}

		committed, err := s.CommitMatch(ctx, m.Version, next)
		require.NoError(t, err)
		assert.Equal(t, int64(2), committed.Version)

		got, err := s.ReadMatch(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, committed, got)
		assert.Equal(t, 80, got.Players[1].Health)
		require.NotNil(t, got.LastAction)
		assert.Equal(t, "fireball", got.LastAction.CardID)
	})

	t.Run("stale commit conflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m, err := s.CreateMatch(ctx, NewMatch(Code()))
		require.NoError(t, err)

		first := m.Clone()
		first.Players[0].Mana = 10
		_, err = s.CommitMatch(ctx, m.Version, first)
		require.NoError(t, err)

		second := m.Clone()
		second.Players[0].Mana = 99
		_, err = s.CommitMatch(ctx, m.Version, second)
		assert.ErrorIs(t, err, store.ErrConflict)

		got, err := s.ReadMatch(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Players[0].Mana, "losing commit left no trace")
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("racing commits", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m, err := s.CreateMatch(ctx, NewMatch(Code()))
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins, conflicts := 0, 0
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(mana int) {
				defer wg.Done()
				next := m.Clone()
				next.Players[0].Mana = mana
				_, err := s.CommitMatch(ctx, m.Version, next)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, store.ErrConflict):
					conflicts++
				default:
					t.Errorf("unexpected commit error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, conflicts)
	})
}
