// internal/game/game_test.go
package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/stretchr/testify/require"
)

var testDefaults = models.GameSettings{
	MaxHealth:       100,
	MaxMana:         100,
	ManaDrinkAmount: 20,
	InitialHealth:   100,
	InitialMana:     50,
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestMatch builds a playing match with numPlayers players at the
// default initial health and mana; the first player holds the turn.
func setupTestMatch(t *testing.T, numPlayers int) (*Engine, models.MatchState, []uuid.UUID) {
	t.Helper()
	e := NewEngine(nil, testDefaults)

	ids := make([]uuid.UUID, numPlayers)
	players := make([]models.PlayerState, numPlayers)
	for i := range players {
		ids[i] = uuid.New()
		players[i] = models.PlayerState{
			ID:     ids[i],
			Name:   "player",
			Health: testDefaults.InitialHealth,
			Mana:   testDefaults.InitialMana,
			Cards:  []models.CardInstance{{InstanceID: uuid.New(), CardID: "fireball"}},
		}
	}
	players[0].IsLeader = true

	m := models.MatchState{
		ID:                  uuid.New(),
		Code:                "ABC123",
		Players:             players,
		CurrentTurnPlayerID: ids[0],
		Status:              models.StatusPlaying,
		LeaderID:            ids[0],
		Version:             3,
		CreatedAt:           testNow,
	}
	require.Len(t, m.AlivePlayers(), numPlayers)
	return e, m, ids
}

func card(id string, kind models.EffectKind, value, cost int, targeted bool) *models.CardDefinition {
	return &models.CardDefinition{
		ID:             id,
		Name:           id,
		ManaCost:       cost,
		Rarity:         models.RarityCommon,
		Effect:         models.CardEffect{Kind: kind, Value: value},
		RequiresTarget: targeted,
	}
}

func playCard(actor, target uuid.UUID, c *models.CardDefinition) Action {
	return Action{Kind: ActionPlayCard, ActorID: actor, TargetID: target, Card: c, At: testNow}
}

func setHealth(m *models.MatchState, id uuid.UUID, health int) {
	m.Players[m.PlayerIndex(id)].Health = health
}

func setMana(m *models.MatchState, id uuid.UUID, mana int) {
	m.Players[m.PlayerIndex(id)].Mana = mana
}

func mustPlayer(t *testing.T, m models.MatchState, id uuid.UUID) models.PlayerState {
	t.Helper()
	p, ok := m.Player(id)
	require.True(t, ok, "player %s should be seated", id)
	return p
}
