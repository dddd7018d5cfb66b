// internal/game/lifecycle.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
)

// NewMatch builds a match in the waiting state with the leader seated first.
func (e *Engine) NewMatch(id uuid.UUID, code string, leader models.PlayerState, overrides *models.SettingsOverrides, now time.Time) models.MatchState {
	m := models.MatchState{
		ID:        id,
		Code:      code,
		Status:    models.StatusWaiting,
		LeaderID:  leader.ID,
		CreatedAt: now.UTC(),
	}
	if overrides != nil {
		o := overrides.Clone()
		m.Settings = &o
	}
	s := e.Settings(m)
	leader = leader.Clone()
	leader.IsLeader = true
	leader.Health = s.InitialHealth
	leader.Mana = s.InitialMana
	m.Players = []models.PlayerState{leader}
	m.CurrentTurnPlayerID = leader.ID
	return m
}

// Join seats a new player at the end of the rotation while the match is waiting.
func (e *Engine) Join(m models.MatchState, p models.PlayerState, at time.Time) Outcome {
	if m.Status != models.StatusWaiting {
		return rejected(m, ReasonNotWaiting)
	}
	if m.PlayerIndex(p.ID) >= 0 {
		return rejected(m, ReasonAlreadyJoined)
	}

	s := e.Settings(m)
	next := m.Clone()
	p = p.Clone()
	p.IsLeader = false
	p.Health = s.InitialHealth
	p.Mana = s.InitialMana
	next.Players = append(next.Players, p)

	record := &models.GameAction{
		Type:      string(ActionJoin),
		ActorID:   p.ID,
		Timestamp: at.UnixMilli(),
	}
	next.LastAction = record
	return applied(next, record)
}

// Start moves a waiting match into play. Only the leader may start it, and
// only with at least two players seated. Every player is reset to the
// initial health and mana and the first seat takes the first turn.
func (e *Engine) Start(m models.MatchState, a Action) Outcome {
	if m.Status != models.StatusWaiting {
		return rejected(m, ReasonNotWaiting)
	}
	if m.PlayerIndex(a.ActorID) < 0 {
		return rejected(m, ReasonActorNotFound)
	}
	if a.ActorID != m.LeaderID {
		return rejected(m, ReasonNotLeader)
	}
	if len(m.Players) < 2 {
		return rejected(m, ReasonNotEnoughPlayers)
	}

	s := e.Settings(m)
	next := m.Clone()
	for i := range next.Players {
		next.Players[i].Health = s.InitialHealth
		next.Players[i].Mana = s.InitialMana
	}
	next.Status = models.StatusPlaying
	next.WinnerID = nil
	next.CurrentTurnPlayerID = next.Players[0].ID

	record := &models.GameAction{
		Type:      string(ActionStart),
		ActorID:   a.ActorID,
		Timestamp: a.At.UnixMilli(),
	}
	next.LastAction = record
	return applied(next, record)
}
