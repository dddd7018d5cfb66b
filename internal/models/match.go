// internal/models/match.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the lifecycle stage of a match.
type MatchStatus string

const (
	StatusWaiting  MatchStatus = "waiting"
	StatusPlaying  MatchStatus = "playing"
	StatusFinished MatchStatus = "finished"
)

// GameSettings are the numeric limits of a match.
type GameSettings struct {
	MaxHealth       int `json:"maxHealth"`
	MaxMana         int `json:"maxMana"`
	ManaDrinkAmount int `json:"manaDrinkAmount"`
	InitialHealth   int `json:"initialHealth"`
	InitialMana     int `json:"initialMana"`
}

// SettingsOverrides are the settings a match carries itself. A nil field is
// absent and falls back to the catalog default; zero is a real value.
type SettingsOverrides struct {
	MaxHealth       *int `json:"maxHealth,omitempty"`
	MaxMana         *int `json:"maxMana,omitempty"`
	ManaDrinkAmount *int `json:"manaDrinkAmount,omitempty"`
	InitialHealth   *int `json:"initialHealth,omitempty"`
	InitialMana     *int `json:"initialMana,omitempty"`
}

// Clone returns a copy that shares no pointers with o.
func (o SettingsOverrides) Clone() SettingsOverrides {
	return SettingsOverrides{
		MaxHealth:       cloneInt(o.MaxHealth),
		MaxMana:         cloneInt(o.MaxMana),
		ManaDrinkAmount: cloneInt(o.ManaDrinkAmount),
		InitialHealth:   cloneInt(o.InitialHealth),
		InitialMana:     cloneInt(o.InitialMana),
	}
}

// Int returns a pointer to v, for building overrides.
func Int(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	return Int(*p)
}

// GameAction is the audit record of the last committed action.
type GameAction struct {
	Type      string     `json:"type"`
	ActorID   uuid.UUID  `json:"playerId"`
	TargetID  *uuid.UUID `json:"targetId,omitempty"`
	CardID    string     `json:"cardId,omitempty"`
	Value     int        `json:"value"`
	Timestamp int64      `json:"timestamp"` // epoch millis
}

// MatchState is one game instance. Version is owned by the store and is the
// token checked on every commit.
type MatchState struct {
	ID                  uuid.UUID          `json:"id"`
	Code                string             `json:"code"`
	Players             []PlayerState      `json:"players"`
	CurrentTurnPlayerID uuid.UUID          `json:"currentTurn"`
	Status              MatchStatus        `json:"status"`
	LeaderID            uuid.UUID          `json:"leaderId"`
	WinnerID            *uuid.UUID         `json:"winner,omitempty"`
	Settings            *SettingsOverrides `json:"settings,omitempty"`
	LastAction          *GameAction        `json:"lastAction,omitempty"`
	Version             int64              `json:"version"`
	CreatedAt           time.Time          `json:"createdAt"`
}

// PlayerIndex returns the position of the player in the rotation order, or -1.
func (m *MatchState) PlayerIndex(id uuid.UUID) int {
	for i := range m.Players {
		if m.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// Player returns the player with the given id.
func (m *MatchState) Player(id uuid.UUID) (PlayerState, bool) {
	if i := m.PlayerIndex(id); i >= 0 {
		return m.Players[i], true
	}
	return PlayerState{}, false
}

// AlivePlayers returns the living players in rotation order.
func (m *MatchState) AlivePlayers() []PlayerState {
	alive := make([]PlayerState, 0, len(m.Players))
	for _, p := range m.Players {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// Clone returns a deep copy of the match so a transition can build the next
// snapshot without touching the one it was given.
func (m MatchState) Clone() MatchState {
	c := m
	if m.Players != nil {
		c.Players = make([]PlayerState, len(m.Players))
		for i, p := range m.Players {
			c.Players[i] = p.Clone()
		}
	}
	if m.WinnerID != nil {
		w := *m.WinnerID
		c.WinnerID = &w
	}
	if m.Settings != nil {
		s := m.Settings.Clone()
		c.Settings = &s
	}
	if m.LastAction != nil {
		a := *m.LastAction
		if a.TargetID != nil {
			t := *a.TargetID
			a.TargetID = &t
		}
		c.LastAction = &a
	}
	return c
}
