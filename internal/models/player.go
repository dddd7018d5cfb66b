package models

import "github.com/google/uuid"

// PlayerEffect is an active timed modifier on a player.
type PlayerEffect struct {
	Kind              string `json:"type"`
	Value             int    `json:"value"`
	RemainingDuration int    `json:"duration"`
}

// PlayerState is one combatant inside a match.
type PlayerState struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Health   int            `json:"health"`
	Mana     int            `json:"mana"`
	Cards    []CardInstance `json:"cards"`
	Effects  []PlayerEffect `json:"effects,omitempty"`
	IsLeader bool           `json:"isLeader,omitempty"`
}

// Alive reports whether the player may act and be rotated to.
func (p PlayerState) Alive() bool {
	return p.Health > 0
}

// Clone returns a copy that shares no slices with p.
func (p PlayerState) Clone() PlayerState {
	c := p
	if p.Cards != nil {
		c.Cards = make([]CardInstance, len(p.Cards))
		copy(c.Cards, p.Cards)
	}
	if p.Effects != nil {
		c.Effects = make([]PlayerEffect, len(p.Effects))
		copy(c.Effects, p.Effects)
	}
	return c
}
