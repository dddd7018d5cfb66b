// internal/game/effects.go
package game

import (
	"github.com/jason-s-yu/manaclash/internal/models"
)

// Handler applies one effect kind. actor and target may point at the same
// player when a card is self-cast. Handlers must clamp every field they touch
// into [0, max] themselves.
type Handler func(actor, target *models.PlayerState, magnitude int, s models.GameSettings)

// Resolver dispatches effect kinds to their handlers. Kinds without a handler
// resolve as no-ops so unknown card data never breaks a match.
//
// Register is meant for setup time; a Resolver is read-only once it is shared.
type Resolver struct {
	handlers map[models.EffectKind]Handler
}

// NewResolver returns a resolver with the built-in kinds registered.
func NewResolver() *Resolver {
	r := &Resolver{handlers: make(map[models.EffectKind]Handler)}
	r.Register(models.EffectDamage, resolveDamage)
	r.Register(models.EffectHeal, resolveHeal)
	r.Register(models.EffectManaDrain, resolveManaDrain)
	r.Register(models.EffectForceDrink, resolveForceDrink)
	r.Register(models.EffectManaBurn, resolveManaBurn)
	return r
}

// Register installs or replaces the handler for kind.
func (r *Resolver) Register(kind models.EffectKind, h Handler) {
	r.handlers[kind] = h
}

// Handles reports whether kind has a handler.
func (r *Resolver) Handles(kind models.EffectKind) bool {
	_, ok := r.handlers[kind]
	return ok
}

// Resolve computes the new actor and target states for two distinct players.
// The inputs are not modified.
func (r *Resolver) Resolve(kind models.EffectKind, magnitude int, actor, target models.PlayerState, s models.GameSettings) (models.PlayerState, models.PlayerState) {
	a, t := actor.Clone(), target.Clone()
	if h, ok := r.handlers[kind]; ok {
		h(&a, &t, nonNegative(magnitude), s)
	}
	return a, t
}

// ResolveSelf computes the new state of a player who is both actor and target.
func (r *Resolver) ResolveSelf(kind models.EffectKind, magnitude int, p models.PlayerState, s models.GameSettings) models.PlayerState {
	c := p.Clone()
	if h, ok := r.handlers[kind]; ok {
		h(&c, &c, nonNegative(magnitude), s)
	}
	return c
}

func resolveDamage(_, target *models.PlayerState, magnitude int, _ models.GameSettings) {
	target.Health = clamp(target.Health-magnitude, 0, target.Health)
}

func resolveHeal(_, target *models.PlayerState, magnitude int, s models.GameSettings) {
	target.Health = clamp(target.Health+magnitude, 0, s.MaxHealth)
}

func resolveManaDrain(actor, target *models.PlayerState, magnitude int, s models.GameSettings) {
	transferred := min(target.Mana, magnitude)
	target.Mana -= transferred
	actor.Mana = clamp(actor.Mana+transferred, 0, s.MaxMana)
}

// forceDrink ignores the card magnitude; the amount is the match's drink size.
func resolveForceDrink(_, target *models.PlayerState, _ int, s models.GameSettings) {
	target.Mana = clamp(target.Mana+s.ManaDrinkAmount, 0, s.MaxMana)
}

// manaBurn deals the target's whole mana pool as damage and empties it.
func resolveManaBurn(_, target *models.PlayerState, _ int, _ models.GameSettings) {
	damage := target.Mana
	target.Health = clamp(target.Health-damage, 0, target.Health)
	target.Mana = 0
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
