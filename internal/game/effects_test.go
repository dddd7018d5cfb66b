package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/stretchr/testify/assert"
)

func pair(actorHealth, actorMana, targetHealth, targetMana int) (models.PlayerState, models.PlayerState) {
	return models.PlayerState{ID: uuid.New(), Health: actorHealth, Mana: actorMana},
		models.PlayerState{ID: uuid.New(), Health: targetHealth, Mana: targetMana}
}

func TestResolveDamage(t *testing.T) {
	r := NewResolver()
	actor, target := pair(100, 50, 100, 50)

	_, got := r.Resolve(models.EffectDamage, 20, actor, target, testDefaults)
	assert.Equal(t, 80, got.Health)

	_, got = r.Resolve(models.EffectDamage, 500, actor, target, testDefaults)
	assert.Equal(t, 0, got.Health, "damage never pushes health below zero")

	_, got = r.Resolve(models.EffectDamage, -30, actor, target, testDefaults)
	assert.Equal(t, 100, got.Health, "negative magnitude is inert")
	assert.Equal(t, 100, target.Health, "input is not modified")
}

func TestResolveHeal(t *testing.T) {
	r := NewResolver()
	actor, target := pair(100, 50, 60, 50)

	_, got := r.Resolve(models.EffectHeal, 25, actor, target, testDefaults)
	assert.Equal(t, 85, got.Health)

	_, got = r.Resolve(models.EffectHeal, 80, actor, target, testDefaults)
	assert.Equal(t, testDefaults.MaxHealth, got.Health, "heal is capped at maxHealth")
}

func TestResolveManaDrain(t *testing.T) {
	r := NewResolver()
	actor, target := pair(100, 40, 100, 15)

	a, tg := r.Resolve(models.EffectManaDrain, 20, actor, target, testDefaults)
	assert.Equal(t, 0, tg.Mana, "only what the target has can be drained")
	assert.Equal(t, 55, a.Mana)

	actor.Mana = 95
	target.Mana = 50
	a, tg = r.Resolve(models.EffectManaDrain, 20, actor, target, testDefaults)
	assert.Equal(t, 30, tg.Mana)
	assert.Equal(t, testDefaults.MaxMana, a.Mana, "actor gain is capped at maxMana")
}

func TestResolveForceDrink(t *testing.T) {
	r := NewResolver()
	actor, target := pair(100, 10, 100, 30)

	_, got := r.Resolve(models.EffectForceDrink, 999, actor, target, testDefaults)
	assert.Equal(t, 30+testDefaults.ManaDrinkAmount, got.Mana, "drink size comes from settings, not the card")

	target.Mana = 95
	_, got = r.Resolve(models.EffectForceDrink, 0, actor, target, testDefaults)
	assert.Equal(t, testDefaults.MaxMana, got.Mana)
}

func TestResolveManaBurn(t *testing.T) {
	r := NewResolver()
	actor, target := pair(100, 10, 100, 30)

	_, got := r.Resolve(models.EffectManaBurn, 0, actor, target, testDefaults)
	assert.Equal(t, 0, got.Mana)
	assert.Equal(t, 70, got.Health)

	target.Health = 20
	_, got = r.Resolve(models.EffectManaBurn, 0, actor, target, testDefaults)
	assert.Equal(t, 0, got.Health, "burn damage is clamped at zero")
	assert.Equal(t, 0, got.Mana)
}

func TestResolveUnknownKindIsInert(t *testing.T) {
	r := NewResolver()
	actor, target := pair(100, 10, 100, 30)

	for _, kind := range []models.EffectKind{models.EffectAoeDamage, models.EffectChallenge, models.EffectMultiply, "nonsense"} {
		assert.False(t, r.Handles(kind))
		a, tg := r.Resolve(kind, 50, actor, target, testDefaults)
		assert.Equal(t, actor, a, kind)
		assert.Equal(t, target, tg, kind)
	}
}

func TestResolveSelf(t *testing.T) {
	r := NewResolver()
	p := models.PlayerState{ID: uuid.New(), Health: 50, Mana: 40}

	got := r.ResolveSelf(models.EffectHeal, 30, p, testDefaults)
	assert.Equal(t, 80, got.Health)

	got = r.ResolveSelf(models.EffectManaDrain, 25, p, testDefaults)
	assert.Equal(t, 40, got.Mana, "draining yourself moves mana nowhere")

	got = r.ResolveSelf(models.EffectManaBurn, 0, p, testDefaults)
	assert.Equal(t, 10, got.Health)
	assert.Equal(t, 0, got.Mana)
}

func TestRegisterHandler(t *testing.T) {
	r := NewResolver()
	r.Register(models.EffectManaRefill, func(_, target *models.PlayerState, _ int, s models.GameSettings) {
		target.Mana = s.MaxMana
	})
	assert.True(t, r.Handles(models.EffectManaRefill))

	actor, target := pair(100, 10, 100, 5)
	_, got := r.Resolve(models.EffectManaRefill, 0, actor, target, testDefaults)
	assert.Equal(t, testDefaults.MaxMana, got.Mana)
}
