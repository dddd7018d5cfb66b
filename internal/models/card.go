// internal/models/card.go
package models

import "github.com/google/uuid"

// Rarity is the catalog rarity tier of a card.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid reports whether r is one of the four known tiers.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// EffectKind is the discriminant selecting which numeric transformation a card applies.
type EffectKind string

const (
	EffectDamage     EffectKind = "damage"
	EffectHeal       EffectKind = "heal"
	EffectManaDrain  EffectKind = "manaDrain"
	EffectForceDrink EffectKind = "forceDrink"
	EffectManaBurn   EffectKind = "manaBurn"

	// Kinds present in card data whose resolution rules are not defined.
	// They resolve as no-ops until a handler is registered for them.
	EffectPotionBuff   EffectKind = "potionBuff"
	EffectManaRefill   EffectKind = "manaRefill"
	EffectAoeDamage    EffectKind = "aoeDamage"
	EffectRoulette     EffectKind = "roulette"
	EffectInfiniteVoid EffectKind = "infiniteVoid"
	EffectTitan        EffectKind = "titan"
	EffectChallenge    EffectKind = "challenge"
	EffectBuff         EffectKind = "buff"
	EffectDebuff       EffectKind = "debuff"
	EffectMultiply     EffectKind = "multiply"
	EffectAdd          EffectKind = "add"
)

// IsDamage reports whether the effect reduces the target's health, which
// makes it illegal against an already-dead target.
func (k EffectKind) IsDamage() bool {
	return k == EffectDamage || k == EffectManaBurn
}

// EffectSpec is a kind plus magnitude.
type EffectSpec struct {
	Kind  EffectKind `json:"type"`
	Value int        `json:"value"`
}

// ChallengeEffects pairs the outcome for the winner and the loser of a challenge card.
type ChallengeEffects struct {
	Winner EffectSpec `json:"winner"`
	Loser  EffectSpec `json:"loser"`
}

// CardEffect is the effect carried by a card definition.
type CardEffect struct {
	Kind      EffectKind        `json:"type"`
	Value     int               `json:"value"`
	Challenge *ChallengeEffects `json:"challengeEffects,omitempty"`
}

// CardDefinition is an immutable catalog entry.
type CardDefinition struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	ManaCost       int        `json:"manaCost"`
	Rarity         Rarity     `json:"rarity"`
	Type           string     `json:"type"`
	Effect         CardEffect `json:"effect"`
	RequiresTarget bool       `json:"requiresTarget"`
	Color          string     `json:"color"`
	IsChallenge    bool       `json:"isChallenge,omitempty"`
	IsLegendary    bool       `json:"isLegendary,omitempty"`
	FlavorText     string     `json:"flavorText,omitempty"`
}

// CardInstance is one copy of a catalog card held by a player.
type CardInstance struct {
	InstanceID uuid.UUID `json:"instanceId"`
	CardID     string    `json:"cardId"`
}
