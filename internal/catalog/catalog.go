// internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jason-s-yu/manaclash/internal/models"
)

//go:embed cards.json
var defaultCatalog []byte

// Catalog is the read-only registry of card definitions and default settings.
// It is never mutated after Load, so it may be shared freely between goroutines.
type Catalog struct {
	cards    map[string]models.CardDefinition
	order    []string
	settings models.GameSettings
	weights  map[models.Rarity]int
}

type catalogFile struct {
	Settings      models.GameSettings     `json:"settings"`
	RarityWeights map[models.Rarity]int   `json:"rarityWeights"`
	Cards         []models.CardDefinition `json:"cards"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog document from disk. An empty path returns the bundled catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if err := validateSettings(f.Settings); err != nil {
		return nil, err
	}

	c := &Catalog{
		cards:    make(map[string]models.CardDefinition, len(f.Cards)),
		order:    make([]string, 0, len(f.Cards)),
		settings: f.Settings,
		weights:  make(map[models.Rarity]int, len(f.RarityWeights)),
	}
	for r, w := range f.RarityWeights {
		if !r.Valid() {
			return nil, fmt.Errorf("unknown rarity %q in rarityWeights", r)
		}
		if w < 0 {
			return nil, fmt.Errorf("rarity weight for %s must be non-negative", r)
		}
		c.weights[r] = w
	}
	for _, card := range f.Cards {
		if card.ID == "" {
			return nil, fmt.Errorf("card %q has no id", card.Name)
		}
		if _, dup := c.cards[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		if card.ManaCost < 0 {
			return nil, fmt.Errorf("card %q: manaCost must be non-negative", card.ID)
		}
		if !card.Rarity.Valid() {
			return nil, fmt.Errorf("card %q: unknown rarity %q", card.ID, card.Rarity)
		}
		if card.IsChallenge && card.Effect.Challenge == nil {
			return nil, fmt.Errorf("card %q: challenge card without challengeEffects", card.ID)
		}
		c.cards[card.ID] = card
		c.order = append(c.order, card.ID)
	}
	return c, nil
}

func validateSettings(s models.GameSettings) error {
	if s.MaxHealth <= 0 || s.MaxMana <= 0 {
		return fmt.Errorf("catalog settings: maxHealth and maxMana must be positive")
	}
	if s.ManaDrinkAmount < 0 {
		return fmt.Errorf("catalog settings: manaDrinkAmount must be non-negative")
	}
	if s.InitialHealth <= 0 || s.InitialHealth > s.MaxHealth {
		return fmt.Errorf("catalog settings: initialHealth must be in 1..maxHealth")
	}
	if s.InitialMana < 0 || s.InitialMana > s.MaxMana {
		return fmt.Errorf("catalog settings: initialMana must be in 0..maxMana")
	}
	return nil
}

// Card looks up a definition by id.
func (c *Catalog) Card(id string) (models.CardDefinition, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// Cards returns every definition in catalog order.
func (c *Catalog) Cards() []models.CardDefinition {
	out := make([]models.CardDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// SettingsDefaults returns the settings used when a match carries no overrides.
func (c *Catalog) SettingsDefaults() models.GameSettings {
	return c.settings
}

// RarityWeights returns the relative drop weight of each rarity, highest first.
func (c *Catalog) RarityWeights() []RarityWeight {
	out := make([]RarityWeight, 0, len(c.weights))
	for r, w := range c.weights {
		out = append(out, RarityWeight{Rarity: r, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight == out[j].Weight {
			return out[i].Rarity < out[j].Rarity
		}
		return out[i].Weight > out[j].Weight
	})
	return out
}

// RarityWeight is one entry of the rarity table.
type RarityWeight struct {
	Rarity models.Rarity `json:"rarity"`
	Weight int           `json:"weight"`
}
