package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	fireball, ok := c.Card("fireball")
	require.True(t, ok)
	assert.Equal(t, 10, fireball.ManaCost)
	assert.Equal(t, models.EffectDamage, fireball.Effect.Kind)
	assert.True(t, fireball.RequiresTarget)

	duel, ok := c.Card("duel")
	require.True(t, ok)
	require.NotNil(t, duel.Effect.Challenge)
	assert.Equal(t, models.EffectDamage, duel.Effect.Challenge.Loser.Kind)

	_, ok = c.Card("does-not-exist")
	assert.False(t, ok)

	s := c.SettingsDefaults()
	assert.Equal(t, 100, s.MaxHealth)
	assert.Equal(t, 20, s.ManaDrinkAmount)

	cards := c.Cards()
	require.NotEmpty(t, cards)
	assert.Equal(t, "fireball", cards[0].ID, "catalog order is preserved")

	weights := c.RarityWeights()
	require.Len(t, weights, 4)
	assert.Equal(t, models.RarityCommon, weights[0].Rarity)
	assert.Equal(t, models.RarityLegendary, weights[3].Rarity)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	base := `"settings":{"maxHealth":100,"maxMana":100,"manaDrinkAmount":20,"initialHealth":100,"initialMana":50}`
	cases := map[string]string{
		"duplicate id":   `{` + base + `,"cards":[{"id":"a","rarity":"common"},{"id":"a","rarity":"common"}]}`,
		"negative cost":  `{` + base + `,"cards":[{"id":"a","rarity":"common","manaCost":-1}]}`,
		"bad rarity":     `{` + base + `,"cards":[{"id":"a","rarity":"mythic"}]}`,
		"missing id":     `{` + base + `,"cards":[{"name":"nameless","rarity":"common"}]}`,
		"challenge pair": `{` + base + `,"cards":[{"id":"a","rarity":"epic","isChallenge":true}]}`,
		"bad settings":   `{"settings":{"maxHealth":0,"maxMana":100},"cards":[]}`,
		"bad weight":     `{` + base + `,"rarityWeights":{"mythic":1},"cards":[]}`,
		"not json":       `{`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	doc := `{"settings":{"maxHealth":50,"maxMana":30,"manaDrinkAmount":5,"initialHealth":50,"initialMana":10},
	"cards":[{"id":"zap","name":"Zap","manaCost":3,"rarity":"common","effect":{"type":"damage","value":4},"requiresTarget":true}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, c.SettingsDefaults().MaxMana)
	zap, ok := c.Card("zap")
	require.True(t, ok)
	assert.Equal(t, 4, zap.Effect.Value)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	_, ok = def.Card("fireball")
	assert.True(t, ok)
}
