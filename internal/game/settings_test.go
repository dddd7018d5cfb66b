package game

import (
	"testing"

	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveFallsBackPerField(t *testing.T) {
	assert.Equal(t, testDefaults, Effective(models.MatchState{}, testDefaults))

	m := models.MatchState{Settings: &models.SettingsOverrides{MaxHealth: models.Int(150), ManaDrinkAmount: models.Int(5)}}
	got := Effective(m, testDefaults)
	assert.Equal(t, 150, got.MaxHealth)
	assert.Equal(t, 5, got.ManaDrinkAmount)
	assert.Equal(t, testDefaults.MaxMana, got.MaxMana)
	assert.Equal(t, testDefaults.InitialHealth, got.InitialHealth)
	assert.Equal(t, testDefaults.InitialMana, got.InitialMana)
}

func TestEffectiveKeepsExplicitZero(t *testing.T) {
	m := models.MatchState{Settings: &models.SettingsOverrides{InitialMana: models.Int(0), ManaDrinkAmount: models.Int(0)}}
	got := Effective(m, testDefaults)
	assert.Equal(t, 0, got.InitialMana)
	assert.Equal(t, 0, got.ManaDrinkAmount)
	assert.Equal(t, testDefaults.MaxMana, got.MaxMana)
}

func TestEffectiveCapsInitialValues(t *testing.T) {
	m := models.MatchState{Settings: &models.SettingsOverrides{MaxHealth: models.Int(60), MaxMana: models.Int(30)}}
	got := Effective(m, testDefaults)
	assert.Equal(t, 60, got.InitialHealth)
	assert.Equal(t, 30, got.InitialMana)
}

func TestParseSettings(t *testing.T) {
	got, err := ParseSettings(map[string]interface{}{
		"maxHealth":       float64(200),
		"initialHealth":   float64(150),
		"manaDrinkAmount": 10,
		"maxMana":         nil,
	}, testDefaults)
	require.NoError(t, err)
	require.NotNil(t, got.MaxHealth)
	assert.Equal(t, 200, *got.MaxHealth)
	assert.Equal(t, 150, *got.InitialHealth)
	assert.Equal(t, 10, *got.ManaDrinkAmount)
	assert.Nil(t, got.MaxMana)
	assert.Nil(t, got.InitialMana)
}

func TestParseSettingsZeroValues(t *testing.T) {
	got, err := ParseSettings(map[string]interface{}{
		"initialMana":     float64(0),
		"manaDrinkAmount": float64(0),
	}, testDefaults)
	require.NoError(t, err)
	require.NotNil(t, got.InitialMana)
	require.NotNil(t, got.ManaDrinkAmount)

	s := Effective(models.MatchState{Settings: &got}, testDefaults)
	assert.Equal(t, 0, s.InitialMana)
	assert.Equal(t, 0, s.ManaDrinkAmount)
}

func TestParseSettingsErrors(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"fraction":          {"maxMana": 10.5},
		"wrong type":        {"maxMana": "lots"},
		"below minimum":     {"maxHealth": float64(0)},
		"initial too big":   {"initialMana": float64(500)},
		"max below default": {"maxHealth": float64(50)},
		"negative drink":    {"manaDrinkAmount": float64(-1)},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSettings(overrides, testDefaults)
			assert.Error(t, err)
		})
	}
}
