// internal/game/settings.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/manaclash/internal/models"
)

// Effective resolves the settings for one transition. Each override carried
// by the match wins, including an explicit zero; absent fields take the
// default. Initial values are capped by their maxima.
func Effective(m models.MatchState, defaults models.GameSettings) models.GameSettings {
	s := resolve(m.Settings, defaults)
	if s.InitialHealth > s.MaxHealth {
		s.InitialHealth = s.MaxHealth
	}
	if s.InitialMana > s.MaxMana {
		s.InitialMana = s.MaxMana
	}
	return s
}

func resolve(o *models.SettingsOverrides, defaults models.GameSettings) models.GameSettings {
	s := defaults
	if o == nil {
		return s
	}
	pick := func(field *int, override *int) {
		if override != nil {
			*field = *override
		}
	}
	pick(&s.MaxHealth, o.MaxHealth)
	pick(&s.MaxMana, o.MaxMana)
	pick(&s.ManaDrinkAmount, o.ManaDrinkAmount)
	pick(&s.InitialHealth, o.InitialHealth)
	pick(&s.InitialMana, o.InitialMana)
	return s
}

// UpdateSettings applies overrides decoded from a JSON object onto o.
// Keys that are absent or null keep their old value.
func UpdateSettings(o *models.SettingsOverrides, overrides map[string]interface{}) error {
	assignInt := func(field **int, key string, minVal int) error {
		val, exists := overrides[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		// JSON numbers decode as float64
		switch v := val.(type) {
		case float64:
			if v != float64(int(v)) {
				return fmt.Errorf("%s must be a whole number", key)
			}
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		*field = models.Int(n)
		return nil
	}

	if err := assignInt(&o.MaxHealth, "maxHealth", 1); err != nil {
		return err
	}
	if err := assignInt(&o.MaxMana, "maxMana", 1); err != nil {
		return err
	}
	if err := assignInt(&o.ManaDrinkAmount, "manaDrinkAmount", 0); err != nil {
		return err
	}
	if err := assignInt(&o.InitialHealth, "initialHealth", 1); err != nil {
		return err
	}
	return assignInt(&o.InitialMana, "initialMana", 0)
}

// ParseSettings decodes overrides and checks them against the defaults they
// will be resolved with. Only the keys present end up set.
func ParseSettings(overrides map[string]interface{}, defaults models.GameSettings) (models.SettingsOverrides, error) {
	var o models.SettingsOverrides
	if err := UpdateSettings(&o, overrides); err != nil {
		return o, err
	}
	s := resolve(&o, defaults)
	if s.InitialHealth > s.MaxHealth {
		return o, fmt.Errorf("initialHealth cannot exceed maxHealth")
	}
	if s.InitialMana > s.MaxMana {
		return o, fmt.Errorf("initialMana cannot exceed maxMana")
	}
	return o, nil
}
