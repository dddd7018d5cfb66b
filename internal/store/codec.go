package store

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/manaclash/internal/models"
)

// Encode serializes a snapshot into the document persisted by the durable stores.
func Encode(m models.MatchState) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode match %s: %w", m.ID, err)
	}
	return data, nil
}

// Decode parses a persisted document. version, when positive, overrides the
// version recorded in the document; stores that track it in a separate column
// treat that column as the authority.
func Decode(data []byte, version int64) (models.MatchState, error) {
	var m models.MatchState
	if err := json.Unmarshal(data, &m); err != nil {
		return models.MatchState{}, fmt.Errorf("decode match: %w", err)
	}
	if version > 0 {
		m.Version = version
	}
	return m, nil
}
