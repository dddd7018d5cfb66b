// internal/game/turn.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
)

// NextTurn returns the next living player after the current turn holder in
// seat order, wrapping around. The scan visits each seat at most once; when no
// other player is alive the current holder is returned unchanged.
func NextTurn(m models.MatchState) uuid.UUID {
	n := len(m.Players)
	if n == 0 {
		return m.CurrentTurnPlayerID
	}

	// a holder missing from the seats starts the scan at seat 0
	start := m.PlayerIndex(m.CurrentTurnPlayerID)
	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		if idx == start {
			break
		}
		if m.Players[idx].Alive() {
			return m.Players[idx].ID
		}
	}
	return m.CurrentTurnPlayerID
}
