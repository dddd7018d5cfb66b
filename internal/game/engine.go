// internal/game/engine.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
)

// Outcome is the result of one transition. When Applied is false, Match is
// the input snapshot untouched and Reason says why.
type Outcome struct {
	Match   models.MatchState
	Applied bool
	Reason  Reason
	Action  *models.GameAction
}

// Engine computes match transitions. It holds no mutable state: every call
// takes a snapshot and returns a new one, so it is safe to call concurrently
// and to re-run against a fresher snapshot.
type Engine struct {
	resolver *Resolver
	defaults models.GameSettings
}

// NewEngine builds an engine using the given resolver and default settings.
// A nil resolver gets the built-in effect kinds.
func NewEngine(resolver *Resolver, defaults models.GameSettings) *Engine {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Engine{resolver: resolver, defaults: defaults}
}

// Settings returns the effective settings of m.
func (e *Engine) Settings(m models.MatchState) models.GameSettings {
	return Effective(m, e.defaults)
}

// Apply dispatches a turn action by kind.
func (e *Engine) Apply(m models.MatchState, a Action) Outcome {
	switch a.Kind {
	case ActionPlayCard:
		return e.ApplyCard(m, a)
	case ActionRestoreMana:
		return e.RestoreMana(m, a)
	case ActionEndTurn:
		return e.EndTurn(m, a)
	case ActionStart:
		return e.Start(m, a)
	}
	return rejected(m, ReasonUnknownAction)
}

// ApplyCard plays a card from the actor onto its target. The mana cost is paid
// before the effect resolves, then the match is checked for termination.
func (e *Engine) ApplyCard(m models.MatchState, a Action) Outcome {
	a.Kind = ActionPlayCard
	if r := Validate(a, m); r != Accepted {
		return rejected(m, r)
	}

	s := e.Settings(m)
	next := m.Clone()
	card := a.Card
	targetID := targetOf(a)
	ai := next.PlayerIndex(a.ActorID)
	ti := next.PlayerIndex(targetID)

	actor := next.Players[ai]
	actor.Mana = max(0, actor.Mana-card.ManaCost)

	var before, after models.PlayerState
	if ai == ti {
		before = actor
		after = e.resolver.ResolveSelf(card.Effect.Kind, card.Effect.Value, actor, s)
		next.Players[ai] = after
	} else {
		before = next.Players[ti]
		var newActor models.PlayerState
		newActor, after = e.resolver.Resolve(card.Effect.Kind, card.Effect.Value, actor, before, s)
		next.Players[ai] = newActor
		next.Players[ti] = after
	}

	finish(&next)
	if next.Status == models.StatusPlaying {
		if holder, ok := next.Player(next.CurrentTurnPlayerID); ok && !holder.Alive() {
			next.CurrentTurnPlayerID = NextTurn(next)
		}
	}

	record := &models.GameAction{
		Type:      string(ActionPlayCard),
		ActorID:   a.ActorID,
		TargetID:  idPtr(targetID),
		CardID:    card.ID,
		Value:     changed(before, after),
		Timestamp: a.At.UnixMilli(),
	}
	next.LastAction = record
	return applied(next, record)
}

// RestoreMana lets any living player drink mana, regardless of whose turn it is.
func (e *Engine) RestoreMana(m models.MatchState, a Action) Outcome {
	a.Kind = ActionRestoreMana
	if r := Validate(a, m); r != Accepted {
		return rejected(m, r)
	}

	s := e.Settings(m)
	next := m.Clone()
	i := next.PlayerIndex(a.ActorID)
	before := next.Players[i].Mana
	next.Players[i].Mana = clamp(before+s.ManaDrinkAmount, 0, s.MaxMana)

	record := &models.GameAction{
		Type:      string(ActionRestoreMana),
		ActorID:   a.ActorID,
		Value:     next.Players[i].Mana - before,
		Timestamp: a.At.UnixMilli(),
	}
	next.LastAction = record
	return applied(next, record)
}

// EndTurn passes the turn to the next living player.
func (e *Engine) EndTurn(m models.MatchState, a Action) Outcome {
	a.Kind = ActionEndTurn
	if r := Validate(a, m); r != Accepted {
		return rejected(m, r)
	}

	next := m.Clone()
	next.CurrentTurnPlayerID = NextTurn(m)

	record := &models.GameAction{
		Type:      string(ActionEndTurn),
		ActorID:   a.ActorID,
		TargetID:  idPtr(next.CurrentTurnPlayerID),
		Timestamp: a.At.UnixMilli(),
	}
	next.LastAction = record
	return applied(next, record)
}

// finish applies the termination rule: at most one living player ends the
// match, and the survivor, if any, wins.
func finish(m *models.MatchState) {
	alive := m.AlivePlayers()
	if len(alive) > 1 {
		return
	}
	m.Status = models.StatusFinished
	m.WinnerID = nil
	if len(alive) == 1 {
		m.WinnerID = idPtr(alive[0].ID)
	}
}

// changed is the magnitude recorded in the audit trail: health moved if any,
// otherwise mana moved.
func changed(before, after models.PlayerState) int {
	if d := abs(after.Health - before.Health); d != 0 {
		return d
	}
	return abs(after.Mana - before.Mana)
}

func rejected(m models.MatchState, r Reason) Outcome {
	return Outcome{Match: m, Reason: r}
}

func applied(m models.MatchState, record *models.GameAction) Outcome {
	return Outcome{Match: m, Applied: true, Action: record}
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
