// internal/game/validate.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
)

// Reason tags why an action was rejected. Accepted is the empty reason.
type Reason string

const (
	Accepted Reason = ""

	ReasonMatchNotFound    Reason = "match_not_found"
	ReasonUnknownAction    Reason = "unknown_action"
	ReasonNotPlaying       Reason = "match_not_playing"
	ReasonActorNotFound    Reason = "actor_not_found"
	ReasonActorDead        Reason = "actor_dead"
	ReasonUnknownCard      Reason = "unknown_card"
	ReasonTargetNotFound   Reason = "target_not_found"
	ReasonTargetDead       Reason = "target_dead"
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonInsufficientMana Reason = "insufficient_mana"

	// lobby transitions
	ReasonNotWaiting       Reason = "match_not_waiting"
	ReasonNotLeader        Reason = "not_leader"
	ReasonNotEnoughPlayers Reason = "not_enough_players"
	ReasonAlreadyJoined    Reason = "already_joined"
)

// ActionKind names a requested transition.
type ActionKind string

const (
	ActionPlayCard    ActionKind = "play_card"
	ActionRestoreMana ActionKind = "drink_mana"
	ActionEndTurn     ActionKind = "end_turn"
	ActionJoin        ActionKind = "join"
	ActionStart       ActionKind = "start"
)

// TurnBound reports whether only the turn holder may perform the action.
// Drinking mana is deliberately not turn-bound.
func (k ActionKind) TurnBound() bool {
	return k == ActionPlayCard || k == ActionEndTurn
}

// Action is one requested transition. At is fixed by the caller so that
// re-running the same action against a fresher snapshot is deterministic.
type Action struct {
	Kind     ActionKind
	ActorID  uuid.UUID
	TargetID uuid.UUID
	Card     *models.CardDefinition
	At       time.Time
}

// targetOf returns the id an action's effect lands on. Cards that do not
// require a target are always self-cast.
func targetOf(a Action) uuid.UUID {
	if a.Card != nil && !a.Card.RequiresTarget {
		return a.ActorID
	}
	return a.TargetID
}

// Validate checks a turn action against the match. The checks run in a fixed
// order and the first failure is returned.
func Validate(a Action, m models.MatchState) Reason {
	if m.Status != models.StatusPlaying {
		return ReasonNotPlaying
	}

	actor, ok := m.Player(a.ActorID)
	if !ok {
		return ReasonActorNotFound
	}
	if !actor.Alive() {
		return ReasonActorDead
	}

	if a.Kind == ActionPlayCard {
		if a.Card == nil {
			return ReasonUnknownCard
		}
		target, ok := m.Player(targetOf(a))
		if !ok {
			return ReasonTargetNotFound
		}
		if a.Card.Effect.Kind.IsDamage() && !target.Alive() {
			return ReasonTargetDead
		}
	}

	if a.Kind.TurnBound() && a.ActorID != m.CurrentTurnPlayerID {
		return ReasonNotYourTurn
	}

	if a.Kind == ActionPlayCard && actor.Mana < a.Card.ManaCost {
		return ReasonInsufficientMana
	}

	return Accepted
}
