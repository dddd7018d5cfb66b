// internal/handlers/match.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/game"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/service"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/sirupsen/logrus"
)

// actionResponse is the body of every action endpoint. Rejections are 200s
// with Applied false and a reason.
type actionResponse struct {
	Applied bool               `json:"applied"`
	Reason  string             `json:"reason,omitempty"`
	Match   *models.MatchState `json:"match,omitempty"`
	Action  *models.GameAction `json:"action,omitempty"`
}

func newActionResponse(res service.Result) actionResponse {
	out := actionResponse{Applied: res.Applied, Reason: string(res.Reason), Action: res.Action}
	if res.Reason != game.ReasonMatchNotFound {
		m := res.Match
		out.Match = &m
	}
	return out
}

type createMatchRequest struct {
	Name     string                 `json:"name"`
	Settings map[string]interface{} `json:"settings"`
}

type joinMatchRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type playCardRequest struct {
	CardID   string    `json:"cardId"`
	TargetID uuid.UUID `json:"targetId"`
}

// MatchHandlers serves the match endpoints on top of the match service.
type MatchHandlers struct {
	logger *logrus.Logger
	svc    *service.Matches
}

func NewMatchHandlers(logger *logrus.Logger, svc *service.Matches) *MatchHandlers {
	return &MatchHandlers{logger: logger, svc: svc}
}

// CreateMatch handles POST /match/create.
func (h *MatchHandlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req createMatchRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var overrides *models.SettingsOverrides
	if len(req.Settings) > 0 {
		o, err := game.ParseSettings(req.Settings, h.svc.Engine().Settings(models.MatchState{}))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		overrides = &o
	}

	m, err := h.svc.CreateMatch(r.Context(), models.PlayerState{ID: playerID, Name: req.Name}, overrides)
	if err != nil {
		h.logger.WithError(err).Error("create match failed")
		http.Error(w, "failed to create match", http.StatusInternalServerError)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, m)
}

// JoinMatch handles POST /match/join.
func (h *MatchHandlers) JoinMatch(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req joinMatchRequest
	if err := decodeBody(r, &req); err != nil || req.Code == "" {
		http.Error(w, "a join code is required", http.StatusBadRequest)
		return
	}

	res, err := h.svc.JoinMatch(r.Context(), req.Code, models.PlayerState{ID: playerID, Name: req.Name})
	h.writeResult(w, res, err)
}

// GetMatch handles GET /match/{id}.
func (h *MatchHandlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	m, err := h.svc.GetMatch(r.Context(), matchID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("match", matchID).Error("read match failed")
		http.Error(w, "failed to read match", http.StatusInternalServerError)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, m)
}

// StartMatch handles POST /match/{id}/start.
func (h *MatchHandlers) StartMatch(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(matchID, playerID uuid.UUID) (service.Result, error) {
		return h.svc.StartMatch(r.Context(), matchID, playerID)
	})
}

// PlayCard handles POST /match/{id}/card.
func (h *MatchHandlers) PlayCard(w http.ResponseWriter, r *http.Request) {
	var req playCardRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.act(w, r, func(matchID, playerID uuid.UUID) (service.Result, error) {
		return h.svc.ApplyCardEffect(r.Context(), matchID, playerID, req.TargetID, req.CardID)
	})
}

// DrinkMana handles POST /match/{id}/drink.
func (h *MatchHandlers) DrinkMana(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(matchID, playerID uuid.UUID) (service.Result, error) {
		return h.svc.RestoreMana(r.Context(), matchID, playerID)
	})
}

// EndTurn handles POST /match/{id}/end-turn.
func (h *MatchHandlers) EndTurn(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(matchID, playerID uuid.UUID) (service.Result, error) {
		return h.svc.EndTurn(r.Context(), matchID, playerID)
	})
}

func (h *MatchHandlers) act(w http.ResponseWriter, r *http.Request, run func(matchID, playerID uuid.UUID) (service.Result, error)) {
	playerID, err := playerFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	matchID, err := matchIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	res, err := run(matchID, playerID)
	h.writeResult(w, res, err)
}

func (h *MatchHandlers) writeResult(w http.ResponseWriter, res service.Result, err error) {
	switch {
	case errors.Is(err, service.ErrContention):
		http.Error(w, "match is busy, try again", http.StatusConflict)
	case err != nil:
		h.logger.WithError(err).Error("match action failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(h.logger, w, http.StatusOK, newActionResponse(res))
	}
}
