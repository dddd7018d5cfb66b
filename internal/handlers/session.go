// internal/handlers/session.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/auth"
	"github.com/sirupsen/logrus"
)

type sessionResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
	Token    string    `json:"token"`
}

// CreateSessionHandler issues a guest identity: a fresh player id and a token
// for it, also set as the auth cookie. A caller that already holds a valid
// token gets it back unchanged.
func CreateSessionHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, err := playerFromRequest(r); err == nil {
			writeJSON(logger, w, http.StatusOK, sessionResponse{PlayerID: id, Token: requestToken(r)})
			return
		}

		id := uuid.New()
		token, err := auth.CreateJWT(id.String())
		if err != nil {
			logger.WithError(err).Error("failed to create guest token")
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     AuthCookieName,
			Value:    token,
			HttpOnly: true,
			Path:     "/",
		})
		logger.WithField("player", id).Debug("guest session created")
		writeJSON(logger, w, http.StatusOK, sessionResponse{PlayerID: id, Token: token})
	}
}
