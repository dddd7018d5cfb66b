// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/manaclash/internal/catalog"
	"github.com/jason-s-yu/manaclash/internal/middleware"
	"github.com/jason-s-yu/manaclash/internal/service"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every endpoint of the server behind the request logger.
func NewRouter(logger *logrus.Logger, svc *service.Matches, cat *catalog.Catalog, hub *Hub) http.Handler {
	mux := http.NewServeMux()
	matches := NewMatchHandlers(logger, svc)

	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	mux.HandleFunc("POST /session", CreateSessionHandler(logger))
	mux.HandleFunc("GET /catalog/cards", ListCardsHandler(logger, cat))

	mux.HandleFunc("POST /match/create", matches.CreateMatch)
	mux.HandleFunc("POST /match/join", matches.JoinMatch)
	mux.HandleFunc("GET /match/ws/{id}", MatchWSHandler(logger, svc, hub))
	mux.HandleFunc("GET /match/{id}", matches.GetMatch)
	mux.HandleFunc("POST /match/{id}/start", matches.StartMatch)
	mux.HandleFunc("POST /match/{id}/card", matches.PlayCard)
	mux.HandleFunc("POST /match/{id}/drink", matches.DrinkMana)
	mux.HandleFunc("POST /match/{id}/end-turn", matches.EndTurn)

	return middleware.LogMiddleware(logger)(mux)
}
