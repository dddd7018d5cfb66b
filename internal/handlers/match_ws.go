// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/middleware"
	"github.com/jason-s-yu/manaclash/internal/service"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	matchSubprotocol = "match"
	wsWriteTimeout   = 5 * time.Second
)

// MatchMessage is an incoming websocket message on the match stream.
type MatchMessage struct {
	Type     string    `json:"type"`
	CardID   string    `json:"cardId,omitempty"`
	TargetID uuid.UUID `json:"targetId"`
}

// MatchWSHandler upgrades GET /match/ws/{id}. The client receives the current
// snapshot on connect, then every committed snapshot, and may send actions.
func MatchWSHandler(logger *logrus.Logger, svc *service.Matches, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		// subscribe before reading so no commit falls between the snapshot
		// and the stream
		sub := hub.Subscribe(matchID, playerID)
		defer hub.Unsubscribe(matchID, sub)

		m, err := svc.GetMatch(r.Context(), matchID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.WithError(err).WithField("match", matchID).Error("read match failed")
			http.Error(w, "failed to read match", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{matchSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.WithError(err).WithField("match", matchID).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")

		if c.Subprotocol() != matchSubprotocol {
			c.Close(BadSubprotocolError, "client must use the 'match' subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sendWsMessage(ctx, logger, c, map[string]interface{}{"type": "match_state", "match": m})
		go writeUpdates(ctx, logger, c, sub, m.Version)

		err = readMatchMessages(ctx, logger, c, svc, matchID, playerID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// writeUpdates relays hub broadcasts newer than the snapshot the client got
// on connect until the context ends. A dropped subscriber gets its
// connection closed.
func writeUpdates(ctx context.Context, logger *logrus.Logger, c *websocket.Conn, sub *subscriber, sentVersion int64) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.send:
			if !ok {
				c.Close(SlowConsumerError, "too far behind")
				return
			}
			if u.version <= sentVersion {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.Write(wctx, websocket.MessageText, u.data)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("player", sub.playerID).Debug("failed to write match update")
				return
			}
		}
	}
}

func readMatchMessages(ctx context.Context, logger *logrus.Logger, c *websocket.Conn, svc *service.Matches, matchID, playerID uuid.UUID) error {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			return err
		}

		var msg MatchMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, logger, c, "invalid message format")
			continue
		}
		handleMatchMessage(ctx, logger, c, svc, matchID, playerID, msg)
	}
}

func handleMatchMessage(ctx context.Context, logger *logrus.Logger, c *websocket.Conn, svc *service.Matches, matchID, playerID uuid.UUID, msg MatchMessage) {
	var (
		res service.Result
		err error
	)
	switch msg.Type {
	case "ping":
		sendWsMessage(ctx, logger, c, map[string]interface{}{"type": "pong"})
		return
	case "action_play_card":
		res, err = svc.ApplyCardEffect(ctx, matchID, playerID, msg.TargetID, msg.CardID)
	case "action_drink_mana":
		res, err = svc.RestoreMana(ctx, matchID, playerID)
	case "action_end_turn":
		res, err = svc.EndTurn(ctx, matchID, playerID)
	default:
		sendWsError(ctx, logger, c, "unknown message type: "+msg.Type)
		return
	}

	if errors.Is(err, service.ErrContention) {
		sendWsError(ctx, logger, c, "match is busy, try again")
		return
	}
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"match": matchID, "player": playerID}).Error("websocket action failed")
		sendWsError(ctx, logger, c, "internal error")
		return
	}
	sendWsMessage(ctx, logger, c, map[string]interface{}{
		"type":    "action_result",
		"action":  msg.Type,
		"applied": res.Applied,
		"reason":  string(res.Reason),
	})
}

func sendWsMessage(ctx context.Context, logger *logrus.Logger, c *websocket.Conn, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.WithError(err).Error("failed to marshal websocket message")
		return
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := c.Write(wctx, websocket.MessageText, data); err != nil {
		logger.WithError(err).Debug("failed to write websocket message")
	}
}

func sendWsError(ctx context.Context, logger *logrus.Logger, c *websocket.Conn, message string) {
	sendWsMessage(ctx, logger, c, map[string]interface{}{"type": "error", "message": message})
}
