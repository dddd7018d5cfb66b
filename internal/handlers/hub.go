// internal/handlers/hub.go
package handlers

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/sirupsen/logrus"
)

// subscriberBuffer is how many updates a slow client may lag behind before
// it is dropped.
const subscriberBuffer = 16

// matchUpdate is one encoded broadcast and the match version it carries.
type matchUpdate struct {
	version int64
	data    []byte
}

// subscriber is one websocket client of a match. send is closed when the
// hub drops it.
type subscriber struct {
	playerID uuid.UUID
	send     chan matchUpdate
	dropped  bool
}

// Hub fans committed match snapshots out to the websocket clients watching
// each match. It is the service's Notifier.
type Hub struct {
	mu     sync.Mutex
	logger *logrus.Logger
	subs   map[uuid.UUID]map[*subscriber]struct{}
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

// Subscribe registers a client for updates of matchID.
func (h *Hub) Subscribe(matchID, playerID uuid.UUID) *subscriber {
	s := &subscriber{playerID: playerID, send: make(chan matchUpdate, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[*subscriber]struct{})
	}
	h.subs[matchID][s] = struct{}{}
	return s
}

// Unsubscribe removes s. It is safe to call after the hub already dropped it.
func (h *Hub) Unsubscribe(matchID uuid.UUID, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(matchID, s)
}

// Subscribers returns how many clients watch matchID.
func (h *Hub) Subscribers(matchID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[matchID])
}

// MatchUpdated broadcasts m to every subscriber of the match. It never
// blocks: a subscriber whose buffer is full is dropped.
func (h *Hub) MatchUpdated(m models.MatchState) {
	data, err := json.Marshal(map[string]interface{}{
		"type":  "match_updated",
		"match": m,
	})
	if err != nil {
		h.logger.WithError(err).WithField("match", m.ID).Error("failed to marshal match update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[m.ID] {
		select {
		case s.send <- matchUpdate{version: m.Version, data: data}:
		default:
			h.logger.WithFields(logrus.Fields{"match": m.ID, "player": s.playerID}).Warn("dropping slow subscriber")
			h.removeLocked(m.ID, s)
		}
	}
}

func (h *Hub) removeLocked(matchID uuid.UUID, s *subscriber) {
	set := h.subs[matchID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, matchID)
	}
	if !s.dropped {
		s.dropped = true
		close(s.send)
	}
}
