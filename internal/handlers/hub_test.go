package handlers

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToMatchSubscribers(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewHub(logger)
	matchID, other := uuid.New(), uuid.New()

	a := h.Subscribe(matchID, uuid.New())
	b := h.Subscribe(matchID, uuid.New())
	c := h.Subscribe(other, uuid.New())
	assert.Equal(t, 2, h.Subscribers(matchID))

	h.MatchUpdated(models.MatchState{ID: matchID, Version: 3})

	for _, s := range []*subscriber{a, b} {
		require.Len(t, s.send, 1)
		var msg struct {
			Type  string            `json:"type"`
			Match models.MatchState `json:"match"`
		}
		u := <-s.send
		assert.Equal(t, int64(3), u.version)
		require.NoError(t, json.Unmarshal(u.data, &msg))
		assert.Equal(t, "match_updated", msg.Type)
		assert.Equal(t, int64(3), msg.Match.Version)
	}
	assert.Empty(t, c.send)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHub(logger)
	matchID := uuid.New()
	slow := h.Subscribe(matchID, uuid.New())

	for i := 0; i < subscriberBuffer+1; i++ {
		h.MatchUpdated(models.MatchState{ID: matchID})
	}
	assert.Equal(t, 0, h.Subscribers(matchID))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "dropping slow subscriber", hook.LastEntry().Message)

	n := 0
	for range slow.send {
		n++
	}
	assert.Equal(t, subscriberBuffer, n, "buffered updates are still delivered before the close")

	// unsubscribing after a drop is harmless
	h.Unsubscribe(matchID, slow)
}

func TestHubUnsubscribe(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewHub(logger)
	matchID := uuid.New()
	s := h.Subscribe(matchID, uuid.New())

	h.Unsubscribe(matchID, s)
	assert.Equal(t, 0, h.Subscribers(matchID))
	_, open := <-s.send
	assert.False(t, open)

	h.MatchUpdated(models.MatchState{ID: matchID})
}
