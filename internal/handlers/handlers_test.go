// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/manaclash/internal/auth"
	"github.com/jason-s-yu/manaclash/internal/catalog"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/jason-s-yu/manaclash/internal/service"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	svc    *service.Matches
	hub    *Hub
}

func setupTestServer(t *testing.T) testServer {
	t.Helper()
	return setupTestServerWithStore(t, store.NewMemory())
}

func setupTestServerWithStore(t *testing.T, st store.MatchStore) testServer {
	t.Helper()
	require.NoError(t, auth.Init("1h"))
	cat, err := catalog.Default()
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)
	svc := service.New(st, cat, logger, service.WithNotifier(hub))
	return testServer{router: NewRouter(logger, svc, cat, hub), svc: svc, hub: hub}
}

func newToken(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, err := auth.CreateJWT(id.String())
	require.NoError(t, err)
	return id, token
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Cookie", AuthCookieName+"="+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// startedMatch creates a match led by a fresh player, seats a guest and starts it.
func startedMatch(t *testing.T, s testServer) (models.MatchState, string, string) {
	t.Helper()
	_, leaderToken := newToken(t)
	_, guestToken := newToken(t)

	w := s.do(t, http.MethodPost, "/match/create", leaderToken, map[string]interface{}{"name": "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decode[models.MatchState](t, w)

	w = s.do(t, http.MethodPost, "/match/join", guestToken, map[string]string{"code": m.Code, "name": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, decode[actionResponse](t, w).Applied)

	w = s.do(t, http.MethodPost, "/match/"+m.ID.String()+"/start", leaderToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[actionResponse](t, w)
	require.True(t, res.Applied, res.Reason)
	return *res.Match, leaderToken, guestToken
}

func TestPing(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestCreateSession(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, http.MethodPost, "/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[sessionResponse](t, w)
	assert.NotEqual(t, uuid.Nil, res.PlayerID)
	sub, err := auth.AuthenticateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.PlayerID.String(), sub)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AuthCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// an existing session is kept
	again := decode[sessionResponse](t, s.do(t, http.MethodPost, "/session", res.Token, nil))
	assert.Equal(t, res.PlayerID, again.PlayerID)
}

func TestCatalogCards(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, http.MethodGet, "/catalog/cards", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[catalogResponse](t, w)
	assert.NotEmpty(t, res.Cards)
	assert.NotEmpty(t, res.RarityWeights)
	assert.Equal(t, 100, res.Settings.MaxHealth)
}

func TestMatchEndpointsRequireAuth(t *testing.T) {
	s := setupTestServer(t)
	id := uuid.New().String()
	for _, path := range []string{"/match/create", "/match/join", "/match/" + id + "/start", "/match/" + id + "/card", "/match/" + id + "/drink", "/match/" + id + "/end-turn"} {
		w := s.do(t, http.MethodPost, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(t, http.MethodPost, "/match/"+id+"/drink", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	s := setupTestServer(t)
	_, token := newToken(t)
	req := httptest.NewRequest(http.MethodPost, "/match/create", bytes.NewBufferString(`{"name":"carol"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCreateMatchSettings(t *testing.T) {
	s := setupTestServer(t)
	_, token := newToken(t)

	w := s.do(t, http.MethodPost, "/match/create", token, map[string]interface{}{
		"name":     "alice",
		"settings": map[string]interface{}{"maxHealth": 150, "initialHealth": 120},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decode[models.MatchState](t, w)
	require.NotNil(t, m.Settings)
	require.NotNil(t, m.Settings.MaxHealth)
	assert.Equal(t, 150, *m.Settings.MaxHealth)
	assert.Nil(t, m.Settings.MaxMana, "keys not sent stay unset")
	assert.Equal(t, 120, m.Players[0].Health)
	assert.Len(t, m.Code, service.JoinCodeLength)

	w = s.do(t, http.MethodPost, "/match/create", token, map[string]interface{}{
		"settings": map[string]interface{}{"maxHealth": "lots"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinUnknownCode(t *testing.T) {
	s := setupTestServer(t)
	_, token := newToken(t)

	w := s.do(t, http.MethodPost, "/match/join", token, map[string]string{"code": "NOPE42"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[actionResponse](t, w)
	assert.False(t, res.Applied)
	assert.Equal(t, "match_not_found", res.Reason)
	assert.Nil(t, res.Match)

	w = s.do(t, http.MethodPost, "/match/join", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMatch(t *testing.T) {
	s := setupTestServer(t)
	m, _, _ := startedMatch(t, s)

	w := s.do(t, http.MethodGet, "/match/"+m.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.MatchState](t, w)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, models.StatusPlaying, got.Status)

	w = s.do(t, http.MethodGet, "/match/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/match/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlayCardAndTurns(t *testing.T) {
	s := setupTestServer(t)
	m, leaderToken, guestToken := startedMatch(t, s)
	leader, guest := m.Players[0], m.Players[1]
	base := "/match/" + m.ID.String()

	w := s.do(t, http.MethodPost, base+"/card", leaderToken, map[string]interface{}{"cardId": "fireball", "targetId": guest.ID})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[actionResponse](t, w)
	require.True(t, res.Applied, res.Reason)
	p, _ := res.Match.Player(guest.ID)
	assert.Equal(t, 80, p.Health)
	p, _ = res.Match.Player(leader.ID)
	assert.Equal(t, 40, p.Mana)
	require.NotNil(t, res.Action)
	assert.Equal(t, "fireball", res.Action.CardID)

	// rejections are reported, not errors
	w = s.do(t, http.MethodPost, base+"/end-turn", guestToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[actionResponse](t, w)
	assert.False(t, res.Applied)
	assert.Equal(t, "not_your_turn", res.Reason)

	w = s.do(t, http.MethodPost, base+"/drink", guestToken, nil)
	res = decode[actionResponse](t, w)
	assert.True(t, res.Applied, "drinking is allowed off turn")

	w = s.do(t, http.MethodPost, base+"/end-turn", leaderToken, nil)
	res = decode[actionResponse](t, w)
	require.True(t, res.Applied)
	assert.Equal(t, guest.ID, res.Match.CurrentTurnPlayerID)

	w = s.do(t, http.MethodPost, base+"/card", guestToken, map[string]interface{}{"cardId": "no-such-card", "targetId": leader.ID})
	res = decode[actionResponse](t, w)
	assert.False(t, res.Applied)
	assert.Equal(t, "unknown_card", res.Reason)
}

func TestActionOnMissingMatch(t *testing.T) {
	s := setupTestServer(t)
	_, token := newToken(t)

	w := s.do(t, http.MethodPost, "/match/"+uuid.New().String()+"/drink", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[actionResponse](t, w)
	assert.False(t, res.Applied)
	assert.Equal(t, "match_not_found", res.Reason)
}
