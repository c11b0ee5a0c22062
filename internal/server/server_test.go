package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ctchen222/Connect-Four/internal/events"
	"ctchen222/Connect-Four/internal/hub"
	"ctchen222/Connect-Four/internal/hub/types"
	"ctchen222/Connect-Four/internal/repository"
	"ctchen222/Connect-Four/internal/repository/mocks"
	"ctchen222/Connect-Four/internal/session"
	"ctchen222/Connect-Four/pkg/proto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type listBody struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  struct {
		List json.RawMessage `json:"list"`
	} `json:"extras"`
}

func newTestServer(t *testing.T, scores repository.ScoreRepository) (*Server, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := events.NewBus()
	h := hub.NewHub(bus, scores, types.Limits{})
	t.Cleanup(h.Close)
	return NewServer(ctx, h, bus, session.Options{}), h
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, repository.NewMemoryScoreRepository())

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"code":200,"extras":{"content":"ok"}}`, w.Body.String())
}

func TestScores(t *testing.T) {
	repo := repository.NewMemoryScoreRepository()
	require.NoError(t, repo.SetScore(context.Background(), "bob", 2))
	require.NoError(t, repo.SetScore(context.Background(), "alice", 5))
	srv, _ := newTestServer(t, repo)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scores", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.JSONEq(t, `[{"name":"alice","score":5},{"name":"bob","score":2}]`, string(body.Extras.List))
}

func TestScoresUnavailable(t *testing.T) {
	scores := mocks.NewMockScoreRepository(gomock.NewController(t))
	scores.EXPECT().ListScores(gomock.Any()).Return(nil, errors.New("redis down"))
	srv, _ := newTestServer(t, scores)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scores", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"success":false,"code":503,"extras":"score store unavailable"}`, w.Body.String())
}

func TestLobbyListings(t *testing.T) {
	ctx := context.Background()
	srv, h := newTestServer(t, repository.NewMemoryScoreRepository())
	_, err := h.Login(ctx, "p1", "alice")
	require.NoError(t, err)
	g, err := h.CreateGame(ctx, "p1", types.GameOptions{})
	require.NoError(t, err)
	engine := srv.Engine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/games", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var games listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &games))
	var list []proto.Game
	require.NoError(t, json.Unmarshal(games.Extras.List, &list))
	assert.Equal(t, []proto.Game{g}, list)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var players listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &players))
	var plist []proto.Player
	require.NoError(t, json.Unmarshal(players.Extras.List, &plist))
	assert.Equal(t, []proto.Player{{ID: "p1", Name: "alice", GameID: g.ID}}, plist)
}

func TestWebSocketLogin(t *testing.T) {
	srv, h := newTestServer(t, repository.NewMemoryScoreRepository())
	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(map[string]any{"type": proto.TypeLogin, "ref": "1", "username": "alice"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg struct {
			Type    string    `json:"type"`
			Ref     string    `json:"ref"`
			Payload proto.Ack `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == proto.TypeLogin {
			assert.Equal(t, "1", msg.Ref)
			assert.True(t, msg.Payload.Result)
			assert.NotEmpty(t, msg.Payload.PlayerID)
			break
		}
	}
	assert.Len(t, h.Players(), 1)

	// Closing the socket logs the player out
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return len(h.Players()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
