package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buragame/burad/internal/deck"
	"github.com/buragame/burad/internal/game"
	"github.com/buragame/burad/internal/randutil"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	srv := NewServer(cfg, nil, testLogger(), quartz.NewReal(), randutil.New(7))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, userID string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Name", strings.ToUpper(userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestVariantsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodGet, "/api/variants", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var variants []game.Variant
	require.NoError(t, json.Unmarshal(body["variants"], &variants))
	require.Len(t, variants, 4)
	assert.Equal(t, "classic_3p", variants[0].Key)
}

func TestCreateRequiresIdentity(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/game/create", "", map[string]any{"name": "t"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateValidatesConfig(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/game/create", "alice", map[string]any{
		"config": map[string]any{"maxPlayers": 9},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/game/create", "alice", map[string]any{
		"config": map[string]any{"discardVisibility": "sideways"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateJoinStartStateFlow(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/create", "alice", map[string]any{
		"name":    "Duel",
		"variant": "classic_2p",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roomID string
	require.NoError(t, json.Unmarshal(body["room_id"], &roomID))
	require.NotEmpty(t, roomID)

	// Creator is already seated, joining again is idempotent.
	resp, _ = doJSON(t, ts, http.MethodPost, "/api/game/join", "alice", map[string]any{"room_id": roomID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/game/join", "bob", map[string]any{"room_id": roomID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A third seat on a two-player table is rejected with the wire kind.
	resp, errBody := doJSON(t, ts, http.MethodPost, "/api/game/join", "carol", map[string]any{"room_id": roomID})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var kind string
	require.NoError(t, json.Unmarshal(errBody["error"], &kind))
	assert.Equal(t, "roomFull", kind)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/game/start/"+roomID, "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	room, ok := srv.Registry().Get(roomID)
	require.True(t, ok)
	assert.True(t, room.Started())

	resp, stateBody := doJSON(t, ts, http.MethodGet, "/api/game/state/"+roomID+"?player_id=alice", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var started bool
	require.NoError(t, json.Unmarshal(stateBody["started"], &started))
	assert.True(t, started)
	var hands []deck.Card
	require.NoError(t, json.Unmarshal(stateBody["hands"], &hands))
	assert.Len(t, hands, 4)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/game/state/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardWithoutStore(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body["leaderboard"]))
}

// --- websocket end to end ---

type wireFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

func wsDial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readState reads frames until a state frame arrives.
func readState(t *testing.T, conn *websocket.Conn) *game.GameState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var frame wireFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type != "state" {
			continue
		}
		var state game.GameState
		require.NoError(t, json.Unmarshal(frame.Payload, &state))
		return &state
	}
}

func TestWebsocketGameFlow(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/create", "alice", map[string]any{
		"name":    "Duel",
		"variant": "classic_2p",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roomID string
	require.NoError(t, json.Unmarshal(body["room_id"], &roomID))

	aliceConn := wsDial(t, ts, "/ws/"+roomID+"?player_id=alice")
	state := readState(t, aliceConn)
	assert.Equal(t, roomID, state.RoomID)
	assert.False(t, state.Started)

	// Bob takes the second seat by attaching.
	bobConn := wsDial(t, ts, "/ws/"+roomID+"?player_id=bob")
	bobState := readState(t, bobConn)
	assert.Len(t, bobState.Players, 2)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/game/start/"+roomID, "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Both clients converge on a started state with their own hands.
	var aliceState, bobStarted *game.GameState
	for aliceState = readState(t, aliceConn); !aliceState.Started; aliceState = readState(t, aliceConn) {
	}
	for bobStarted = readState(t, bobConn); !bobStarted.Started; bobStarted = readState(t, bobConn) {
	}
	require.Len(t, aliceState.Hands, 4)
	require.Len(t, bobStarted.Hands, 4)
	require.NotEmpty(t, aliceState.TurnPlayerID)

	// The current player leads their first card over the socket.
	conn := aliceConn
	hand := aliceState.Hands
	if aliceState.TurnPlayerID == "bob" {
		conn = bobConn
		hand = bobStarted.Hands
	}
	lead := map[string]any{
		"type":  "play",
		"cards": []map[string]any{{"suit": hand[0].Suit, "rank": hand[0].Rank}},
	}
	require.NoError(t, conn.WriteJSON(lead))

	// The opponent sees the trick appear.
	other := bobConn
	if conn == bobConn {
		other = aliceConn
	}
	var after *game.GameState
	for after = readState(t, other); after.Trick == nil; after = readState(t, other) {
	}
	assert.Equal(t, 1, after.Trick.RequiredCount)
	assert.Len(t, after.Trick.Plays, 1)
}

func TestWebsocketUnknownRoomClosedWithPolicyViolation(t *testing.T) {
	_, ts := newTestServer(t)

	conn := wsDial(t, ts, "/ws/nosuchroom?player_id=alice")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestWebsocketSpoofedPlayerIDClosed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/create", "alice", map[string]any{"name": "t"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roomID string
	require.NoError(t, json.Unmarshal(body["room_id"], &roomID))

	conn := wsDial(t, ts, "/ws/"+roomID+"?player_id=alice")
	readState(t, conn)

	// A frame naming the session's own player passes the identity check and
	// fails on game rules instead.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "declare", "player_id": "alice", "combo": "bura",
	}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame wireFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "error", frame.Type)
	assert.Equal(t, "roundNotActive", frame.Error)

	// Naming anyone else closes the socket.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "declare", "player_id": "mallory", "combo": "bura",
	}))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
		return
	}
}

func TestWebsocketMalformedFrameClosedWithUnsupportedData(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/create", "alice", map[string]any{"name": "t"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roomID string
	require.NoError(t, json.Unmarshal(body["room_id"], &roomID))

	conn := wsDial(t, ts, fmt.Sprintf("/ws/%s?player_id=alice", roomID))
	readState(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, websocket.CloseUnsupportedData, closeErr.Code)
		return
	}
}
