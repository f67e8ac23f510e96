package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNotifyReachesOnlyThatUser(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	alice, bob := uuid.New(), uuid.New()

	aliceConn := dial(t, hub, alice)
	bobConn := dial(t, hub, bob)
	require.Eventually(t, func() bool {
		return hub.Connections(alice) == 1 && hub.Connections(bob) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Notify(alice, map[string]any{"kind": "achievement.unlocked", "points": 30})

	require.NoError(t, aliceConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := aliceConn.ReadMessage()
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "achievement.unlocked", got["kind"])
	assert.EqualValues(t, 30, got["points"])

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	user := uuid.New()

	conn := dial(t, hub, user)
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections(user) == 0 }, 2*time.Second, 10*time.Millisecond)

	// Notifying a user with no connections is a no-op.
	hub.Notify(user, map[string]string{"kind": "noop"})
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))

	assert.True(t, originChecker([]string{"*"})(r))
}
