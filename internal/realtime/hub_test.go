package realtime

import (
	"context"
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

	"github.com/uncleisme/mobile-app/internal/models"
)

func dial(t *testing.T, srv *httptest.Server, uid uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=" + uid.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func queryIdentity(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get("uid"))
	return id, err == nil
}

func TestNotifyReachesRecipients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler(queryIdentity))
	defer srv.Close()

	alice, bob := uuid.New(), uuid.New()
	a := dial(t, srv, alice)
	b := dial(t, srv, bob)
	require.Eventually(t, func() bool {
		return hub.Connections(alice) == 1 && hub.Connections(bob) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), models.Notification{ID: uuid.New(), Message: "Work order WO-1 approved", Recipients: []uuid.UUID{alice}})

	_ = a.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := a.ReadMessage()
	require.NoError(t, err)
	var ev struct {
		Type string              `json:"type"`
		Data models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "notification", ev.Type)
	assert.Equal(t, "Work order WO-1 approved", ev.Data.Message)

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "bob is not a recipient")
}

func TestUnauthenticatedUpgradeRejected(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler(queryIdentity))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler(queryIdentity))
	defer srv.Close()

	uid := uuid.New()
	conn := dial(t, srv, uid)
	require.Eventually(t, func() bool { return hub.Connections(uid) == 1 }, time.Second, 10*time.Millisecond)
	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections(uid) == 0 }, time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(r))
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))
}
