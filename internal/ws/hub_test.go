package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, r.URL.Query().Get("tenant"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, tenant string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?tenant=" + tenant
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) WSEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev WSEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHub_BroadcastsToTenantClients(t *testing.T) {
	hub, srv := startHub(t)
	acme := dial(t, srv, "acme")
	other := dial(t, srv, "other")

	// Registration may still be in flight; either the live broadcast or the
	// replay on register delivers the event exactly once.
	hub.NotifyStatus("acme", map[string]string{"state": "connecting"})

	ev := readEvent(t, acme)
	assert.Equal(t, "connection_status", ev.Type)
	assert.Equal(t, "acme", ev.Tenant)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "clients of another tenant receive nothing")
}

func TestHub_ReplaysLatestEventOnConnect(t *testing.T) {
	hub, srv := startHub(t)
	hub.NotifyStatus("acme", map[string]string{"state": "connecting"})
	hub.NotifyStatus("acme", map[string]string{"state": "connected"})

	// Wait until the hub has processed both events before connecting.
	require.Eventually(t, func() bool { return len(hub.broadcast) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	ev := readEvent(t, dial(t, srv, "acme"))
	assert.Equal(t, "connection_status", ev.Type)
	data, ok := ev.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connected", data["state"])
}
