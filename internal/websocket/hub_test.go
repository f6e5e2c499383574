package websocket

import (
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

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHub_ConnectSendsWelcome(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeConnection, env.Type)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.NotEmpty(t, data["client_id"])
}

func TestHub_BroadcastReload(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	readEnvelope(t, conn) // drain welcome

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.BroadcastReload(TypeReloadCompleted, map[string]interface{}{
		"batches": 42,
	})

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeReloadCompleted, env.Type)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 42, data["batches"])
	assert.NotEmpty(t, env.Timestamp)
}

func TestHub_BroadcastWithNoClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	// Must not block or panic.
	hub.BroadcastReload(TypeReloadStarted, nil)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ClientCountTracksDisconnect(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	readEnvelope(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestClient_DetachReturnsAfterStop(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Stop()

	client := &Client{hub: hub, send: make(chan []byte, 1)}

	done := make(chan struct{})
	go func() {
		client.detach()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("detach blocked after hub stopped")
	}
}
