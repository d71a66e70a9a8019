package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/akinalp/scaffoldr/models"
)

type fakeValidator map[string]string // token -> user id

func (f fakeValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if id, ok := f[token]; ok {
		return &models.TokenClaims{UserID: id}, nil
	}
	return nil, errors.New("invalid")
}

func startServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	log := zaptest.NewLogger(t)
	hub := NewHub(log)
	go hub.Run()

	handler := NewHandler(hub, fakeValidator{"tok-alice": "alice", "tok-bob": "bob"}, log)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnection))

	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var ready Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&ready))
	require.Equal(t, OpReady, ready.Op)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var e Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestHandler_RejectsBadToken(t *testing.T) {
	_, srv := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub, srv := startServer(t)

	alice1 := dial(t, srv, "tok-alice")
	alice2 := dial(t, srv, "tok-alice")
	bob := dial(t, srv, "tok-bob")

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 3 }, 5*time.Second, 10*time.Millisecond)

	hub.BroadcastToUser("alice", Event{Op: OpProjectUpdate, Data: ProjectUpdateData{
		ProjectID: "p1", Status: models.ProjectStatusReady,
	}})
	hub.BroadcastToAll(Event{Op: OpTemplatesUpdate, Data: TemplatesUpdateData{Count: 4}})

	for _, conn := range []*websocket.Conn{alice1, alice2} {
		e := readEvent(t, conn)
		assert.Equal(t, OpProjectUpdate, e.Op)
		assert.Equal(t, "p1", e.Data.(map[string]any)["projectId"])
		assert.Equal(t, OpTemplatesUpdate, readEvent(t, conn).Op)
	}

	e := readEvent(t, bob)
	assert.Equal(t, OpTemplatesUpdate, e.Op, "bob only gets the broadcast")
	assert.Greater(t, e.Seq, int64(0))
}

func TestClient_Heartbeat(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv, "tok-alice")

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Event{Op: "unknown"}))
	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op, "bad frames are ignored")
}

func TestHub_Disconnect(t *testing.T) {
	hub, srv := startServer(t)
	conn := dial(t, srv, "tok-alice")

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_Shutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	log := zaptest.NewLogger(t)
	hub := NewHub(log)
	go hub.Run()

	handler := NewHandler(hub, fakeValidator{"tok": "u"}, log)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnection))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=tok"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn) // ready

	hub.Shutdown()

	// The server sends a close frame; the next read fails.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	assert.False(t, hub.Register(newClient(hub, nil, "late", log)))
}

func TestClient_SendAfterShutdown(t *testing.T) {
	log := zaptest.NewLogger(t)
	hub := NewHub(log)
	go hub.Run()

	c := newClient(hub, nil, "u", log)
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.Shutdown()
	assert.True(t, c.closed())

	assert.NotPanics(t, func() {
		c.sendEvent(Event{Op: OpHeartbeatAck})
		hub.BroadcastToAll(Event{Op: OpTemplatesUpdate})
	})
	assert.Empty(t, c.send)
}

func TestClient_SendAfterUnregister(t *testing.T) {
	log := zaptest.NewLogger(t)
	hub := NewHub(log)
	go hub.Run()
	defer hub.Shutdown()

	c := newClient(hub, nil, "u", log)
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, c.closed, 5*time.Second, 10*time.Millisecond)
	assert.NotPanics(t, func() { c.sendEvent(Event{Op: OpHeartbeatAck}) })
}

func TestHub_RegisterRacingShutdown(t *testing.T) {
	log := zaptest.NewLogger(t)
	hub := NewHub(log)
	hub.Shutdown()

	// Run picked the registration up after Shutdown cleared the map.
	c := newClient(hub, nil, "u", log)
	hub.addClient(c)

	assert.True(t, c.closed())
	assert.Equal(t, 0, hub.ConnectionCount())
}
