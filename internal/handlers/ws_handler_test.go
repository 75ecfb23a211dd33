package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"offline-gateway/internal/middleware"
	"offline-gateway/internal/models"
	"offline-gateway/internal/network"
	"offline-gateway/internal/protocol"
	"offline-gateway/internal/realtime"
	"offline-gateway/internal/syncqueue"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startWS(t *testing.T, hub *realtime.Hub, d MessageDispatcher) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/sw/ws", func(c *gin.Context) {
		c.Set(middleware.ClientIDKey, "client-1")
		c.Next()
	}, WebSocketHandler(hub, d))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sw/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *realtime.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(hub.Clients()) == n }, 5*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_DispatchesInbound(t *testing.T) {
	hub := realtime.NewHub()
	d := newRecordingDispatcher()
	conn := startWS(t, hub, d)

	msg := `{"type":"NOTIFICATION_CLICK","key":"meetings","action":"open"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	select {
	case raw := <-d.seen:
		require.JSONEq(t, msg, string(raw))
	case <-time.After(5 * time.Second):
		t.Fatal("message was not dispatched")
	}
}

func TestWebSocketHandler_ReceivesBroadcastAndFocus(t *testing.T) {
	hub := realtime.NewHub()
	conn := startWS(t, hub, newRecordingDispatcher())
	waitForClients(t, hub, 1)

	hub.Broadcast([]byte(`{"type":"SYNC_COMPLETE","failed":0}`))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"SYNC_COMPLETE","failed":0}`, string(raw))

	clients := hub.Clients()
	require.Equal(t, "client-1", clients[0].ID())
	require.True(t, clients[0].Focus())
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"FOCUS"}`, string(raw))
}

func TestWebSocketHandler_UnregistersOnClose(t *testing.T) {
	hub := realtime.NewHub()
	conn := startWS(t, hub, newRecordingDispatcher())
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestWebSocketHandler_RequiresClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/sw/ws", WebSocketHandler(realtime.NewHub(), newRecordingDispatcher()))

	w := serve(t, r, http.MethodGet, "/sw/ws", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

type hungTransport struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (h *hungTransport) Do(ctx context.Context, _ *network.Request) (*models.Response, error) {
	h.once.Do(func() { close(h.started) })
	select {
	case <-h.release:
	case <-ctx.Done():
	}
	return &models.Response{Status: http.StatusOK}, nil
}

type schedulerFunc func(models.NotificationRequest)

func (fn schedulerFunc) Schedule(req models.NotificationRequest) { fn(req) }

type noopActivator struct{}

func (noopActivator) Activate(context.Context, string, string) error { return nil }

func TestWebSocketHandler_KeepsReadingDuringDrain(t *testing.T) {
	base, err := url.Parse("http://origin.test")
	require.NoError(t, err)
	tr := &hungTransport{started: make(chan struct{}), release: make(chan struct{})}
	queue, err := syncqueue.New(syncqueue.Options{Transport: tr, Base: base, Broadcaster: realtime.NewHub()})
	require.NoError(t, err)
	t.Cleanup(func() {
		close(tr.release)
		queue.Wait()
	})

	scheduled := make(chan string, 1)
	d := &protocol.Dispatcher{
		Queue:     queue,
		Scheduler: schedulerFunc(func(req models.NotificationRequest) { scheduled <- req.ID }),
		Activator: noopActivator{},
	}
	conn := startWS(t, realtime.NewHub(), d)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"QUEUE_SYNC","queue":[{"url":"/api/goals","data":{}}]}`)))
	select {
	case <-tr.started:
	case <-time.After(5 * time.Second):
		t.Fatal("queue was not drained")
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SCHEDULE_NOTIFICATION","notification":{"id":"n1","title":"Standup"}}`)))
	select {
	case id := <-scheduled:
		require.Equal(t, "n1", id)
	case <-time.After(5 * time.Second):
		t.Fatal("reader stalled behind the drain")
	}

	snap := make(chan int, 1)
	go func() { snap <- len(queue.Snapshot()) }()
	select {
	case n := <-snap:
		require.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot blocked behind the drain")
	}
}
