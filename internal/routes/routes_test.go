package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"offline-gateway/internal/auth"
	"offline-gateway/internal/cache"
	"offline-gateway/internal/handlers"
	"offline-gateway/internal/interceptor"
	"offline-gateway/internal/metrics"
	"offline-gateway/internal/network"
	"offline-gateway/internal/notify"
	"offline-gateway/internal/protocol"
	"offline-gateway/internal/realtime"
	"offline-gateway/internal/syncqueue"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type gateway struct {
	router *gin.Engine
	issuer *auth.TokenIssuer
	queue  *syncqueue.Manager
	center *notify.Center
	origin *httptest.Server
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>dashboard</html>"))
		case "/api/goals":
			w.WriteHeader(http.StatusCreated)
		case "/api/items":
			w.Header().Set("Access-Control-Allow-Origin", "https://app.test")
			w.Header().Set("X-Origin-Method", r.Method)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(origin.Close)
	originURL, err := url.Parse(origin.URL)
	require.NoError(t, err)

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	hub := realtime.NewHub()
	transport := network.NewHTTPTransport(origin.Client(), originURL)

	fetcher, err := interceptor.New(interceptor.Options{
		Store:     cache.NewMemoryStore(),
		CacheName: "dashboard-v3",
		Transport: transport,
		Origin:    originURL,
		Metrics:   rec,
	})
	require.NoError(t, err)
	t.Cleanup(fetcher.Wait)

	queue, err := syncqueue.New(syncqueue.Options{
		Transport:   transport,
		Base:        originURL,
		Broadcaster: hub,
		Metrics:     rec,
	})
	require.NoError(t, err)

	center := notify.NewCenter(notify.CenterOptions{Broadcaster: hub, Surfaces: hub})
	scheduler := notify.NewScheduler(clockwork.NewFakeClock(), center.Fire, rec)

	issuer, err := auth.NewTokenIssuer("test-secret", "offline-gateway", "dashboard-surfaces")
	require.NoError(t, err)

	router := SetupRoutes(Deps{
		Issuer:     issuer,
		Validator:  issuer,
		Dispatcher: &protocol.Dispatcher{Queue: queue, Scheduler: scheduler, Activator: center},
		Surfaces:   hub,
		Queue:      queue,
		Reminder:   center,
		Fetcher:    fetcher,
		Metrics:    metrics.HTTPHandler(reg),
	})
	return &gateway{router: router, issuer: issuer, queue: queue, center: center, origin: origin}
}

func (g *gateway) do(t *testing.T, method, target, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func (g *gateway) token(t *testing.T) string {
	t.Helper()
	w := g.do(t, http.MethodPost, "/sw/clients", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp handlers.ClientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ClientID)
	return resp.Token
}

func TestHealth(t *testing.T) {
	g := newGateway(t)
	w := g.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPreflight(t *testing.T) {
	g := newGateway(t)
	w := g.do(t, http.MethodOptions, "/sw/messages", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDashboardPreflightReachesOrigin(t *testing.T) {
	g := newGateway(t)
	w := g.do(t, http.MethodOptions, "/api/items", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.MethodOptions, w.Header().Get("X-Origin-Method"))
	require.Equal(t, []string{"https://app.test"}, w.Header().Values("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Values("Access-Control-Allow-Methods"))
}

func TestProxiedResponseKeepsOriginCORS(t *testing.T) {
	g := newGateway(t)
	w := g.do(t, http.MethodPost, "/api/items", "", []byte(`{}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"https://app.test"}, w.Header().Values("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	g := newGateway(t)
	for _, target := range []string{"/sw/queue", "/sw/ws"} {
		w := g.do(t, http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
	w := g.do(t, http.MethodPost, "/sw/messages", "", []byte(`{"type":"QUEUE_SYNC"}`))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQueueSyncThroughMessages(t *testing.T) {
	g := newGateway(t)
	token := g.token(t)

	msg := `{"type":"QUEUE_SYNC","queue":[{"url":"/api/goals","data":{"title":"ship"}},{"url":"/api/missing","method":"PUT","data":{}}]}`
	w := g.do(t, http.MethodPost, "/sw/messages", token, []byte(msg))
	require.Equal(t, http.StatusAccepted, w.Code)

	g.queue.Wait()

	w = g.do(t, http.MethodGet, "/sw/queue", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Length int `json:"length"`
		Queue  []struct {
			URL string `json:"url"`
		} `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Length)
	require.Equal(t, "/api/missing", resp.Queue[0].URL)
}

func TestUnknownMessageRejected(t *testing.T) {
	g := newGateway(t)
	w := g.do(t, http.MethodPost, "/sw/messages", g.token(t), []byte(`{"type":"SKIP_WAITING"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvents(t *testing.T) {
	g := newGateway(t)
	token := g.token(t)

	w := g.do(t, http.MethodPost, "/sw/events/sync", token, []byte(`{"tag":"sync-data"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"attempted":0,"succeeded":0,"failed":0}`, w.Body.String())

	w = g.do(t, http.MethodPost, "/sw/events/periodic", token, []byte(`{"tag":"daily-check"}`))
	require.Equal(t, http.StatusOK, w.Code)
	shown := g.center.Shown()
	require.Len(t, shown, 1)
	require.Equal(t, notify.DailyReminderTitle, shown[0].Title)
}

func TestUnroutedRequestsAreIntercepted(t *testing.T) {
	g := newGateway(t)

	w := g.do(t, http.MethodGet, "/index.html", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "<html>dashboard</html>", w.Body.String())

	// Served from the cache once the origin is gone.
	g.origin.Close()
	w = g.do(t, http.MethodGet, "/index.html", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "<html>dashboard</html>", w.Body.String())

	w = g.do(t, http.MethodGet, "/api/goals", "", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	g := newGateway(t)
	_ = g.do(t, http.MethodGet, "/index.html", "", nil)

	w := g.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "offline_gateway_fetch_total")
}
