package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFetch(FetchHit)
	pr.IncFetch(FetchHit)
	pr.IncSuppressed(ErrorRevalidate)
	pr.ObserveDrain(3, 1)
	pr.SetQueueDepth(1)
	pr.IncNotification(NotificationFired)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.fetches.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.suppressed.WithLabelValues("revalidate")))
	require.Equal(t, 3.0, testutil.ToFloat64(pr.drainItems.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.drainItems.WithLabelValues("failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.queueDepth))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFetch(FetchMiss)

	w := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "offline_gateway_fetch_total"))
}

func TestOrNoop(t *testing.T) {
	r := OrNoop(nil)
	require.IsType(t, NoopRecorder{}, r)
	r.IncFetch(FetchHit)
}
