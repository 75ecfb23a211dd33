package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offline_gateway"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetches       *prom.CounterVec
	suppressed    *prom.CounterVec
	drains        prom.Counter
	drainItems    *prom.CounterVec
	queueDepth    prom.Gauge
	notifications *prom.CounterVec
}

// NewPrometheusRecorder constructs the gateway metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Intercepted requests by serving strategy",
		}, []string{"outcome"}),
		suppressed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_errors_total",
			Help:      "Errors swallowed without affecting the caller, by kind",
		}, []string{"kind"}),
		drains: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_drains_total",
			Help:      "Completed sync queue drain passes",
		}),
		drainItems: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_items_total",
			Help:      "Replayed sync queue items by result",
		}, []string{"result"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_queue_depth",
			Help:      "Items currently held in the sync queue",
		}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Scheduled notification transitions by event",
		}, []string{"event"}),
	}
	reg.MustRegister(pr.fetches, pr.suppressed, pr.drains, pr.drainItems, pr.queueDepth, pr.notifications)
	return pr
}

func (p *PrometheusRecorder) IncFetch(outcome FetchOutcome) {
	p.fetches.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSuppressed(kind ErrorKind) {
	p.suppressed.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) ObserveDrain(succeeded, failed int) {
	p.drains.Inc()
	p.drainItems.WithLabelValues("success").Add(float64(succeeded))
	p.drainItems.WithLabelValues("failed").Add(float64(failed))
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) IncNotification(event NotificationEvent) {
	p.notifications.WithLabelValues(string(event)).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
