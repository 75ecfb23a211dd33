// Package syncqueue replays actions the UI captured while offline.
package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/metrics"
	"offline-gateway/internal/models"
	"offline-gateway/internal/network"
	"offline-gateway/internal/protocol"
	"offline-gateway/internal/realtime"
)

// SyncTag is the background-sync registration tag that triggers a drain.
const SyncTag = "sync-data"

// Registrar defers a drain to the background-sync facility.
type Registrar interface {
	Register(tag string) error
}

// Result summarises one drain pass.
type Result struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Options configures a Manager. Registrar and Connectivity may be nil:
// without a registrar drains run inline, without connectivity the
// network is assumed reachable.
type Options struct {
	Transport    network.Transport
	Base         *url.URL
	Connectivity network.Connectivity
	Registrar    Registrar
	Broadcaster  realtime.Broadcaster
	Metrics      metrics.Recorder
}

// Manager owns the in-memory queue of offline actions. Replace and Drain
// are serialized on drainMu: a Replace that arrives during a drain waits
// for the drain to write back its failed subset and then replaces it.
// mu guards items and registrar and is never held across a replay.
type Manager struct {
	drainMu sync.Mutex

	mu        sync.Mutex
	items     []models.SyncQueueItem
	registrar Registrar

	submitMu   sync.Mutex
	submitted  *submission
	submitting bool
	applying   sync.WaitGroup

	transport    network.Transport
	base         *url.URL
	connectivity network.Connectivity
	bus          realtime.Broadcaster
	metrics      metrics.Recorder
}

type submission struct {
	ctx   context.Context
	items []models.SyncQueueItem
}

// New returns an empty Manager.
func New(opts Options) (*Manager, error) {
	if opts.Transport == nil || opts.Base == nil {
		return nil, errors.New("sync queue requires a transport and a base URL")
	}
	return &Manager{
		transport:    opts.Transport,
		base:         opts.Base,
		connectivity: opts.Connectivity,
		registrar:    opts.Registrar,
		bus:          opts.Broadcaster,
		metrics:      metrics.OrNoop(opts.Metrics),
	}, nil
}

// SetRegistrar wires the background-sync facility after construction.
func (m *Manager) SetRegistrar(r Registrar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrar = r
}

// Replace swaps in a fresh snapshot from the UI and, when online, either
// registers a background sync or drains inline.
func (m *Manager) Replace(ctx context.Context, items []models.SyncQueueItem) {
	m.drainMu.Lock()
	m.mu.Lock()
	m.items = append([]models.SyncQueueItem(nil), items...)
	registrar := m.registrar
	m.metrics.SetQueueDepth(len(m.items))
	m.mu.Unlock()
	m.drainMu.Unlock()

	slog.Debug("Sync queue replaced", logfields.QueueLen(len(items)))

	if m.connectivity != nil && !m.connectivity.Online() {
		return
	}
	if registrar != nil {
		err := registrar.Register(SyncTag)
		if err == nil {
			return
		}
		m.metrics.IncSuppressed(metrics.ErrorRegistration)
		slog.Info("Background sync unavailable, draining inline", logfields.Tag(SyncTag), logfields.Error(err))
	}
	m.Drain(ctx)
}

// Drain replays every queued item once, in order, keeps only the failures
// and reports the failure count to every surface.
func (m *Manager) Drain(ctx context.Context) Result {
	m.drainMu.Lock()
	defer m.drainMu.Unlock()

	m.mu.Lock()
	snapshot := m.items
	m.mu.Unlock()

	failed := make([]models.SyncQueueItem, 0, len(snapshot))
	for _, item := range snapshot {
		if err := m.replay(ctx, item); err != nil {
			slog.Debug("Sync item replay failed", logfields.URL(item.URL), logfields.Method(item.HTTPMethod()), logfields.Error(err))
			failed = append(failed, item)
		}
	}

	m.mu.Lock()
	m.items = failed
	m.mu.Unlock()
	m.metrics.SetQueueDepth(len(failed))

	res := Result{Attempted: len(snapshot), Succeeded: len(snapshot) - len(failed), Failed: len(failed)}
	m.metrics.ObserveDrain(res.Succeeded, res.Failed)
	slog.Info("Sync queue drained", slog.Int("attempted", res.Attempted), logfields.Failed(res.Failed))

	if err := realtime.BroadcastJSON(m.bus, protocol.NewSyncComplete(res.Failed)); err != nil {
		m.metrics.IncSuppressed(metrics.ErrorBroadcast)
		slog.Warn("Failed to broadcast sync completion", logfields.Error(err))
	}
	return res
}

// Submit hands a snapshot to a background Replace and returns at once, so
// callers such as a websocket reader never wait on a drain. Snapshots are
// applied in submission order; one still waiting when a newer one arrives
// is superseded by it.
func (m *Manager) Submit(ctx context.Context, items []models.SyncQueueItem) {
	next := &submission{ctx: context.WithoutCancel(ctx), items: append([]models.SyncQueueItem(nil), items...)}

	m.submitMu.Lock()
	m.submitted = next
	if m.submitting {
		m.submitMu.Unlock()
		return
	}
	m.submitting = true
	m.applying.Add(1)
	m.submitMu.Unlock()

	go m.applySubmitted()
}

func (m *Manager) applySubmitted() {
	defer m.applying.Done()
	for {
		m.submitMu.Lock()
		next := m.submitted
		m.submitted = nil
		if next == nil {
			m.submitting = false
			m.submitMu.Unlock()
			return
		}
		m.submitMu.Unlock()

		m.Replace(next.ctx, next.items)
	}
}

// Wait blocks until every submitted snapshot has been applied.
func (m *Manager) Wait() {
	m.applying.Wait()
}

// Snapshot returns a copy of the queued items.
func (m *Manager) Snapshot() []models.SyncQueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SyncQueueItem{}, m.items...)
}

// replay issues one request for item. Transport failures and non-OK
// statuses are both failures.
func (m *Manager) replay(ctx context.Context, item models.SyncQueueItem) error {
	ref, err := url.Parse(item.URL)
	if err != nil {
		return err
	}
	var body []byte
	if len(item.Data) > 0 {
		body = item.Data
	}
	resp, err := m.transport.Do(ctx, &network.Request{
		Method: item.HTTPMethod(),
		URL:    m.base.ResolveReference(ref),
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Status: resp.Status}
	}
	return nil
}

// StatusError reports a replay answered with a non-success status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync failed: status %d", e.Status)
}
