package network

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"offline-gateway/internal/logfields"
)

// Connectivity reports whether the network is believed to be reachable.
type Connectivity interface {
	Online() bool
}

// Monitor tracks connectivity to the origin. It starts online.
type Monitor struct {
	offline atomic.Bool
	target  *url.URL
	client  *http.Client
}

// NewMonitor builds a monitor probing target with client (or http.DefaultClient).
func NewMonitor(target *url.URL, client *http.Client) *Monitor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Monitor{target: target, client: client}
}

// Online implements Connectivity.
func (m *Monitor) Online() bool { return !m.offline.Load() }

// Set records the connectivity state.
func (m *Monitor) Set(online bool) {
	if was := m.offline.Swap(!online); was == online {
		slog.Info("Connectivity changed", slog.Bool("online", online))
	}
}

// Probe issues a HEAD request to the target. Any response counts as online.
func (m *Monitor) Probe(ctx context.Context) bool {
	if m.target == nil {
		return m.Online()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.target.String(), nil)
	if err != nil {
		slog.Warn("Connectivity probe request invalid", logfields.URL(m.target.String()), logfields.Error(err))
		return m.Online()
	}
	resp, err := m.client.Do(req)
	if err != nil {
		slog.Debug("Connectivity probe failed", logfields.URL(m.target.String()), logfields.Error(err))
		m.Set(false)
		return false
	}
	resp.Body.Close()
	m.Set(true)
	return true
}

var _ Connectivity = (*Monitor)(nil)
