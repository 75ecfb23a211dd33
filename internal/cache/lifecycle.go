package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/models"
)

// Fetcher retrieves a resource from the network.
type Fetcher interface {
	Get(ctx context.Context, u *url.URL) (*models.Response, error)
}

// Lifecycle populates the current generation and purges stale ones.
type Lifecycle struct {
	store   Store
	current string
	base    *url.URL
}

// NewLifecycle binds a store to the current generation name. Relative asset
// paths are resolved against base.
func NewLifecycle(store Store, current string, base *url.URL) *Lifecycle {
	return &Lifecycle{store: store, current: current, base: base}
}

// Current returns the name of the current generation.
func (l *Lifecycle) Current() string { return l.current }

// Install fetches every asset and stores them in the current generation.
// Nothing is written unless all assets were fetched with an OK status.
func (l *Lifecycle) Install(ctx context.Context, fetcher Fetcher, assets []string) error {
	type fetched struct {
		key  models.RequestKey
		resp *models.Response
	}
	results := make([]fetched, 0, len(assets))
	for _, asset := range assets {
		ref, err := url.Parse(asset)
		if err != nil {
			return fmt.Errorf("install %s: invalid asset %q: %w", l.current, asset, err)
		}
		u := l.base.ResolveReference(ref)
		resp, err := fetcher.Get(ctx, u)
		if err != nil {
			return fmt.Errorf("install %s: fetch %s: %w", l.current, u, err)
		}
		if !resp.OK() {
			return fmt.Errorf("install %s: fetch %s: status %d", l.current, u, resp.Status)
		}
		results = append(results, fetched{key: KeyFor("GET", u), resp: resp})
	}

	gen, err := l.store.Open(ctx, l.current)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := gen.Put(ctx, r.key, r.resp); err != nil {
			return fmt.Errorf("install %s: %w", l.current, err)
		}
	}
	slog.Info("Cache installed", logfields.CacheName(l.current), slog.Int("assets", len(results)))
	return nil
}

// Activate deletes every generation other than the current one and returns
// the names it removed.
func (l *Lifecycle) Activate(ctx context.Context) ([]string, error) {
	names, err := l.store.Names(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, name := range names {
		if name == l.current {
			continue
		}
		if _, err := l.store.Delete(ctx, name); err != nil {
			return removed, err
		}
		slog.Info("Deleted stale cache", logfields.CacheName(name))
		removed = append(removed, name)
	}
	if _, err := l.store.Open(ctx, l.current); err != nil {
		return removed, err
	}
	return removed, nil
}
