// Package interceptor answers dashboard requests from the cache store, the
// network, or both (stale-while-revalidate).
package interceptor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"offline-gateway/internal/cache"
	"offline-gateway/internal/logfields"
	"offline-gateway/internal/metrics"
	"offline-gateway/internal/models"
	"offline-gateway/internal/network"
)

// Options configures an Interceptor.
type Options struct {
	Store     cache.Store
	CacheName string
	Transport network.Transport
	Origin    *url.URL
	// RootDocument is served for navigations that fail while offline.
	RootDocument string
	Metrics      metrics.Recorder
}

// Interceptor implements the fetch strategy for intercepted requests.
type Interceptor struct {
	store     cache.Store
	cacheName string
	transport network.Transport
	origin    *url.URL
	rootKey   models.RequestKey
	metrics   metrics.Recorder

	inflight sync.WaitGroup
}

// New validates opts and returns an Interceptor.
func New(opts Options) (*Interceptor, error) {
	if opts.Store == nil || opts.Transport == nil || opts.Origin == nil {
		return nil, errors.New("interceptor requires a store, a transport and an origin")
	}
	if opts.CacheName == "" {
		return nil, errors.New("interceptor requires a cache name")
	}
	root := opts.RootDocument
	if root == "" {
		root = "./index.html"
	}
	ref, err := url.Parse(root)
	if err != nil {
		return nil, err
	}
	origin := *opts.Origin
	if !strings.HasSuffix(origin.Path, "/") {
		origin.Path += "/"
		if origin.RawPath != "" {
			origin.RawPath += "/"
		}
	}
	return &Interceptor{
		store:     opts.Store,
		cacheName: opts.CacheName,
		transport: opts.Transport,
		origin:    &origin,
		rootKey:   cache.KeyFor(http.MethodGet, origin.ResolveReference(ref)),
		metrics:   metrics.OrNoop(opts.Metrics),
	}, nil
}

// Eligible reports whether the request goes through the cache strategy.
// Everything else is forwarded untouched.
func (i *Interceptor) Eligible(req *network.Request) bool {
	if !cache.Cacheable(req.Method) {
		return false
	}
	return req.URL != nil && strings.HasPrefix(req.URL.Scheme, "http")
}

// Fetch produces the response for an intercepted request.
func (i *Interceptor) Fetch(ctx context.Context, req *network.Request) (*models.Response, error) {
	if !i.Eligible(req) {
		i.metrics.IncFetch(metrics.FetchPassthrough)
		return i.transport.Do(ctx, req)
	}

	key := cache.KeyFor(req.Method, req.URL)
	if cached, ok := i.lookup(ctx, key); ok {
		i.metrics.IncFetch(metrics.FetchHit)
		i.revalidate(ctx, req, key)
		return cached, nil
	}

	resp, err := i.transport.Do(ctx, req)
	if err != nil {
		if req.Navigate {
			if root, ok := i.lookup(ctx, i.rootKey); ok {
				i.metrics.IncFetch(metrics.FetchFallback)
				slog.Debug("Serving cached root document for offline navigation", logfields.URL(key.URL))
				return root, nil
			}
		}
		i.metrics.IncFetch(metrics.FetchFailed)
		return nil, err
	}

	i.metrics.IncFetch(metrics.FetchMiss)
	if resp.OK() && resp.Type == models.ResponseBasic {
		i.put(ctx, key, resp)
	}
	return resp, nil
}

// Wait blocks until every background revalidation has finished.
func (i *Interceptor) Wait() {
	i.inflight.Wait()
}

// lookup prefers the current generation. Older generations still on disk
// only answer for keys the current one lacks.
func (i *Interceptor) lookup(ctx context.Context, key models.RequestKey) (*models.Response, bool) {
	gen, err := i.store.Open(ctx, i.cacheName)
	if err == nil {
		var resp *models.Response
		var ok bool
		if resp, ok, err = gen.Match(ctx, key); err == nil && ok {
			return resp, true
		}
	}
	if err != nil {
		i.metrics.IncSuppressed(metrics.ErrorCacheRead)
		slog.Warn("Current cache lookup failed", logfields.CacheName(i.cacheName), logfields.URL(key.URL), logfields.Error(err))
	}

	resp, ok, err := i.store.Match(ctx, key)
	if err != nil {
		i.metrics.IncSuppressed(metrics.ErrorCacheRead)
		slog.Warn("Cache lookup failed, treating as miss", logfields.URL(key.URL), logfields.Error(err))
		return nil, false
	}
	return resp, ok
}

// revalidate refreshes the entry in the background. It outlives the
// request that triggered it.
func (i *Interceptor) revalidate(ctx context.Context, req *network.Request, key models.RequestKey) {
	bg := context.WithoutCancel(ctx)
	i.inflight.Add(1)
	go func() {
		defer i.inflight.Done()
		resp, err := i.transport.Do(bg, req)
		if err != nil {
			i.metrics.IncSuppressed(metrics.ErrorRevalidate)
			slog.Debug("Background revalidation failed", logfields.URL(key.URL), logfields.Error(err))
			return
		}
		if !resp.OK() {
			slog.Debug("Background revalidation returned non-OK status",
				logfields.URL(key.URL), slog.Int("status", resp.Status))
			return
		}
		i.put(bg, key, resp)
	}()
}

func (i *Interceptor) put(ctx context.Context, key models.RequestKey, resp *models.Response) {
	gen, err := i.store.Open(ctx, i.cacheName)
	if err == nil {
		err = gen.Put(ctx, key, resp)
	}
	if err != nil {
		i.metrics.IncSuppressed(metrics.ErrorCacheWrite)
		slog.Warn("Cache write failed", logfields.CacheName(i.cacheName), logfields.URL(key.URL), logfields.Error(err))
	}
}
