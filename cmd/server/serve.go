package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"offline-gateway/internal/auth"
	"offline-gateway/internal/cache"
	"offline-gateway/internal/config"
	"offline-gateway/internal/database"
	"offline-gateway/internal/interceptor"
	"offline-gateway/internal/jobs"
	"offline-gateway/internal/logfields"
	"offline-gateway/internal/metrics"
	"offline-gateway/internal/network"
	"offline-gateway/internal/notify"
	"offline-gateway/internal/protocol"
	"offline-gateway/internal/realtime"
	"offline-gateway/internal/routes"
	"offline-gateway/internal/syncqueue"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const probeJobName = "connectivity-probe"

// gateway holds the wired components of a running gateway.
type gateway struct {
	router      *gin.Engine
	lifecycle   *cache.Lifecycle
	transport   *network.HTTPTransport
	fetcher     *interceptor.Interceptor
	queue       *syncqueue.Manager
	center      *notify.Center
	scheduler   *notify.Scheduler
	jobs        *jobs.Scheduler
	monitor     *network.Monitor
	hub         *realtime.Hub
	precache    []string
	closeRelays func()
}

// openStore opens the configured cache backend and returns it with its
// close function.
func openStore(cfg config.Config) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return cache.NewMemoryStore(), func() {}, nil
	default:
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return cache.NewSQLStore(db), closeDB, nil
	}
}

// buildGateway wires every component around store. clock drives the
// notification scheduler and may be nil.
func buildGateway(cfg config.Config, store cache.Store, clock clockwork.Clock) (*gateway, error) {
	origin, err := cfg.OriginURL()
	if err != nil {
		return nil, err
	}
	entryPoint, err := cfg.EntryPointURL()
	if err != nil {
		return nil, err
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	hub := realtime.NewHub()
	var bus realtime.Broadcaster = hub
	closeRelays := func() {}
	if cfg.NATSURL != "" {
		relay, conn, err := realtime.ConnectNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, err
		}
		bus = realtime.Fanout{hub, relay}
		closeRelays = func() {
			if err := conn.Drain(); err != nil {
				slog.Warn("NATS drain failed", logfields.Error(err))
			}
		}
	}

	transport := network.NewHTTPTransport(&http.Client{}, origin)
	monitor := network.NewMonitor(origin, &http.Client{Timeout: 5 * time.Second})

	fetcher, err := interceptor.New(interceptor.Options{
		Store:        store,
		CacheName:    cfg.CacheName,
		Transport:    transport,
		Origin:       origin,
		RootDocument: cfg.RootDocument,
		Metrics:      rec,
	})
	if err != nil {
		return nil, fmt.Errorf("build interceptor: %w", err)
	}

	queue, err := syncqueue.New(syncqueue.Options{
		Transport:    transport,
		Base:         origin,
		Connectivity: monitor,
		Broadcaster:  bus,
		Metrics:      rec,
	})
	if err != nil {
		return nil, fmt.Errorf("build sync queue: %w", err)
	}

	center := notify.NewCenter(notify.CenterOptions{
		Broadcaster: bus,
		Surfaces:    hub,
		Opener:      notify.Launcher{Command: cfg.BrowserCommand},
		EntryPoint:  entryPoint,
		Icon:        cfg.Icon,
		Badge:       cfg.Badge,
	})
	scheduler := notify.NewScheduler(clock, center.Fire, rec)

	background, err := jobs.NewScheduler()
	if err != nil {
		return nil, err
	}
	if cfg.BackgroundSync {
		background.HandleSync(syncqueue.SyncTag, func(ctx context.Context) { queue.Drain(ctx) })
		queue.SetRegistrar(background)
	}
	if cfg.DailyReminder {
		hour, minute, err := cfg.ReminderTime()
		if err != nil {
			return nil, err
		}
		if _, err := background.ScheduleDaily(notify.DailyReminderTag, hour, minute, func(ctx context.Context) {
			if err := center.ShowDailyReminder(ctx); err != nil {
				slog.Warn("Daily reminder failed", logfields.Error(err))
			}
		}); err != nil {
			return nil, err
		}
	}
	if cfg.ProbeInterval > 0 {
		if _, err := background.ScheduleEvery(probeJobName, cfg.ProbeInterval, func(ctx context.Context) {
			monitor.Probe(ctx)
		}); err != nil {
			return nil, err
		}
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		return nil, err
	}

	router := routes.SetupRoutes(routes.Deps{
		Issuer:     issuer,
		Validator:  issuer,
		Dispatcher: &protocol.Dispatcher{Queue: queue, Scheduler: scheduler, Activator: center},
		Surfaces:   hub,
		Queue:      queue,
		Reminder:   center,
		Fetcher:    fetcher,
		Metrics:    metrics.HTTPHandler(reg),
	})

	return &gateway{
		router:      router,
		lifecycle:   cache.NewLifecycle(store, cfg.CacheName, origin),
		transport:   transport,
		fetcher:     fetcher,
		queue:       queue,
		center:      center,
		scheduler:   scheduler,
		jobs:        background,
		monitor:     monitor,
		hub:         hub,
		precache:    cfg.PrecacheAssets,
		closeRelays: closeRelays,
	}, nil
}

// prepareCache populates the current generation and removes stale ones.
// An origin that cannot be reached leaves the cache as it was.
func (g *gateway) prepareCache(ctx context.Context) {
	if err := g.lifecycle.Install(ctx, g.transport, g.precache); err != nil {
		slog.Warn("Pre-cache install failed; serving from existing cache",
			logfields.CacheName(g.lifecycle.Current()), logfields.Error(err))
	}
	if _, err := g.lifecycle.Activate(ctx); err != nil {
		slog.Warn("Cache activation failed", logfields.CacheName(g.lifecycle.Current()), logfields.Error(err))
	}
}

func runServe(cfg config.Config) error {
	slog.Info("Starting offline gateway",
		slog.String("addr", cfg.ListenAddr),
		slog.String("origin", cfg.Origin),
		logfields.CacheName(cfg.CacheName))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	g, err := buildGateway(cfg, store, nil)
	if err != nil {
		return err
	}
	defer g.closeRelays()

	g.monitor.Probe(ctx)
	g.prepareCache(ctx)

	go g.scheduler.Run(ctx)
	g.jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	slog.Info("Gateway started, waiting for shutdown signal...")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping gateway...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := srv.Shutdown(stopCtx); err != nil {
		slog.Warn("HTTP shutdown failed", logfields.Error(err))
	}
	if err := g.jobs.Stop(stopCtx); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	g.queue.Wait()
	g.fetcher.Wait()

	slog.Info("Gateway stopped")
	return nil
}

func runCaches(cfg config.Config, out io.Writer) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	names, err := store.Names(context.Background())
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	for _, name := range names {
		marker := " "
		if name == cfg.CacheName {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, name)
	}
	return nil
}

func runPurge(cfg config.Config, out io.Writer) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	origin, err := cfg.OriginURL()
	if err != nil {
		return err
	}
	deleted, err := cache.NewLifecycle(store, cfg.CacheName, origin).Activate(context.Background())
	if err != nil {
		return fmt.Errorf("purge caches: %w", err)
	}
	for _, name := range deleted {
		fmt.Fprintf(out, "deleted %s\n", name)
	}
	if len(deleted) == 0 {
		fmt.Fprintln(out, "nothing to purge")
	}
	return nil
}
