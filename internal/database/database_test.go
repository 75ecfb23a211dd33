package database

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"offline-gateway/internal/cache"
	"offline-gateway/internal/models"

	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesCacheTables(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)

	require.True(t, db.Migrator().HasTable(&models.CacheGeneration{}))
	require.True(t, db.Migrator().HasTable(&models.CachedEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var timeout int
	require.NoError(t, db.Raw("PRAGMA busy_timeout").Scan(&timeout).Error)
	require.Equal(t, 5000, timeout)

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	require.Equal(t, "wal", mode)

	require.NoError(t, sqlDB.Close())
}

func TestDSN(t *testing.T) {
	require.Equal(t, "cache.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", DSN("cache.db"))
	require.Equal(t, "file:cache.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", DSN("file:cache.db?mode=rwc"))
}

func TestOpen_ConcurrentWrites(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	store := cache.NewSQLStore(db)
	ctx := context.Background()
	gen, err := store.Open(ctx, "dashboard-v3")
	require.NoError(t, err)

	const writers = 16
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for n := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := models.RequestKey{Method: http.MethodGet, URL: fmt.Sprintf("https://dash.example.com/asset-%d.js", n)}
			if err := gen.Put(ctx, key, &models.Response{Status: http.StatusOK, Body: []byte("x")}); err != nil {
				errs <- err
				return
			}
			if _, _, err := store.Match(ctx, key); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	keys, err := gen.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, writers)
}
