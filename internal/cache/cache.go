package cache

import (
	"context"
	"errors"

	"offline-gateway/internal/models"
)

// ErrNotFound is returned when a named generation does not exist.
var ErrNotFound = errors.New("cache generation not found")

// Store is a set of named cache generations keyed by request identity.
type Store interface {
	// Open returns the named generation, creating it if needed.
	Open(ctx context.Context, name string) (Generation, error)

	// Match looks the key up across every generation, oldest first.
	Match(ctx context.Context, key models.RequestKey) (*models.Response, bool, error)

	// Delete removes a generation and its entries. It reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)

	// Names lists generations in creation order.
	Names(ctx context.Context) ([]string, error)
}

// Generation is one namespaced container of cached responses.
type Generation interface {
	Name() string
	Match(ctx context.Context, key models.RequestKey) (*models.Response, bool, error)
	Put(ctx context.Context, key models.RequestKey, resp *models.Response) error
	Delete(ctx context.Context, key models.RequestKey) (bool, error)
	Keys(ctx context.Context) ([]models.RequestKey, error)
}
