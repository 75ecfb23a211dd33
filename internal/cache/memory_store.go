package cache

import (
	"context"
	"sync"
	"time"

	"offline-gateway/internal/models"
)

// MemoryStore keeps every generation in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	generations *SimpleCache[string, *memoryGeneration]
	now         func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		generations: NewSimpleCache[string, *memoryGeneration](),
		now:         time.Now,
	}
}

func (s *MemoryStore) Open(_ context.Context, name string) (Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.generations.Get(name); ok {
		return g, nil
	}
	g := &memoryGeneration{name: name, entries: NewSimpleCache[string, memoryEntry](), now: s.now}
	s.generations.Set(name, g)
	return g, nil
}

func (s *MemoryStore) Match(ctx context.Context, key models.RequestKey) (*models.Response, bool, error) {
	s.mu.RLock()
	names := s.generations.Keys()
	s.mu.RUnlock()
	for _, name := range names {
		g, ok := s.generations.Get(name)
		if !ok {
			continue
		}
		if resp, hit, _ := g.Match(ctx, key); hit {
			return resp, true, nil
		}
	}
	return nil, false, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations.Delete(name), nil
}

func (s *MemoryStore) Names(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations.Keys(), nil
}

type memoryEntry struct {
	key  models.RequestKey
	resp *models.Response
}

type memoryGeneration struct {
	name    string
	entries *SimpleCache[string, memoryEntry]
	now     func() time.Time
}

func (g *memoryGeneration) Name() string { return g.name }

func (g *memoryGeneration) Match(_ context.Context, key models.RequestKey) (*models.Response, bool, error) {
	e, ok := g.entries.Get(key.String())
	if !ok {
		return nil, false, nil
	}
	return e.resp.Clone(), true, nil
}

func (g *memoryGeneration) Put(_ context.Context, key models.RequestKey, resp *models.Response) error {
	stored := resp.Clone()
	stored.StoredAt = g.now()
	g.entries.Set(key.String(), memoryEntry{key: key, resp: stored})
	return nil
}

func (g *memoryGeneration) Delete(_ context.Context, key models.RequestKey) (bool, error) {
	return g.entries.Delete(key.String()), nil
}

func (g *memoryGeneration) Keys(context.Context) ([]models.RequestKey, error) {
	raw := g.entries.Keys()
	keys := make([]models.RequestKey, 0, len(raw))
	for _, k := range raw {
		if e, ok := g.entries.Get(k); ok {
			keys = append(keys, e.key)
		}
	}
	return keys, nil
}

var _ Store = (*MemoryStore)(nil)
