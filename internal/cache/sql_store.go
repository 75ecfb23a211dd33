package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offline-gateway/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore persists generations and entries through gorm.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore wraps a migrated gorm connection.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Open(ctx context.Context, name string) (Generation, error) {
	gen := models.CacheGeneration{Name: name}
	if err := s.db.WithContext(ctx).Where(models.CacheGeneration{Name: name}).FirstOrCreate(&gen).Error; err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}
	return &sqlGeneration{store: s, name: name}, nil
}

func (s *SQLStore) Match(ctx context.Context, key models.RequestKey) (*models.Response, bool, error) {
	var entry models.CachedEntry
	err := s.db.WithContext(ctx).
		Select("cached_entries.*").
		Joins("JOIN cache_generations ON cache_generations.name = cached_entries.generation").
		Where("cached_entries.request_key = ?", key.String()).
		Order("cache_generations.created_at asc").
		Order("cached_entries.id asc").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s: %w", key, err)
	}
	return entry.Response(), true, nil
}

func (s *SQLStore) Delete(ctx context.Context, name string) (bool, error) {
	var existed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("generation = ?", name).Delete(&models.CachedEntry{}).Error; err != nil {
			return err
		}
		res := tx.Where("name = ?", name).Delete(&models.CacheGeneration{})
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete cache %s: %w", name, err)
	}
	return existed, nil
}

func (s *SQLStore) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.CacheGeneration{}).
		Order("created_at asc").Order("name asc").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	return names, nil
}

type sqlGeneration struct {
	store *SQLStore
	name  string
}

func (g *sqlGeneration) Name() string { return g.name }

func (g *sqlGeneration) Match(ctx context.Context, key models.RequestKey) (*models.Response, bool, error) {
	var entry models.CachedEntry
	err := g.store.db.WithContext(ctx).
		Where("generation = ? AND request_key = ?", g.name, key.String()).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s in %s: %w", key, g.name, err)
	}
	return entry.Response(), true, nil
}

func (g *sqlGeneration) Put(ctx context.Context, key models.RequestKey, resp *models.Response) error {
	entry := models.CachedEntry{
		Generation:   g.name,
		RequestKey:   key.String(),
		Method:       key.Method,
		URL:          key.URL,
		Status:       resp.Status,
		Header:       resp.Header.Clone(),
		Body:         append([]byte(nil), resp.Body...),
		ResponseType: resp.Type,
		StoredAt:     g.store.now(),
	}
	err := g.store.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "generation"}, {Name: "request_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "header", "body", "response_type", "stored_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("put %s in %s: %w", key, g.name, err)
	}
	return nil
}

func (g *sqlGeneration) Delete(ctx context.Context, key models.RequestKey) (bool, error) {
	res := g.store.db.WithContext(ctx).
		Where("generation = ? AND request_key = ?", g.name, key.String()).
		Delete(&models.CachedEntry{})
	if res.Error != nil {
		return false, fmt.Errorf("delete %s in %s: %w", key, g.name, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (g *sqlGeneration) Keys(ctx context.Context) ([]models.RequestKey, error) {
	var entries []models.CachedEntry
	if err := g.store.db.WithContext(ctx).
		Select("method", "url").
		Where("generation = ?", g.name).
		Order("id asc").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list keys in %s: %w", g.name, err)
	}
	keys := make([]models.RequestKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, models.RequestKey{Method: e.Method, URL: e.URL})
	}
	return keys, nil
}

var _ Store = (*SQLStore)(nil)
