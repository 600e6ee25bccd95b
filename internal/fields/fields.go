// Package fields loads the field dictionary used to validate declared
// identity fields, optionally through a Redis cache.
package fields

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// Store reads dictionary entries from durable storage.
type Store interface {
	List(ctx context.Context) ([]models.Field, error)
}

// Cache holds a copy of the dictionary entries.
// Get reports false when nothing is cached.
type Cache interface {
	Get(ctx context.Context) ([]models.Field, bool, error)
	Set(ctx context.Context, fields []models.Field) error
}

// Service serves the field dictionary.
type Service struct {
	store Store
	cache Cache
	log   *zap.Logger
}

// NewService returns a Service reading from store. cache may be nil.
func NewService(store Store, cache Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, cache: cache, log: log}
}

// GetFieldsList returns the current dictionary. A cache failure is logged
// and the dictionary is read from the store instead.
func (s *Service) GetFieldsList(ctx context.Context) (*models.FieldDictionary, error) {
	if s.cache != nil {
		fields, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.log.Warn("field cache read failed", zap.Error(err))
		case ok:
			return models.NewFieldDictionary(fields), nil
		}
	}

	fields, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewFieldDictionary(fields), nil
}

// Refresh reloads the dictionary from the store into the cache and returns
// the number of entries loaded.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	fields, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(fields), nil
}

func (s *Service) load(ctx context.Context) ([]models.Field, error) {
	fields, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load field dictionary: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, fields); err != nil {
			s.log.Warn("field cache write failed", zap.Error(err))
		}
	}
	return fields, nil
}
