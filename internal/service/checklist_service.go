package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
)

type checklistStore interface {
	LoadCatalog(ctx context.Context, domain models.ChecklistDomain) (*models.Catalog, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ChecklistService serves the immutable checklist catalog. Reference data is
// provisioned out of band and never mutated from request handlers; a Redis
// cache fronts the table with a long TTL.
type ChecklistService struct {
	repo     checklistStore
	cache    catalogCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewChecklistService constructs the service. A nil cache disables caching.
func NewChecklistService(repo checklistStore, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *ChecklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &ChecklistService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Catalog returns the checklist catalog for one domain.
func (s *ChecklistService) Catalog(ctx context.Context, domain models.ChecklistDomain) (*models.Catalog, error) {
	if !domain.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown checklist domain: %s", domain))
	}

	key := cacheKeyCatalog(domain)
	if s.cache != nil {
		var cached models.Catalog
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.String("domain", string(domain)), zap.Error(err))
		}
	}

	catalog, err := s.repo.LoadCatalog(ctx, domain)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load checklist catalog")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, catalog, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("domain", string(domain)), zap.Error(err))
		}
	}
	return catalog, nil
}

func cacheKeyCatalog(domain models.ChecklistDomain) string {
	return "catalog:" + string(domain)
}
