package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
)

// SettingsService reads settings through the cache and writes them through
// the repository, invalidating the cache after every write.
type SettingsService struct {
	repo  ports.SettingsRepository
	cache ports.SettingsCache
	log   zerolog.Logger
}

func NewSettingsService(repo ports.SettingsRepository, cache ports.SettingsCache, log zerolog.Logger) *SettingsService {
	return &SettingsService{repo: repo, cache: cache, log: log}
}

func (s *SettingsService) Current(ctx context.Context) (*domain.SystemSettings, error) {
	return s.cache.Snapshot(ctx)
}

func (s *SettingsService) SetMaintenance(ctx context.Context, enabled bool) (*domain.SystemSettings, *domain.SystemSettings, error) {
	before, err := s.repo.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read settings: %w", err)
	}

	after, err := s.repo.SetMaintenance(ctx, enabled)
	if err != nil {
		return nil, nil, fmt.Errorf("update maintenance mode: %w", err)
	}

	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate settings cache")
	}
	return before, after, nil
}
