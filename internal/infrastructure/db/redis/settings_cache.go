package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
)

const (
	settingsKey        = "olms:settings:snapshot"
	defaultSettingsTTL = time.Minute
)

// SettingsCache serves system settings snapshots from Redis, loading them
// from the settings store on a miss. When Redis is unavailable the store is
// read directly.
type SettingsCache struct {
	client *redis.Client
	store  ports.SettingsRepository
	ttl    time.Duration
	log    zerolog.Logger
}

// NewSettingsCache wraps client. A nil client disables caching.
func NewSettingsCache(client *redis.Client, store ports.SettingsRepository, ttl time.Duration, log zerolog.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}
	return &SettingsCache{client: client, store: store, ttl: ttl, log: log}
}

func (s *SettingsCache) Snapshot(ctx context.Context) (*domain.SystemSettings, error) {
	if s.client == nil {
		metrics.SettingsCacheTotal.WithLabelValues("bypass").Inc()
		return s.store.Get(ctx)
	}

	raw, err := s.client.Get(ctx, settingsKey).Bytes()
	switch {
	case err == nil:
		var settings domain.SystemSettings
		if err := json.Unmarshal(raw, &settings); err == nil {
			metrics.SettingsCacheTotal.WithLabelValues("hit").Inc()
			return &settings, nil
		}
		s.log.Warn().Err(err).Msg("discarding unreadable settings snapshot")
	case errors.Is(err, redis.Nil):
	default:
		metrics.SettingsCacheTotal.WithLabelValues("bypass").Inc()
		s.log.Warn().Err(err).Msg("settings cache unavailable, reading store")
		return s.store.Get(ctx)
	}

	metrics.SettingsCacheTotal.WithLabelValues("miss").Inc()
	settings, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(settings); err == nil {
		if err := s.client.Set(ctx, settingsKey, payload, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache settings snapshot")
		}
	}
	return settings, nil
}

// Invalidate drops the cached snapshot so the next read loads the store.
func (s *SettingsCache) Invalidate(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, settingsKey).Err(); err != nil {
		return fmt.Errorf("invalidate settings cache: %w", err)
	}
	return nil
}
