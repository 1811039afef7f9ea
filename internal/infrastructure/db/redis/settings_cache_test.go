package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/core/domain"
)

type stubSettingsStore struct {
	settings *domain.SystemSettings
	err      error
	calls    int
}

func (s *stubSettingsStore) Get(context.Context) (*domain.SystemSettings, error) {
	s.calls++
	return s.settings, s.err
}

func (s *stubSettingsStore) SetMaintenance(context.Context, bool) (*domain.SystemSettings, error) {
	return nil, errors.New("not implemented")
}

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSettingsCache_FallsBackToStoreWhenRedisIsDown(t *testing.T) {
	store := &stubSettingsStore{settings: &domain.SystemSettings{LibraryName: "Main", MaintenanceMode: true}}
	cache := NewSettingsCache(unreachableClient(t), store, time.Minute, zerolog.Nop())

	settings, err := cache.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if settings.LibraryName != "Main" || !settings.MaintenanceMode {
		t.Fatalf("unexpected settings: %+v", settings)
	}
	if store.calls != 1 {
		t.Fatalf("expected one store read, got %d", store.calls)
	}
}

func TestSettingsCache_StoreErrorPropagates(t *testing.T) {
	store := &stubSettingsStore{err: errors.New("mongo down")}
	cache := NewSettingsCache(unreachableClient(t), store, time.Minute, zerolog.Nop())

	if _, err := cache.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestSettingsCache_InvalidateReportsRedisFailure(t *testing.T) {
	cache := NewSettingsCache(unreachableClient(t), &stubSettingsStore{}, time.Minute, zerolog.Nop())

	if err := cache.Invalidate(context.Background()); err == nil {
		t.Fatalf("expected invalidate error with Redis down")
	}
}

func TestSettingsCache_NilClient(t *testing.T) {
	store := &stubSettingsStore{settings: domain.DefaultSettings()}
	cache := NewSettingsCache(nil, store, 0, zerolog.Nop())

	if _, err := cache.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if cache.ttl != defaultSettingsTTL {
		t.Fatalf("expected default ttl, got %v", cache.ttl)
	}
}
