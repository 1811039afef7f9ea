// @title           OLMS API
// @version         1.0
// @description     Authentication, session and system settings API of the online library management system.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onhs/olms/internal/api"
	"github.com/onhs/olms/internal/api/handler"
	"github.com/onhs/olms/internal/core/session"
	"github.com/onhs/olms/internal/infrastructure/db/mongo"
	"github.com/onhs/olms/internal/infrastructure/db/redis"
	"github.com/onhs/olms/internal/infrastructure/queue"
	"github.com/onhs/olms/internal/pkg/config"
	"github.com/onhs/olms/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Pretty: true, Service: "olms-api"})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "olms-api",
	})
	if cfg.Session.JWTSecret == config.DevelopmentJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, signing sessions with the development secret")
	}

	store, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, settings cache disabled")
		rdb = nil
	}

	codec, err := session.NewCodec(cfg.Session.JWTSecret, cfg.SessionPolicy().MaxLifetime)
	if err != nil {
		log.Fatal().Err(err).Msg("session codec")
	}

	settingsRepo := mongo.NewSettingsRepository(store.DB)
	settingsCache := redis.NewSettingsCache(rdb, settingsRepo, cfg.Redis.SettingsTTL, logger.Component("settings-cache"))

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, mongo.NewAuditRepository(store.DB), logger.Component("audit"))
	dispatcher.Start()

	health := map[string]handler.Pinger{"mongo": store, "redis": nil}
	if rdb != nil {
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	e := api.NewRouter(api.Deps{
		Config:       cfg,
		Log:          log,
		Codec:        codec,
		Users:        mongo.NewUserRepository(store.DB),
		Settings:     settingsCache,
		SettingsRepo: settingsRepo,
		Audit:        dispatcher,
		Health:       health,
		Registry:     prometheus.NewRegistry(),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit queue did not drain")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}
