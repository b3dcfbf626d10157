package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enrutador/dispatch-backend/internal/config"
	"github.com/enrutador/dispatch-backend/internal/db"
	httpapi "github.com/enrutador/dispatch-backend/internal/http"
	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/routing"
	"github.com/enrutador/dispatch-backend/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "dispatch-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	selector := buildSelector(ctx, cfg, store, logger)

	sched := scheduling.NewService(selector, logger, scheduling.Options{
		ScanWorkers:      cfg.ScanWorkers,
		MaxGapDistanceKm: cfg.MaxGapDistanceKm,
		TopGaps:          cfg.TopGaps,
		HorizonDays:      cfg.FreeDayHorizon,
		FreeDaysWanted:   cfg.FreeDaysWanted,
		IgnorePending:    cfg.IgnorePending,
	})
	snapshots := scheduling.NewSnapshotCache(store, cfg.SnapshotTTL)

	router := httpapi.Router(cfg, store, sched, snapshots, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

// buildSelector assembles the weighted provider set from the database table
// when present, falling back to environment credentials. A nil selector is
// a valid outcome: ranking then stays on geometric distances.
func buildSelector(ctx context.Context, cfg config.Config, store *db.Store, logger zerolog.Logger) *routing.Selector {
	configs, err := store.ListRoutingProviders(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("routing_providers table unavailable, using env credentials")
	}
	if len(configs) == 0 {
		configs = envProviderConfigs(cfg)
	}

	providers, err := routing.BuildProviders(configs)
	if err != nil {
		logger.Fatal().Err(err).Msg("provider construction failed")
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no routing providers configured, routed re-rank disabled")
		return nil
	}

	opts := []routing.Option{
		routing.WithTimeout(cfg.ProviderTimeout),
		routing.WithLogger(logger),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, route cache disabled")
		} else {
			opts = append(opts, routing.WithCache(routing.NewCache(rdb, cfg.RouteCacheTTL)))
		}
	}

	selector, err := routing.NewSelector(providers, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("selector construction failed")
	}
	return selector
}

func envProviderConfigs(cfg config.Config) []models.ProviderConfig {
	return []models.ProviderConfig{
		{Name: "openrouteservice", APIKey: cfg.ORSAPIKey, Weight: 3, Enabled: cfg.ORSAPIKey != ""},
		{Name: "here", APIKey: cfg.HereAPIKey, Weight: 2, Enabled: cfg.HereAPIKey != ""},
		{Name: "tomtom", APIKey: cfg.TomTomAPIKey, Weight: 1, Enabled: cfg.TomTomAPIKey != ""},
		{Name: "googlemaps", APIKey: cfg.GoogleAPIKey, Weight: 1, Enabled: cfg.GoogleAPIKey != ""},
	}
}
