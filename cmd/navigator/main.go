package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/storm-navigator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-navigator/internal/adapter/kafka"
	"github.com/couchcryptid/storm-navigator/internal/adapter/localstore"
	"github.com/couchcryptid/storm-navigator/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-navigator/internal/adapter/sqlitestore"
	"github.com/couchcryptid/storm-navigator/internal/adapter/wsbridge"
	"github.com/couchcryptid/storm-navigator/internal/broadcast"
	"github.com/couchcryptid/storm-navigator/internal/cards"
	"github.com/couchcryptid/storm-navigator/internal/config"
	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
	"github.com/couchcryptid/storm-navigator/internal/playback"
	"github.com/couchcryptid/storm-navigator/internal/scene"
)

func main() {
	configFile := flag.String("config", "", "optional path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scene persistence backend.
	var store scene.Store
	var closeStore func() error
	switch cfg.StoreBackend {
	case "sqlite":
		sqlStore, err := sqlitestore.NewStore(cfg.StorePath, scene.StorageKey)
		if err != nil {
			logger.Error("failed to open sqlite store", "path", cfg.StorePath, "error", err)
			os.Exit(1)
		}
		store = sqlStore
		closeStore = sqlStore.Close
		logger.Info("using sqlite scene store", "path", cfg.StorePath)
	default:
		store = localstore.NewStore(cfg.StorePath, scene.StorageKey, logger)
		logger.Info("using file scene store", "path", cfg.StorePath)
	}

	// Geocoding is feature-flagged; scenes capture fine without it.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	repo := scene.NewRepository(store, geocoder, clock, logger, metrics)
	if err := repo.Load(ctx); err != nil {
		logger.Error("failed to load scenes", "error", err)
		os.Exit(1)
	}

	var registry *cards.Registry
	if cfg.CardsFile != "" {
		registry, err = cards.NewRegistryFromFile(cfg.CardsFile)
	} else {
		registry, err = cards.NewRegistry()
	}
	if err != nil {
		logger.Error("failed to load card registry", "error", err)
		os.Exit(1)
	}
	logger.Info("card registry loaded", "scenes_with_cards", registry.SceneCount())

	hub := wsbridge.NewHub(logger, metrics)

	broadcaster := broadcast.New(clock, logger, metrics, cfg.TransitionExpiry)
	broadcaster.Subscribe(hub.BroadcastTransition)

	var publisher domain.EventPublisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka playback events enabled", "topic", cfg.KafkaTopic)
	}

	engine := playback.New(
		repo, registry, broadcaster, hub, hub, publisher,
		clock, logger, metrics,
		cfg.PlaybackTotalDuration, cfg.CardRevealDelay,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, broadcaster, http.HandlerFunc(hub.HandleWS), repo, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := hub.Close(); err != nil {
		logger.Error("websocket hub close error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			logger.Error("scene store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
