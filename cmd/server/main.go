package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/disaster-response-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-response-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-response-service/internal/adapter/scrape"
	"github.com/couchcryptid/disaster-response-service/internal/adapter/ws"
	"github.com/couchcryptid/disaster-response-service/internal/app"
	"github.com/couchcryptid/disaster-response-service/internal/cache"
	"github.com/couchcryptid/disaster-response-service/internal/config"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/notify"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/couchcryptid/disaster-response-service/internal/pipeline"
	"github.com/couchcryptid/disaster-response-service/internal/service"
	"github.com/couchcryptid/disaster-response-service/internal/store"
	"golang.org/x/sync/errgroup"
)

type disasterStore interface {
	domain.DisasterStore
	domain.ResourceStore
	httpadapter.Pinger
}

type cacheStore interface {
	domain.CacheStore
	httpadapter.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	disasters := openStore(db, logger)
	cacheBackend, closeCache, err := openCache(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeCache()
	memo := cache.NewMemo(cacheBackend, logger, metrics)

	hub := ws.NewHub(logger, metrics)
	defer hub.Close()

	var (
		broadcaster = notify.New(hub)
		publisher   *kafkaadapter.Publisher
		reader      *kafkaadapter.Reader
	)
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		reader = kafkaadapter.NewReader(cfg, logger)
		broadcaster = notify.New(hub, publisher)
		logger.Info("kafka enabled",
			"brokers", cfg.KafkaBrokers,
			"events_topic", cfg.KafkaEventsTopic,
			"intake_topic", cfg.KafkaIntakeTopic,
		)
	}

	providers := app.NewProviders(cfg, logger, metrics)
	locations := app.NewResolver(providers, memo, logger, metrics)

	disasterSvc := service.NewDisasters(disasters, locations, broadcaster, logger)
	feeds := service.NewFeeds(service.FeedsConfig{
		Memo:         memo,
		Resources:    disasters,
		Updates:      scrape.NewFEMA(cfg.OfficialUpdatesURL, cfg.ScrapeTimeout, logger, metrics),
		Analyzer:     providers.Gemini,
		Broadcaster:  broadcaster,
		RadiusMeters: cfg.ResourceRadiusMeters,
		Logger:       logger,
		Metrics:      metrics,
	})

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Disasters:   disasterSvc,
		Feeds:       feeds,
		Resolver:    locations,
		Ready:       httpadapter.Readiness{"store": disasters, "cache": cacheBackend},
		WebSocket:   hub,
		AdminUsers:  cfg.AdminUsers,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
		Metrics:     metrics,
	})
	srv := httpadapter.NewServer(cfg.HTTPAddr, router, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if reader != nil {
		intake := pipeline.New(reader, pipeline.NewTransformer(), disasterSvc, logger, metrics, cfg.BatchSize)
		g.Go(func() error {
			return intake.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		if reader != nil {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}

func openStore(db *sql.DB, logger *slog.Logger) disasterStore {
	if db == nil {
		logger.Warn("DATABASE_URL not set, disasters are kept in memory")
		return store.NewMemory()
	}
	logger.Info("using postgres store")
	return store.NewPostgres(db)
}

func openCache(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (cacheStore, func(), error) {
	noop := func() {}
	switch cfg.CacheBackend {
	case config.CacheRedis:
		r, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using redis cache")
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}, nil
	case config.CachePostgres:
		p, err := cache.NewPostgres(ctx, db)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using postgres cache")
		return p, noop, nil
	default:
		logger.Info("using in-memory cache", "max_entries", cfg.CacheMaxEntries)
		return cache.NewMemory(cfg.CacheMaxEntries), noop, nil
	}
}
