package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/kanjidrill/internal/config"
	"github.com/phrazzld/kanjidrill/internal/domain/srs"
	"github.com/phrazzld/kanjidrill/internal/platform/metrics"
	"github.com/phrazzld/kanjidrill/internal/platform/redis"
	"github.com/phrazzld/kanjidrill/internal/platform/sqldb"
	"github.com/phrazzld/kanjidrill/internal/redact"
	"github.com/phrazzld/kanjidrill/internal/service/review"
	"github.com/phrazzld/kanjidrill/internal/service/stats"
	"github.com/phrazzld/kanjidrill/internal/service/study"
	"github.com/phrazzld/kanjidrill/internal/store"
)

// application holds the wired dependencies shared by every command.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	kv      store.KV
	store   *store.Store
	reviews review.Service
	study   study.Service
	stats   *stats.Service
}

// newApplication connects the configured storage medium and builds the services.
// A medium that cannot be opened is replaced by in-memory storage so the
// process keeps serving; the failure is logged.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	params, err := srs.NewParams(srs.ParamsConfig{
		Weights:          cfg.Scheduler.Weights,
		DesiredRetention: cfg.Scheduler.DesiredRetention,
		MaximumInterval:  cfg.Scheduler.MaximumInterval,
		LearningSteps:    cfg.Scheduler.LearningSteps,
		RelearningSteps:  cfg.Scheduler.RelearningSteps,
		EnableFuzz:       cfg.Scheduler.EnableFuzz,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}
	srsService, err := srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	loc, err := cfg.Stats.Location()
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	kv := openKV(ctx, cfg.Storage, logger)
	st := store.New(kv, cfg.Storage.Namespace, logger, store.WithAnomalyRecorder(m))
	if err := st.Init(ctx); err != nil {
		logger.Warn("storage initialization failed, reads will return empty data",
			slog.String("error", redact.Error(err)))
	}

	return &application{
		config:  cfg,
		logger:  logger,
		metrics: m,
		kv:      kv,
		store:   st,
		reviews: review.NewService(st, srsService, logger, review.WithRecorder(m)),
		study:   study.NewService(st, logger, study.WithRecorder(m)),
		stats:   stats.NewService(st, logger, stats.WithLocation(loc), stats.WithRecorder(m)),
	}, nil
}

// openKV opens the medium selected by cfg.Driver, falling back to memory.
func openKV(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) store.KV {
	var (
		kv  store.KV
		err error
	)
	switch cfg.Driver {
	case "memory":
		return store.NewMemoryKV()
	case "redis":
		kv, err = redis.Open(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	default:
		kv, err = sqldb.Open(ctx, cfg.Driver, cfg.DSN, logger)
	}
	if err != nil {
		logger.Error("storage medium unavailable, falling back to in-memory storage",
			slog.String("driver", cfg.Driver),
			slog.String("error", redact.Error(err)))
		return store.NewMemoryKV()
	}

	logger.Info("storage medium opened", slog.String("driver", cfg.Driver))
	return kv
}

// budget returns the configured default study budget.
func (app *application) budget() study.Budget {
	return study.Budget{
		MaxReviews: app.config.Study.MaxReviews,
		MaxNew:     app.config.Study.MaxNew,
		TotalLimit: app.config.Study.TotalLimit,
	}
}

// cleanup releases the storage medium.
func (app *application) cleanup() {
	if err := app.kv.Close(); err != nil {
		app.logger.Error("failed to close storage", slog.String("error", redact.Error(err)))
	}
}
