// Package app holds the long-lived services of one CLI invocation and runs
// the pipeline phases with them.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/catalog-crawler/internal/config"
	"github.com/JakeFAU/catalog-crawler/internal/hash/sha256"
	"github.com/JakeFAU/catalog-crawler/internal/id/uuid"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
	"github.com/JakeFAU/catalog-crawler/internal/pipeline"
	"github.com/JakeFAU/catalog-crawler/internal/publish"
	"github.com/JakeFAU/catalog-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/catalog-crawler/internal/storage/gcs"
	"github.com/JakeFAU/catalog-crawler/internal/storage/local"
	"github.com/JakeFAU/catalog-crawler/internal/storage/postgres"
)

// App is the dependency container shared by the crawl, transform and run commands.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	runID       string
	clock       *system.Clock
	deps        pipeline.Deps
	closers     []namedCloser
	stopMetrics func()
}

type namedCloser struct {
	name  string
	close func() error
}

// New creates the App: a fresh run ID, the optional Postgres audit mirror
// and the metrics endpoint when configured. Publication services are built
// on the first Transform.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	return newApp(ctx, cfg, logger, uuid.New())
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, ids catalog.IDGenerator) (*App, error) {
	runID, err := ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	logger = logging.OrNop(logger).With(zap.String("run_id", runID))
	clock := system.New()
	a := &App{
		cfg:    cfg,
		logger: logger,
		runID:  runID,
		clock:  clock,
		deps:   pipeline.Deps{Clock: clock, Sleeper: clock},
	}

	if cfg.DB.DSN != "" {
		a.openMirror(ctx)
	}
	if cfg.Metrics.Addr != "" {
		a.stopMetrics = metrics.Serve(ctx, cfg.Metrics.Addr, logger.Named("metrics"))
	}
	logger.Info("application services initialized")
	return a, nil
}

// openMirror connects the audit mirror. A mirror that cannot be reached is
// disabled; the file audit log stays authoritative.
func (a *App) openMirror(ctx context.Context) {
	store, err := postgres.NewOutcomeStore(ctx, postgres.OutcomeStoreConfig{
		DSN:      a.cfg.DB.DSN,
		Table:    a.cfg.DB.Table,
		MaxConns: a.cfg.DB.MaxConns,
	})
	if err != nil {
		a.logger.Warn("audit mirror disabled", zap.Error(err))
		return
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		a.logger.Warn("audit mirror disabled", zap.Error(err))
		return
	}
	a.deps.Mirror = store
	a.closers = append(a.closers, namedCloser{name: "postgres", close: func() error {
		store.Close()
		return nil
	}})
}

// RunID returns the identifier of this invocation.
func (a *App) RunID() string {
	return a.runID
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Crawl runs the crawl phase.
func (a *App) Crawl(ctx context.Context) (pipeline.CrawlReport, error) {
	return pipeline.Crawl(ctx, a.cfg, a.runID, a.deps, a.logger)
}

// Transform runs the transform phase, publishing artifacts when a backend is configured.
func (a *App) Transform(ctx context.Context) (pipeline.TransformReport, error) {
	if err := a.ensureArtifacts(ctx); err != nil {
		return pipeline.TransformReport{RunID: a.runID}, err
	}
	return pipeline.Transform(ctx, a.cfg, a.runID, a.deps, a.logger)
}

// Run crawls to completion, then transforms what the crawl wrote to disk.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.Crawl(ctx); err != nil {
		return err
	}
	_, err := a.Transform(ctx)
	return err
}

func (a *App) ensureArtifacts(ctx context.Context) error {
	if a.deps.Artifacts != nil {
		return nil
	}
	var store catalog.BlobStore
	switch a.cfg.Publish.Backend {
	case "", config.PublishNone:
		return nil
	case config.PublishLocal:
		s, err := local.New(local.Config{BaseDir: a.cfg.Publish.LocalDir})
		if err != nil {
			return fmt.Errorf("init local artifact store: %w", err)
		}
		store = s
	case config.PublishGCS:
		s, err := gcs.Dial(ctx, gcs.Config{Bucket: a.cfg.Publish.GCSBucket})
		if err != nil {
			return fmt.Errorf("init gcs artifact store: %w", err)
		}
		a.closers = append(a.closers, namedCloser{name: "gcs", close: s.Close})
		store = s
	default:
		return fmt.Errorf("unknown publish backend %q", a.cfg.Publish.Backend)
	}

	var notifier catalog.Publisher
	if a.cfg.PubSub.TopicName != "" {
		p, err := pubsub.New(ctx, pubsub.Config{
			ProjectID: a.cfg.PubSub.ProjectID,
			TopicName: a.cfg.PubSub.TopicName,
		})
		if err != nil {
			return fmt.Errorf("init pubsub publisher: %w", err)
		}
		a.closers = append(a.closers, namedCloser{name: "pubsub", close: p.Close})
		notifier = p
	}

	a.deps.Artifacts = publish.New(store, notifier, sha256.New(), a.clock, a.cfg.Publish.Prefix, a.logger.Named("publish"))
	return nil
}

// Close shuts down every service the App opened, newest first, and flushes the logger.
func (a *App) Close() {
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("error closing service", zap.String("service", c.name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) == 0 {
		a.logger.Info("application services closed")
	} else {
		a.logger.Warn("application services closed with errors", zap.Error(errors.Join(errs...)))
	}
	_ = a.logger.Sync()
}
