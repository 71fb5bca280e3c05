package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/content"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/infrastructure/httpapi"
	"ContentGenerator/internal/infrastructure/llm"
	"ContentGenerator/internal/infrastructure/lock"
	"ContentGenerator/internal/infrastructure/metrics"
	"ContentGenerator/internal/infrastructure/scheduler"
	"ContentGenerator/internal/infrastructure/storage/memory"
	"ContentGenerator/internal/infrastructure/storage/postgres"
	"ContentGenerator/internal/infrastructure/telegram"
	"ContentGenerator/internal/ports"
	"ContentGenerator/internal/usecase"
)

// store is what both storage backends provide.
type store interface {
	ports.SeedStore
	ports.SeedAdmin
	ports.QueueRepository
	ports.GenerationLog
	Pages(ct domain.ContentType) ports.ContentStore
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	options usecase.RunOptions

	store     store
	metrics   *metrics.Metrics
	runner    *usecase.Runner
	populator *usecase.Populator
	requeuer  *usecase.Requeuer
	scheduler *usecase.Scheduler
	cron      *scheduler.CronScheduler

	closers []func() error
}

// New connects storage and builds every use case from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.New(slog.DiscardHandler)
	}
	types, err := cfg.Pipeline.Types()
	if err != nil {
		return nil, err
	}

	a := &Application{
		cfg:    cfg,
		logger: baseLogger,
		options: usecase.RunOptions{
			BatchSize:           cfg.Pipeline.BatchSize,
			AutoPopulate:        cfg.Pipeline.AutoPopulate,
			PopulateMaxPriority: cfg.Pipeline.PopulateMaxPriority,
			ContentTypes:        types,
		},
		metrics: metrics.New(),
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	completer, err := llm.New(cfg.AI)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("ai provider: %w", err)
	}
	prompts, err := usecase.NewPromptBuilder(content.DefaultRegistry(), cfg.Prompts.Overrides())
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("prompt templates: %w", err)
	}

	publisher := usecase.NewPublisher(map[domain.ContentType]ports.ContentStore{
		domain.ContentLocation: a.store.Pages(domain.ContentLocation),
		domain.ContentIndustry: a.store.Pages(domain.ContentIndustry),
		domain.ContentCombo:    a.store.Pages(domain.ContentCombo),
	}, cfg.Publisher.PageStatus())

	a.populator = usecase.NewPopulator(a.store, a.store, publisher, baseLogger.With("component", "populator"))
	a.requeuer = usecase.NewRequeuer(a.store, baseLogger.With("component", "requeue"))

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Queue:     a.store,
		Seeds:     a.store,
		Publisher: publisher,
		Completer: completer,
		Log:       a.store,
		Schemas:   content.DefaultRegistry(),
		Prompts:   prompts,
		Observer:  a.metrics,
		Logger:    baseLogger.With("component", "orchestrator"),
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout,
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	a.runner = usecase.NewRunner(usecase.PipelineDeps{
		Populator:    a.populator,
		Orchestrator: orchestrator,
		Queue:        a.store,
		Locker:       a.locker(),
		Observer:     a.metrics,
		Notifier:     notifier,
		Logger:       baseLogger.With("component", "pipeline"),
		StaleAfter:   cfg.Pipeline.StaleAfter,
	})

	a.cron = scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
	a.scheduler = usecase.NewScheduler(a.cron, a.runner, a.options, cfg.Scheduler.Enabled, baseLogger.With("component", "scheduler"))
	return a, nil
}

func (a *Application) openStore(ctx context.Context) error {
	if a.cfg.Database.InMemory() {
		a.logger.Warn("using in-memory storage, data is lost on exit")
		a.store = memory.NewStore()
		return nil
	}

	if a.cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(a.cfg.Database.DSN, postgres.MigrateUp, 0, a.logger.With("component", "migrate")); err != nil {
			return err
		}
	}
	db, err := postgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	pg := postgres.NewStore(db)
	a.store = pg
	a.closers = append(a.closers, pg.Close)
	return nil
}

func (a *Application) locker() ports.Locker {
	if a.cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)
	return lock.NewRedisLocker(client, a.cfg.Redis.LockKey, a.cfg.Redis.LockTTL, a.logger.With("component", "lock"))
}

// RunOptions returns the configured defaults for a run.
func (a *Application) RunOptions() usecase.RunOptions {
	return a.options
}

// RunOnce performs a single pipeline run with opts.
func (a *Application) RunOnce(ctx context.Context, opts usecase.RunOptions) (domain.RunSummary, error) {
	return a.runner.RunOnce(ctx, opts)
}

// Populate runs the populator alone.
func (a *Application) Populate(ctx context.Context, req usecase.PopulateRequest) (domain.PopulateResult, error) {
	return a.populator.Populate(ctx, req)
}

// Requeue re-enqueues failed items.
func (a *Application) Requeue(ctx context.Context, ids []string) (usecase.RequeueResult, error) {
	return a.requeuer.RequeueFailed(ctx, ids)
}

// ImportSeeds upserts administrative seed items.
func (a *Application) ImportSeeds(ctx context.Context, items []domain.SeedItem) (int, error) {
	return a.store.UpsertSeeds(ctx, items)
}

// Serve starts the scheduler and the HTTP API and blocks until ctx is
// cancelled or the server fails.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if next, ok := a.cron.Next(); ok {
		a.logger.Info("next scheduled run", "at", next)
	}

	server := httpapi.NewServer(httpapi.Deps{
		Runner:    a.runner,
		Populator: a.populator,
		Requeuer:  a.requeuer,
		Queue:     a.store,
		Log:       a.store,
		Metrics:   a.metrics.Handler(),
		Defaults:  a.options,
		Logger:    a.logger.With("component", "http"),
	})
	serveErr := server.Run(ctx, a.cfg.HTTP.Addr)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.AI.Timeout)
	defer cancel()
	return errors.Join(serveErr, a.scheduler.Stop(stopCtx))
}

// Close releases storage and Redis connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
