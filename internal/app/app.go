package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsClassifier/internal/classifier"
	"NewsClassifier/internal/config"
	"NewsClassifier/internal/infrastructure/cache"
	"NewsClassifier/internal/infrastructure/export"
	"NewsClassifier/internal/infrastructure/llm"
	"NewsClassifier/internal/infrastructure/parser"
	"NewsClassifier/internal/infrastructure/scheduler"
	"NewsClassifier/internal/infrastructure/storage"
	"NewsClassifier/internal/infrastructure/telegram"
	"NewsClassifier/internal/logging"
	"NewsClassifier/internal/ports"
	"NewsClassifier/internal/scanner"
	"NewsClassifier/internal/usecase"
)

// setupTimeout bounds every startup check (model endpoint, Postgres, Redis).
const setupTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	registry     *scanner.Registry
	orchestrator *usecase.Orchestrator
	repository   *storage.PostgresRepository
	notifier     ports.Notifier
	closers      []func() error
}

// New builds the application and runs the fatal setup checks: configuration, model
// endpoint reachability and, when configured, Postgres. Redis problems only disable caching.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	completer, err := newCompleter(cfg.Model)
	if err != nil {
		return nil, err
	}
	gw := llm.NewGateway(completer, cfg.Model, baseLogger.With("component", "gateway", "provider", completer.Name()))

	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()
	if err := gw.Verify(setupCtx); err != nil {
		return nil, fmt.Errorf("verify model endpoint: %w", err)
	}

	var modelGateway ports.ModelGateway = gw
	if cfg.Cache.RedisURL != "" {
		store, err := cache.NewRedisStore(setupCtx, cfg.Cache.RedisURL)
		if err != nil {
			baseLogger.Warn("response cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, store.Close)
			modelGateway = cache.NewGateway(gw, store, cfg.Model.Model, cfg.Cache.TTL, baseLogger.With("component", "cache"))
		}
	}

	if cfg.Database.DSN != "" {
		db, err := openDatabase(setupCtx, cfg.Database.DSN)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.repository = storage.NewPostgresRepository(db)
	}

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		a.notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	service := classifier.NewService(modelGateway, ports.GenerateOptions{
		Temperature: cfg.Model.Temperature,
		TopP:        cfg.Model.TopP,
		MaxTokens:   cfg.Model.MaxTokens,
		Timeout:     cfg.Model.RequestTimeout,
	}, baseLogger.With("component", "classifier"))

	var orchestratorOpts []usecase.OrchestratorOption
	if cfg.Analysis.Sentiment {
		orchestratorOpts = append(orchestratorOpts, usecase.WithSentiment(service))
	}
	a.orchestrator = usecase.NewOrchestrator(service, cfg.Batch, usecase.NewLogObserver(baseLogger),
		baseLogger.With("component", "orchestrator"), orchestratorOpts...)
	a.registry = scanner.NewRegistry(
		parser.NewCSVScanner(cfg.Input.DateFormat),
		parser.NewFeedScanner(nil),
		parser.NewHTMLScanner(nil),
	)

	return a, nil
}

func newCompleter(cfg config.ModelConfig) (ports.Completer, error) {
	switch cfg.Provider {
	case "ollama":
		return llm.NewOllamaClient(cfg), nil
	case "openai":
		return llm.NewChatGPTClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: model provider %q", config.ErrInvalid, cfg.Provider)
	}
}

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Run classifies one CSV file and writes the results. Empty paths fall back to configuration.
func (a *Application) Run(ctx context.Context, input, output string) (usecase.Summary, error) {
	if input == "" {
		input = a.cfg.Input.Path
	}
	if output == "" {
		output = a.cfg.Output.Path
	}

	source := parser.NewStrategySource(a.registry, []config.SourceConfig{{
		Name:     "input",
		Scanner:  "csv",
		Location: input,
		Options:  map[string]string{"dateFormat": a.cfg.Input.DateFormat},
	}}, a.logger.With("component", "source"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:       source,
		Orchestrator: a.orchestrator,
		Repositories: a.repositories(export.NewCSVWriter(output, a.cfg.Input.DateFormat)),
		Notifier:     a.notifier,
		ChunkSize:    a.cfg.Batch.Size,
		Logger:       a.logger.With("component", "pipeline"),
	})

	a.logger.Info("processing file", "input", input, "output", output)
	summary, err := pipeline.Process(ctx)
	if err != nil {
		return summary, err
	}
	a.logger.Info("processed data saved", "output", output, "total", summary.Stats.Total, "cancelled", summary.Cancelled())
	return summary, nil
}

// Watch runs the configured sources on the scheduler interval until ctx is done.
func (a *Application) Watch(ctx context.Context) error {
	if len(a.cfg.Sources) == 0 {
		return fmt.Errorf("%w: watch needs at least one source", config.ErrInvalid)
	}

	deps := usecase.PipelineDeps{
		Source:       parser.NewStrategySource(a.registry, a.cfg.Sources, a.logger.With("component", "source")),
		Orchestrator: a.orchestrator,
		Repositories: a.repositories(nil),
		Notifier:     a.notifier,
		ChunkSize:    a.cfg.Batch.Size,
		Logger:       a.logger.With("component", "pipeline"),
	}
	if a.repository != nil {
		deps.Ledger = a.repository
	} else if a.cfg.Output.Path != "" {
		deps.Repositories = append(deps.Repositories, export.NewCSVWriter(a.cfg.Output.Path, a.cfg.Input.DateFormat))
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, usecase.NewPipeline(deps), a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching sources", "sources", len(a.cfg.Sources), "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Model.RequestTimeout+setupTimeout)
	defer cancel()
	return sched.Stop(stopCtx)
}

func (a *Application) repositories(primary ports.ResultRepository) []ports.ResultRepository {
	var repos []ports.ResultRepository
	if primary != nil {
		repos = append(repos, primary)
	}
	if a.repository != nil {
		repos = append(repos, a.repository)
	}
	return repos
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
