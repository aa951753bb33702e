package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"MarketWire/internal/config"
	"MarketWire/internal/infrastructure/llm"
	"MarketWire/internal/infrastructure/scheduler"
	"MarketWire/internal/infrastructure/storage"
	"MarketWire/internal/infrastructure/telegram"
	"MarketWire/internal/infrastructure/wire"
	"MarketWire/internal/logging"
	"MarketWire/internal/ports"
	"MarketWire/internal/scanner"
	"MarketWire/internal/stages"
	"MarketWire/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewPostgresStore(db)

	completer, err := llm.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build completer: %w", err)
	}

	timeout := cfg.LLM.CallTimeout()
	relevance := stages.NewRelevance(completer, promptOr(cfg.LLM.Prompts.Relevance, stages.RelevancePrompt), timeout)
	enrichment := stages.NewEnrichment(completer, promptOr(cfg.LLM.Prompts.Enrichment, stages.EnrichmentPrompt), timeout)
	sentiment := stages.NewSentiment(completer, promptOr(cfg.LLM.Prompts.Sentiment, stages.SentimentPrompt), timeout)

	registry := scanner.NewRegistry()
	registry.Register(wire.NewPTIScanner(cfg.Wire, cfg.Scheduler.Location(), nil, baseLogger.With("component", "wire.pti")))
	source := wire.NewFeedSource(registry, cfg.Feeds, baseLogger.With("component", "source"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:        source,
		Store:         store,
		Relevance:     relevance,
		Enrichment:    enrichment,
		Sentiment:     sentiment,
		Notifier:      notifier,
		Logger:        baseLogger.With("component", "pipeline"),
		MaxCandidates: cfg.Pipeline.MaxCandidates,
		BatchLimit:    cfg.Pipeline.BatchLimit,
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	runner := usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		db:        db,
		pipeline:  pipeline,
		scheduler: runner,
	}, nil
}

// RunOnce executes a single pipeline batch.
func (a *Application) RunOnce(ctx context.Context) error {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.ProcessBatch(ctx, now)
}

// Run starts the cron-driven loop and blocks until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func promptOr(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
