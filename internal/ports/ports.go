package ports

import (
	"context"
	"time"

	"MarketWire/internal/domain"
)

// ArticleSource pulls the batch of wire articles published since the
// previous successful run.
type ArticleSource interface {
	FetchBatch(ctx context.Context, now time.Time) ([]domain.Article, error)
}

// ArticleStore persists enriched records and serves the company directory.
// InsertIfAbsent must be atomic on the dedup key: concurrent inserts for the
// same key may not both report inserted=true.
type ArticleStore interface {
	FindByDedupKey(ctx context.Context, key string) (bool, error)
	InsertIfAbsent(ctx context.Context, record domain.EnrichedArticle) (inserted bool, err error)
	LoadDirectory(ctx context.Context) ([]domain.DirectoryEntry, error)
}

// Completer executes a single text-generation call against an external
// model. An empty response is a stage failure, not a valid result.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}

// Notifier pushes market alerts to subscribers. Fire-and-forget: delivery
// failures must never fail the pipeline.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Scheduler controls when pipeline batches execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
