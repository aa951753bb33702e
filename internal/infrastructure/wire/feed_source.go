package wire

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MarketWire/internal/config"
	"MarketWire/internal/domain"
	"MarketWire/internal/ports"
	"MarketWire/internal/scanner"
)

// FeedSource implements ArticleSource via registered wire-source strategies.
type FeedSource struct {
	registry *scanner.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*FeedSource)(nil)

// NewFeedSource wires the source registry with config-defined feeds.
func NewFeedSource(reg *scanner.Registry, feeds []config.FeedConfig, log *slog.Logger) *FeedSource {
	return &FeedSource{
		registry: reg,
		feeds:    feeds,
		logger:   log,
	}
}

// FetchBatch iterates over configured feeds and executes their sources.
func (s *FeedSource) FetchBatch(ctx context.Context, now time.Time) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("wire source registry is not configured")
	}

	s.debug("fetch batch", "feeds", len(s.feeds), "now", now.Format(time.RFC3339))

	var aggregated []domain.Article
	for _, feed := range s.feeds {
		strategy, err := s.registry.Resolve(feed.Source)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}

		req := scanner.Request{
			Now:      now,
			FeedName: feed.Name,
			Options:  feed.Options,
		}

		results, err := strategy.Fetch(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
		}

		s.debug("feed produced articles", "feed", feed.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("feed source done", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *FeedSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
