package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"MarketWire/internal/directory"
	"MarketWire/internal/domain"
	"MarketWire/internal/ports"
	"MarketWire/internal/stages"
)

// PipelineDeps wires all collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Store      ports.ArticleStore
	Relevance  *stages.Relevance
	Enrichment *stages.Enrichment
	Sentiment  *stages.Sentiment
	Notifier   ports.Notifier
	Logger     *slog.Logger

	MaxCandidates int
	BatchLimit    int
}

// Pipeline sequences the classification stages per article, computes the
// dedup key, and commits exactly one record per logically-unique content.
type Pipeline struct {
	source     ports.ArticleSource
	store      ports.ArticleStore
	relevance  *stages.Relevance
	enrichment *stages.Enrichment
	sentiment  *stages.Sentiment
	notifier   ports.Notifier
	logger     *slog.Logger

	maxCandidates int
	batchLimit    int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	maxCandidates := deps.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 25
	}
	return &Pipeline{
		source:        deps.Source,
		store:         deps.Store,
		relevance:     deps.Relevance,
		enrichment:    deps.Enrichment,
		sentiment:     deps.Sentiment,
		notifier:      deps.Notifier,
		logger:        deps.Logger,
		maxCandidates: maxCandidates,
		batchLimit:    deps.BatchLimit,
	}
}

// DedupKey hashes case-folded, whitespace-collapsed headline+body. Content,
// not the wire file identifier, defines uniqueness: the same story is
// regularly re-delivered under a fresh identifier.
func DedupKey(headline, body string) string {
	folded := strings.ToLower(headline + " " + body)
	collapsed := strings.Join(strings.Fields(folded), " ")
	sum := sha256.Sum256([]byte(collapsed))
	return hex.EncodeToString(sum[:])
}

// ProcessBatch fetches the pending window and runs every article through the
// stage chain. Safe to invoke repeatedly: already-stored content is skipped
// via its dedup key, and articles that fail a stage are left untouched for
// the next run.
func (p *Pipeline) ProcessBatch(ctx context.Context, now time.Time) error {
	articles, err := p.source.FetchBatch(ctx, now)
	if err != nil {
		return err
	}
	if p.batchLimit > 0 && len(articles) > p.batchLimit {
		articles = articles[:p.batchLimit]
	}

	entries, err := p.store.LoadDirectory(ctx)
	if err != nil {
		return err
	}
	// Directory snapshot is refreshed once per batch and read-only after.
	snapshot := directory.NewSnapshot(entries)
	validator := directory.NewValidator(snapshot, p.logger)

	var stored, discarded, skipped, failed int
	for _, article := range articles {
		switch p.processArticle(ctx, article, snapshot, validator) {
		case outcomeStored:
			stored++
		case outcomeDiscarded:
			discarded++
		case outcomeSkipped:
			skipped++
		case outcomeFailed:
			failed++
		}
	}

	p.info("batch complete",
		"fetched", len(articles),
		"stored", stored,
		"discarded", discarded,
		"skipped_duplicate", skipped,
		"failed_retryable", failed,
	)
	return nil
}

type outcome int

const (
	outcomeStored outcome = iota
	outcomeDiscarded
	outcomeSkipped
	outcomeFailed
)

func (p *Pipeline) processArticle(ctx context.Context, article domain.Article, snapshot *directory.Snapshot, validator *directory.Validator) outcome {
	key := DedupKey(article.Headline, article.Body)

	// Cheap pre-check before any generative spend. The authoritative guard
	// is still the insert below.
	exists, err := p.store.FindByDedupKey(ctx, key)
	if err != nil {
		p.warn("dedup lookup failed", "file_id", article.FileID, "error", err)
		return outcomeFailed
	}
	if exists {
		p.info("skipped duplicate", "file_id", article.FileID, "headline", article.Headline)
		return outcomeSkipped
	}

	classification, err := p.relevance.Run(ctx, article)
	if err != nil {
		// Not a discard: the article stays unprocessed and retryable.
		p.warn("relevance stage failed", "file_id", article.FileID, "error", err)
		return outcomeFailed
	}
	if classification.Decision == domain.DecisionDiscard {
		p.info("discarded", "file_id", article.FileID, "headline", article.Headline, "reason", classification.Reason)
		return outcomeDiscarded
	}

	candidates := snapshot.Prefilter(article.Headline+" "+article.Body, p.maxCandidates)

	enrichment, err := p.enrichment.Run(ctx, article, candidates)
	if err != nil {
		p.warn("enrichment stage failed", "file_id", article.FileID, "error", err)
		return outcomeFailed
	}

	companies := validator.Validate(enrichment.Companies, candidates)

	sentiment, err := p.sentiment.Run(ctx, enrichment, companies)
	if err != nil {
		p.warn("sentiment stage failed", "file_id", article.FileID, "error", err)
		return outcomeFailed
	}

	record := domain.EnrichedArticle{
		Article:     article,
		DedupKey:    key,
		Decision:    classification.Decision,
		Reason:      classification.Reason,
		Summary:     enrichment.Summary,
		Sector:      enrichment.Sector,
		Companies:   companies,
		Global:      enrichment.Global,
		Commodities: enrichment.Commodities,
		Sentiment:   sentiment.Sentiment,
		Impact:      sentiment.Impact,
		Rationale:   sentiment.Rationale,
		IngestedAt:  time.Now().UTC(),
	}

	inserted, err := p.store.InsertIfAbsent(ctx, record)
	if err != nil {
		p.warn("insert failed", "file_id", article.FileID, "error", err)
		return outcomeFailed
	}
	if !inserted {
		p.info("skipped duplicate on insert", "file_id", article.FileID, "headline", article.Headline)
		return outcomeSkipped
	}

	p.info("stored",
		"file_id", article.FileID,
		"headline", article.Headline,
		"sector", record.Sector,
		"companies", len(record.Companies),
		"sentiment", record.Sentiment,
		"impact", record.Impact,
	)

	if sentiment.Alertworthy() && p.notifier != nil {
		alert := domain.Alert{
			Headline:  article.Headline,
			Summary:   enrichment.Summary,
			Sentiment: sentiment.Sentiment,
			Impact:    sentiment.Impact,
		}
		if err := p.notifier.Notify(ctx, alert); err != nil {
			// Delivery failures never unwind the committed record.
			p.warn("alert delivery failed", "file_id", article.FileID, "error", err)
		}
	}

	return outcomeStored
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
