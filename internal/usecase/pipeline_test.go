package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"MarketWire/internal/domain"
	"MarketWire/internal/stages"
	"MarketWire/internal/usecase"
)

const (
	keepResponse    = `{"decision": "keep", "reason": "material to listed banks"}`
	discardResponse = `{"decision": "discard", "reason": "routine appointment notice"}`

	bankEnrichment = `{
		"summary": "State Bank of India and HDFC Bank both raised lending rates after the policy review, a move expected to lift margins across the banking sector in the coming quarters.",
		"sector": "Banking and Financial Services",
		"companies": ["STATE BANK OF INDIA", "HDFC Bank", "Imaginary Finance Corp"],
		"global": false,
		"commodities": false
	}`

	highImpactSentiment = `{"sentiment": "Very Bullish", "impact": "Very High", "rationale": "rate pass-through lifts bank margins"}`
	mildSentiment       = `{"sentiment": "Neutral", "impact": "Mild", "rationale": "already priced in"}`
)

// scriptedCompleter routes on the stage instructions so one fake serves all
// three stages, counting calls per stage.
type scriptedCompleter struct {
	relevance  string
	enrichment string
	sentiment  string

	enrichmentErr error

	relevanceCalls  int
	enrichmentCalls int
	sentimentCalls  int
}

func (c *scriptedCompleter) Complete(_ context.Context, system, _ string, _ float32) (string, error) {
	switch system {
	case stages.RelevancePrompt:
		c.relevanceCalls++
		return c.relevance, nil
	case stages.EnrichmentPrompt:
		c.enrichmentCalls++
		if c.enrichmentErr != nil {
			return "", c.enrichmentErr
		}
		return c.enrichment, nil
	case stages.SentimentPrompt:
		c.sentimentCalls++
		return c.sentiment, nil
	}
	return "", errors.New("unknown stage instructions")
}

type fakeSource struct {
	articles []domain.Article
}

func (s *fakeSource) FetchBatch(context.Context, time.Time) ([]domain.Article, error) {
	return s.articles, nil
}

type fakeStore struct {
	records map[string]domain.EnrichedArticle
	entries []domain.DirectoryEntry
}

func newFakeStore(entries []domain.DirectoryEntry) *fakeStore {
	return &fakeStore{records: map[string]domain.EnrichedArticle{}, entries: entries}
}

func (s *fakeStore) FindByDedupKey(_ context.Context, key string) (bool, error) {
	_, ok := s.records[key]
	return ok, nil
}

func (s *fakeStore) InsertIfAbsent(_ context.Context, article domain.EnrichedArticle) (bool, error) {
	if _, ok := s.records[article.DedupKey]; ok {
		return false, nil
	}
	s.records[article.DedupKey] = article
	return true, nil
}

func (s *fakeStore) LoadDirectory(context.Context) ([]domain.DirectoryEntry, error) {
	return s.entries, nil
}

type fakeNotifier struct {
	alerts []domain.Alert
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.alerts = append(n.alerts, alert)
	return n.err
}

var bankDirectory = []domain.DirectoryEntry{
	{Symbol: "SBIN", DisplayName: "STATE BANK OF INDIA"},
	{Symbol: "HDFCBANK", DisplayName: "HDFC BANK LIMITED"},
	{Symbol: "TCS", DisplayName: "TATA CONSULTANCY SERVICES LIMITED"},
}

func newTestPipeline(source *fakeSource, store *fakeStore, completer *scriptedCompleter, notifier *fakeNotifier) *usecase.Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Relevance:  stages.NewRelevance(completer, stages.RelevancePrompt, time.Second),
		Enrichment: stages.NewEnrichment(completer, stages.EnrichmentPrompt, time.Second),
		Sentiment:  stages.NewSentiment(completer, stages.SentimentPrompt, time.Second),
		Logger:     logger,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return usecase.NewPipeline(deps)
}

func bankArticle(fileID string) domain.Article {
	return domain.Article{
		FileID:      fileID,
		Headline:    "SBI and HDFC Bank raise lending rates after policy review",
		Body:        "Both lenders passed the latest policy move to borrowers within a day of the announcement.",
		PublishedAt: time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC),
	}
}

func TestDedupKeyNormalization(t *testing.T) {
	t.Parallel()

	base := usecase.DedupKey("SBI raises rates", "Effective from Monday.")

	cases := []struct {
		name     string
		headline string
		body     string
		same     bool
	}{
		{"case-folded", "sbi RAISES Rates", "effective from monday.", true},
		{"whitespace-collapsed", "SBI  raises\trates", "Effective  from\nmonday.", true},
		{"different wording", "SBI raises rates", "Effective from Tuesday.", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := usecase.DedupKey(tc.headline, tc.body)
			if (got == base) != tc.same {
				t.Fatalf("DedupKey(%q, %q) equality = %v, want %v", tc.headline, tc.body, got == base, tc.same)
			}
		})
	}
}

func TestProcessBatchStoresValidatedRecord(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: mildSentiment}
	pipeline := newTestPipeline(source, store, completer, nil)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	var record domain.EnrichedArticle
	for _, r := range store.records {
		record = r
	}

	if record.Sector != "Banking and Financial Services" {
		t.Fatalf("sector = %q", record.Sector)
	}
	// "Imaginary Finance Corp" is not in the directory and must be gone.
	want := []string{"STATE BANK OF INDIA", "HDFC BANK LIMITED"}
	if len(record.Companies) != len(want) {
		t.Fatalf("companies = %v, want %v", record.Companies, want)
	}
	for i, name := range want {
		if record.Companies[i] != name {
			t.Fatalf("companies = %v, want %v", record.Companies, want)
		}
	}
	if record.DedupKey != usecase.DedupKey(record.Headline, record.Body) {
		t.Fatalf("dedup key not derived from content")
	}
}

func TestProcessBatchIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: mildSentiment}
	pipeline := newTestPipeline(source, store, completer, nil)

	for i := 0; i < 2; i++ {
		if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	// The second run must stop at the dedup pre-check, before any
	// generative spend.
	if completer.relevanceCalls != 1 || completer.enrichmentCalls != 1 || completer.sentimentCalls != 1 {
		t.Fatalf("stage calls = %d/%d/%d, want 1/1/1",
			completer.relevanceCalls, completer.enrichmentCalls, completer.sentimentCalls)
	}
}

func TestProcessBatchDeduplicatesWithinBatch(t *testing.T) {
	t.Parallel()

	// Same story re-delivered under a fresh wire identifier.
	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001"), bankArticle("PTI-1002")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: mildSentiment}
	pipeline := newTestPipeline(source, store, completer, nil)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	if completer.relevanceCalls != 1 {
		t.Fatalf("relevance calls = %d, want 1", completer.relevanceCalls)
	}
}

func TestProcessBatchDiscardShortCircuits(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: discardResponse}
	pipeline := newTestPipeline(source, store, completer, nil)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	if len(store.records) != 0 {
		t.Fatalf("discarded article must not be persisted")
	}
	if completer.enrichmentCalls != 0 || completer.sentimentCalls != 0 {
		t.Fatalf("later stages ran after discard: %d/%d", completer.enrichmentCalls, completer.sentimentCalls)
	}
}

func TestProcessBatchStageFailureLeavesArticleRetryable(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichmentErr: errors.New("backend unavailable")}
	pipeline := newTestPipeline(source, store, completer, nil)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("a per-article failure must not abort the batch: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("partial results must not be persisted")
	}

	// The backend recovers; the same article goes all the way through.
	completer.enrichmentErr = nil
	completer.enrichment = bankEnrichment
	completer.sentiment = mildSentiment
	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("retry run error: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("stored %d records after retry, want 1", len(store.records))
	}
}

func TestProcessBatchNotifiesOnHighImpact(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: highImpactSentiment}
	notifier := &fakeNotifier{}
	pipeline := newTestPipeline(source, store, completer, notifier)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	if len(notifier.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(notifier.alerts))
	}
	alert := notifier.alerts[0]
	if alert.Impact != domain.ImpactVeryHigh || alert.Sentiment != domain.SentimentVeryBullish {
		t.Fatalf("unexpected alert: %+v", alert)
	}
}

func TestProcessBatchMildImpactStaysQuiet(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: mildSentiment}
	notifier := &fakeNotifier{}
	pipeline := newTestPipeline(source, store, completer, notifier)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	if len(notifier.alerts) != 0 {
		t.Fatalf("no alert expected for mild impact, got %d", len(notifier.alerts))
	}
}

func TestProcessBatchNotifierFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.Article{bankArticle("PTI-1001")}}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: highImpactSentiment}
	notifier := &fakeNotifier{err: errors.New("chat unreachable")}
	pipeline := newTestPipeline(source, store, completer, notifier)

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("a delivery failure must not fail the batch: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("record must stay committed when delivery fails")
	}
}

func TestProcessBatchHonorsBatchLimit(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{bankArticle("PTI-1001")}
	second := bankArticle("PTI-1002")
	second.Headline = "TCS wins multi-year deal with European insurer"
	second.Body = "The contract covers core platform modernization over five years."
	articles = append(articles, second)

	source := &fakeSource{articles: articles}
	store := newFakeStore(bankDirectory)
	completer := &scriptedCompleter{relevance: keepResponse, enrichment: bankEnrichment, sentiment: mildSentiment}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Relevance:  stages.NewRelevance(completer, stages.RelevancePrompt, time.Second),
		Enrichment: stages.NewEnrichment(completer, stages.EnrichmentPrompt, time.Second),
		Sentiment:  stages.NewSentiment(completer, stages.SentimentPrompt, time.Second),
		Logger:     logger,
		BatchLimit: 1,
	})

	if err := pipeline.ProcessBatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	if completer.relevanceCalls != 1 {
		t.Fatalf("relevance calls = %d, want 1", completer.relevanceCalls)
	}
}
