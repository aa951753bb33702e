package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketWire/internal/domain"
	"MarketWire/internal/ports"
)

// Generation calls run pinned to temperature zero so repeated runs over the
// same article stay as stable as the backing model allows.
const generationTemperature float32 = 0

const defaultCallTimeout = 60 * time.Second

// Stage executes one generative decision step: fixed instructions plus
// dynamic context in, a strictly parsed structured result out. A nil or
// unparseable model response is a failure of the call, never a default
// result.
type Stage struct {
	completer ports.Completer
	prompt    string
	timeout   time.Duration
}

func newStage(completer ports.Completer, prompt string, timeout time.Duration) Stage {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return Stage{completer: completer, prompt: prompt, timeout: timeout}
}

// complete issues the bounded generative call and returns the trimmed text.
func (s Stage) complete(ctx context.Context, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(ctx, s.prompt, user, generationTemperature)
	if err != nil {
		return "", fmt.Errorf("generative call: %w", err)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("generative call returned no content")
	}
	return raw, nil
}

// decodeStrict parses a model response as JSON into v. Models occasionally
// wrap output in markdown code fences despite the JSON-only instruction, so
// fences are stripped before decoding. Unknown fields are rejected: extra
// keys mean the model drifted from the contract.
func decodeStrict(raw string, v any) error {
	raw = stripCodeFence(raw)

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parse stage output: %w", err)
	}
	return nil
}

func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// Relevance is the first stage: keep or discard.
type Relevance struct {
	Stage
}

// NewRelevance builds the relevance filter over a completer.
func NewRelevance(completer ports.Completer, prompt string, timeout time.Duration) *Relevance {
	return &Relevance{newStage(completer, prompt, timeout)}
}

// Run classifies one article. The result decision is always one of the two
// labels; anything else from the model is a parse failure.
func (r *Relevance) Run(ctx context.Context, article domain.Article) (domain.ClassificationResult, error) {
	user := fmt.Sprintf("Title: %s\n\nContent:\n%s", article.Headline, article.Body)

	raw, err := r.complete(ctx, user)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	var parsed struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason"`
	}
	if err := decodeStrict(raw, &parsed); err != nil {
		return domain.ClassificationResult{}, err
	}

	decision := domain.Decision(strings.ToLower(strings.TrimSpace(parsed.Decision)))
	if decision != domain.DecisionKeep && decision != domain.DecisionDiscard {
		return domain.ClassificationResult{}, fmt.Errorf("unexpected decision label %q", parsed.Decision)
	}

	return domain.ClassificationResult{Decision: decision, Reason: parsed.Reason}, nil
}

// Enrichment is the second stage: summary, sector, flags, and raw company
// mentions drawn from the prefiltered candidate list.
type Enrichment struct {
	Stage
}

// NewEnrichment builds the summarization/tagging stage over a completer.
func NewEnrichment(completer ports.Completer, prompt string, timeout time.Duration) *Enrichment {
	return &Enrichment{newStage(completer, prompt, timeout)}
}

// Run enriches one kept article. Candidates are the only companies the model
// is shown; its claims still pass through directory validation downstream.
func (e *Enrichment) Run(ctx context.Context, article domain.Article, candidates []domain.DirectoryEntry) (domain.EnrichmentResult, error) {
	user, err := enrichmentInput(article, candidates)
	if err != nil {
		return domain.EnrichmentResult{}, err
	}

	raw, err := e.complete(ctx, user)
	if err != nil {
		return domain.EnrichmentResult{}, err
	}

	var parsed struct {
		Summary     string   `json:"summary"`
		Sector      string   `json:"sector"`
		Companies   []string `json:"companies"`
		Global      bool     `json:"global"`
		Commodities bool     `json:"commodities"`
	}
	if err := decodeStrict(raw, &parsed); err != nil {
		return domain.EnrichmentResult{}, err
	}

	if strings.TrimSpace(parsed.Summary) == "" {
		return domain.EnrichmentResult{}, fmt.Errorf("stage returned empty summary")
	}

	return domain.EnrichmentResult{
		Summary:     strings.TrimSpace(parsed.Summary),
		Sector:      strings.TrimSpace(parsed.Sector),
		Companies:   parsed.Companies,
		Global:      parsed.Global,
		Commodities: parsed.Commodities,
	}, nil
}

func enrichmentInput(article domain.Article, candidates []domain.DirectoryEntry) (string, error) {
	type candidate struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}

	list := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		list = append(list, candidate{Symbol: c.Symbol, Name: c.DisplayName})
	}

	encoded, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode candidate list: %w", err)
	}

	return fmt.Sprintf(
		"Article:\nTitle: %s\n\nContent:\n%s\n\nCandidate company list (use only this list):\n%s",
		article.Headline, article.Body, encoded,
	), nil
}

// Sentiment is the third stage: one aggregate sentiment/impact judgment over
// the enriched summary and the validated company list.
type Sentiment struct {
	Stage
}

// NewSentiment builds the sentiment/impact stage over a completer.
func NewSentiment(completer ports.Completer, prompt string, timeout time.Duration) *Sentiment {
	return &Sentiment{newStage(completer, prompt, timeout)}
}

// Run scores the enriched article. Companies must already be validated; the
// raw claimed list never reaches this stage.
func (s *Sentiment) Run(ctx context.Context, enrichment domain.EnrichmentResult, companies []string) (domain.SentimentResult, error) {
	user := fmt.Sprintf(
		"Summary: %s\nSector: %s\nCompanies: %s",
		enrichment.Summary, enrichment.Sector, strings.Join(companies, ", "),
	)

	raw, err := s.complete(ctx, user)
	if err != nil {
		return domain.SentimentResult{}, err
	}

	var parsed struct {
		Sentiment string `json:"sentiment"`
		Impact    string `json:"impact"`
		Rationale string `json:"rationale"`
	}
	if err := decodeStrict(raw, &parsed); err != nil {
		return domain.SentimentResult{}, err
	}

	result := domain.SentimentResult{
		Sentiment: domain.Sentiment(strings.TrimSpace(parsed.Sentiment)),
		Impact:    domain.Impact(strings.TrimSpace(parsed.Impact)),
		Rationale: parsed.Rationale,
	}

	if !domain.ValidSentiment(result.Sentiment) {
		return domain.SentimentResult{}, fmt.Errorf("unexpected sentiment label %q", parsed.Sentiment)
	}
	if !domain.ValidImpact(result.Impact) {
		return domain.SentimentResult{}, fmt.Errorf("unexpected impact label %q", parsed.Impact)
	}

	return result, nil
}
