package domain

import "time"

// Article is a core entity describing one raw wire item before classification.
// Passthrough carries every wire-supplied field the pipeline does not
// interpret; it is preserved verbatim into the stored record.
type Article struct {
	FileID      string
	Headline    string
	Body        string
	PublishedAt time.Time
	Passthrough map[string]string
}

// DirectoryEntry is one listed company from the company directory.
type DirectoryEntry struct {
	Symbol      string
	DisplayName string
}

// Decision is the relevance-filter verdict for an article.
type Decision string

const (
	DecisionKeep    Decision = "keep"
	DecisionDiscard Decision = "discard"
)

// ClassificationResult is the relevance stage output.
type ClassificationResult struct {
	Decision Decision
	Reason   string
}

// EnrichmentResult is the summarization/tagging stage output. Companies is
// untrusted model output until it passes directory validation.
type EnrichmentResult struct {
	Summary     string
	Sector      string
	Companies   []string
	Global      bool
	Commodities bool
}

// Sentiment is the short-term directional read on a story.
type Sentiment string

const (
	SentimentVeryBullish Sentiment = "Very Bullish"
	SentimentBullish     Sentiment = "Bullish"
	SentimentNeutral     Sentiment = "Neutral"
	SentimentBearish     Sentiment = "Bearish"
	SentimentVeryBearish Sentiment = "Very Bearish"
)

// Impact grades how strongly a story is expected to move price or sentiment.
type Impact string

const (
	ImpactVeryHigh   Impact = "Very High"
	ImpactHigh       Impact = "High"
	ImpactMild       Impact = "Mild"
	ImpactNegligible Impact = "Negligible"
)

// ValidSentiment reports whether s is one of the five allowed labels.
func ValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentVeryBullish, SentimentBullish, SentimentNeutral, SentimentBearish, SentimentVeryBearish:
		return true
	}
	return false
}

// ValidImpact reports whether i is one of the four allowed labels.
func ValidImpact(i Impact) bool {
	switch i {
	case ImpactVeryHigh, ImpactHigh, ImpactMild, ImpactNegligible:
		return true
	}
	return false
}

// SentimentResult is the sentiment/impact stage output. One aggregate
// judgment per article, even when several companies are tagged.
type SentimentResult struct {
	Sentiment Sentiment
	Impact    Impact
	Rationale string
}

// Alertworthy reports whether the result should trigger a subscriber push:
// top-bucket impact or either sentiment extreme.
func (r SentimentResult) Alertworthy() bool {
	return r.Impact == ImpactVeryHigh ||
		r.Sentiment == SentimentVeryBullish ||
		r.Sentiment == SentimentVeryBearish
}

// EnrichedArticle is the record persisted for every kept article. Created
// once by the orchestrator after all stages succeed, never mutated.
type EnrichedArticle struct {
	Article

	DedupKey    string
	Decision    Decision
	Reason      string
	Summary     string
	Sector      string
	Companies   []string
	Global      bool
	Commodities bool
	Sentiment   Sentiment
	Impact      Impact
	Rationale   string
	IngestedAt  time.Time
}

// Alert is the payload handed to the notification channel for
// high-impact stories.
type Alert struct {
	Headline  string
	Summary   string
	Sentiment Sentiment
	Impact    Impact
}
