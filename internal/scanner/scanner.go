package scanner

import (
	"context"
	"fmt"
	"time"

	"MarketWire/internal/domain"
)

// Request carries all parameters required to execute one feed fetch.
// Sources compute their own lookback window from Now and their watermark.
type Request struct {
	Now      time.Time
	FeedName string
	Options  map[string]string
}

// Source captures a single wire-service strategy (PTI, future agencies).
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("wire source %s is not registered", name)
}
