package rotation

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rk/wallify/util/log"
)

// SearchQuery describes the images a cycle wants.
type SearchQuery struct {
	Tag    string
	Width  int
	Height int
}

// ImageSource is an external photo API.
type ImageSource interface {
	// Name returns the provider name.
	Name() Provider
	// Search returns candidate image URLs for q.
	Search(ctx context.Context, q SearchQuery) ([]Candidate, error)
}

// SourceFactory defines the function signature for creating a source.
type SourceFactory func(cfg *Config, client *http.Client) ImageSource

var (
	sourceRegistry   = make(map[Provider]SourceFactory)
	sourceRegistryMu sync.RWMutex
)

// RegisterSource registers a new image source factory.
func RegisterSource(name Provider, factory SourceFactory) {
	sourceRegistryMu.Lock()
	defer sourceRegistryMu.Unlock()
	sourceRegistry[name] = factory
}

// sourceOrder is the query order of the built-in providers.
var sourceOrder = []Provider{ProviderPexels, ProviderUnsplash, ProviderWallhaven}

// NewRegisteredSources instantiates every registered source, built-in
// providers first in their fixed order.
func NewRegisteredSources(cfg *Config, client *http.Client) []ImageSource {
	sourceRegistryMu.RLock()
	defer sourceRegistryMu.RUnlock()

	names := make([]Provider, 0, len(sourceRegistry))
	for _, p := range sourceOrder {
		if _, ok := sourceRegistry[p]; ok {
			names = append(names, p)
		}
	}
	var extra []Provider
	for p := range sourceRegistry {
		if !p.Valid() {
			extra = append(extra, p)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	names = append(names, extra...)

	sources := make([]ImageSource, 0, len(names))
	for _, name := range names {
		sources = append(sources, sourceRegistry[name](cfg, client))
	}
	return sources
}

// Aggregator queries every source in sequence and concatenates the results.
type Aggregator struct {
	sources []ImageSource
	timeout time.Duration
	metrics *Metrics
}

// NewAggregator creates an Aggregator over sources. A zero timeout uses
// ProviderTimeout.
func NewAggregator(sources []ImageSource, timeout time.Duration, metrics *Metrics) *Aggregator {
	if timeout <= 0 {
		timeout = ProviderTimeout
	}
	return &Aggregator{sources: sources, timeout: timeout, metrics: metrics}
}

// FetchCandidates returns the concatenated results of every source that
// answered. Source failures are logged and contribute nothing.
func (a *Aggregator) FetchCandidates(ctx context.Context, tag string, width, height int) []Candidate {
	q := SearchQuery{Tag: tag, Width: width, Height: height}
	var all []Candidate
	for _, src := range a.sources {
		if ctx.Err() != nil {
			log.Printf("Candidate refill interrupted: %v", ctx.Err())
			break
		}
		cands, err := a.query(ctx, src, q)
		if err != nil {
			log.Printf("Provider %s fetch failed: %v", src.Name(), err)
			a.metrics.providerFailed(src.Name())
			continue
		}
		log.Debugf("Provider %s returned %d candidates for %q", src.Name(), len(cands), tag)
		all = append(all, cands...)
	}
	if len(all) == 0 {
		log.Printf("No wallpapers available for tag %q", tag)
	}
	return all
}

func (a *Aggregator) query(ctx context.Context, src ImageSource, q SearchQuery) ([]Candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return src.Search(callCtx, q)
}
