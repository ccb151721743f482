// Package pipeline implements the two-phase ingestion batch process:
// discovery (map sources into raw listings) and enrichment (turn raw
// listings into valuation opportunities).
package pipeline

const (
	// DefaultDiscoveryLimit caps accepted URLs per source when the caller
	// does not specify one.
	DefaultDiscoveryLimit = 50

	// DefaultEnrichBatch bounds one enrichment invocation.
	DefaultEnrichBatch = 10

	// contentLimit bounds how much page content is embedded in an
	// extraction request.
	contentLimit = 4000

	// descriptionLimit bounds the fallback description taken from page
	// content when the analyzer supplies none.
	descriptionLimit = 500

	// defaultConfidence is the mid-range score assigned when extraction is
	// absent or malformed.
	defaultConfidence = 50

	// pricingSampleSize bounds the regional pricing rows loaded per run.
	pricingSampleSize = 20
)

// Pipeline drives both stages over the injected collaborators.
type Pipeline struct {
	store     Store
	mapper    SiteMapper
	retriever PageRetriever
	analyzer  Analyzer
	notifier  Notifier

	defaultCounty string
	workers       int
}

// Options tunes pipeline behaviour.
type Options struct {
	// DefaultCounty is the fallback region when extraction yields none.
	DefaultCounty string
	// Workers bounds concurrent enrichment of a batch. Zero means serial.
	Workers int
}

// New constructs a Pipeline. analyzer and notifier may be nil: a nil
// analyzer degrades every opportunity to defensive defaults, a nil notifier
// disables event publishing.
func New(store Store, mapper SiteMapper, retriever PageRetriever, analyzer Analyzer, notifier Notifier, opts Options) *Pipeline {
	county := opts.DefaultCounty
	if county == "" {
		county = "Nairobi"
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		store:         store,
		mapper:        mapper,
		retriever:     retriever,
		analyzer:      analyzer,
		notifier:      notifier,
		defaultCounty: county,
		workers:       workers,
	}
}
