package pipeline

import (
	"context"

	"flipscout/ingestion-service/internal/analyzer"
	"flipscout/ingestion-service/internal/crawler"
	"flipscout/ingestion-service/internal/model"
)

// Store is the persistence surface the pipeline depends on. The Postgres
// implementation lives in internal/store; tests substitute in-memory fakes.
type Store interface {
	// Discovery side.
	ActiveSources(ctx context.Context, sourceID string) ([]model.Source, error)
	CreateJob(ctx context.Context, sourceID string) (model.Job, error)
	CompleteJob(ctx context.Context, jobID string, itemsFound int) error
	FailJob(ctx context.Context, jobID, message string) error
	InsertRawListings(ctx context.Context, listings []model.NewRawListing) (inserted, duplicates int, err error)
	TouchSourceScraped(ctx context.Context, sourceID string) error

	// Enrichment side.
	UnprocessedListings(ctx context.Context, limit int) ([]model.RawListing, error)
	RegionalPricingSample(ctx context.Context, limit int) ([]model.RegionalPricing, error)

	// MaterializeOpportunity atomically inserts the opportunity, flips the
	// listing's processed flag (guarded by processed=false) and increments the
	// owning job's items_processed counter. claimed=false means another
	// invocation already processed the listing; nothing was written.
	MaterializeOpportunity(ctx context.Context, listing model.RawListing, parsed []byte, opp model.Opportunity) (opportunityID string, claimed bool, err error)
}

// SiteMapper discovers candidate links under a URL.
type SiteMapper interface {
	MapSite(ctx context.Context, req crawler.MapRequest) ([]string, error)
}

// PageRetriever fetches one listing page as normalized markdown.
type PageRetriever interface {
	Retrieve(ctx context.Context, url string) (*crawler.Page, error)
}

// Analyzer extracts structured valuation data from page content.
type Analyzer interface {
	Analyze(ctx context.Context, content string, pricing []model.RegionalPricing) (*analyzer.Extraction, error)
}

// Notifier announces newly materialized opportunities. Failures are
// non-fatal; the pipeline logs and moves on.
type Notifier interface {
	OpportunityCreated(ctx context.Context, opp model.Opportunity) error
}
