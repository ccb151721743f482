package pipeline

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"flipscout/ingestion-service/internal/crawler"
	"flipscout/ingestion-service/internal/job"
	"flipscout/ingestion-service/internal/model"
)

// SourceRun summarizes one source's discovery outcome.
type SourceRun struct {
	JobID     string     `json:"job_id,omitempty"`
	Source    string     `json:"source"`
	URLsFound int        `json:"urls_found"`
	Status    job.Status `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// DiscoveryResult is the summary returned by RunDiscovery.
type DiscoveryResult struct {
	Jobs []SourceRun `json:"jobs"`
}

// RunDiscovery maps every matching active source, classifies the discovered
// URLs and persists the accepted ones as unprocessed raw listings. A single
// source failure marks that source's job failed and the run continues; only
// failing to read the source registry at all is returned as an error.
func (p *Pipeline) RunDiscovery(ctx context.Context, sourceID string, limit int) (DiscoveryResult, error) {
	if limit <= 0 {
		limit = DefaultDiscoveryLimit
	}

	sources, err := p.store.ActiveSources(ctx, sourceID)
	if err != nil {
		return DiscoveryResult{}, fmt.Errorf("fetch active sources: %w", err)
	}
	if len(sources) == 0 {
		log.Println("[discovery] No active sources found — nothing to scrape")
		return DiscoveryResult{Jobs: []SourceRun{}}, nil
	}

	result := DiscoveryResult{Jobs: make([]SourceRun, 0, len(sources))}
	for _, src := range sources {
		result.Jobs = append(result.Jobs, p.discoverSource(ctx, src, limit))
	}
	return result, nil
}

// discoverSource runs the full discovery cycle for one source under its own
// job. Errors never escape; they are captured on the job record.
func (p *Pipeline) discoverSource(ctx context.Context, src model.Source, limit int) SourceRun {
	log.Printf("[discovery] Processing source: %s", src.Name)

	jobRec, err := p.store.CreateJob(ctx, src.ID)
	if err != nil {
		log.Printf("[discovery] Error creating job for %s: %v — continuing", src.Name, err)
		return SourceRun{Source: src.Name, Status: job.StatusFailed, Error: err.Error()}
	}

	accepted, err := p.collectListingURLs(ctx, src, limit)
	if err != nil {
		return p.failSource(ctx, jobRec.ID, src.Name, err)
	}

	if len(accepted) > 0 {
		listings := make([]model.NewRawListing, 0, len(accepted))
		for _, u := range accepted {
			listings = append(listings, model.NewRawListing{
				JobID:     jobRec.ID,
				SourceURL: u,
				RawData: model.DiscoveryMeta{
					URL:          u,
					Source:       src.Name,
					PlatformType: src.PlatformType,
				},
			})
		}
		inserted, duplicates, err := p.store.InsertRawListings(ctx, listings)
		if err != nil {
			return p.failSource(ctx, jobRec.ID, src.Name, fmt.Errorf("insert raw listings: %w", err))
		}
		log.Printf("[discovery] %s — accepted=%d inserted=%d duplicates=%d",
			src.Name, len(accepted), inserted, duplicates)
	}

	if err := p.store.CompleteJob(ctx, jobRec.ID, len(accepted)); err != nil {
		return p.failSource(ctx, jobRec.ID, src.Name, fmt.Errorf("complete job: %w", err))
	}
	if err := p.store.TouchSourceScraped(ctx, src.ID); err != nil {
		slog.Warn("touch source last_scraped_at failed", "source", src.Name, "err", err)
	}

	return SourceRun{
		JobID:     jobRec.ID,
		Source:    src.Name,
		URLsFound: len(accepted),
		Status:    job.StatusCompleted,
	}
}

// collectListingURLs maps every configured search path, concatenates the
// links, filters them through the classifier and truncates to the cap.
// Duplicate URLs across search paths are collapsed.
func (p *Pipeline) collectListingURLs(ctx context.Context, src model.Source, limit int) ([]string, error) {
	paths := src.SearchPaths
	if len(paths) == 0 {
		paths = []string{""}
	}

	var all []string
	for _, path := range paths {
		target := src.BaseURL + path
		log.Printf("[discovery] Mapping: %s", target)

		links, err := p.mapper.MapSite(ctx, crawler.MapRequest{URL: target, Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", target, err)
		}
		if len(links) > limit {
			links = links[:limit]
		}
		all = append(all, links...)
	}

	seen := make(map[string]bool, len(all))
	accepted := make([]string, 0, len(all))
	for _, u := range all {
		if seen[u] || !IsListingURL(u) {
			continue
		}
		seen[u] = true
		accepted = append(accepted, u)
		if len(accepted) == limit {
			break
		}
	}
	return accepted, nil
}

func (p *Pipeline) failSource(ctx context.Context, jobID, sourceName string, cause error) SourceRun {
	log.Printf("[discovery] Error scraping %s: %v — continuing", sourceName, cause)
	if err := p.store.FailJob(ctx, jobID, cause.Error()); err != nil {
		slog.Warn("mark job failed", "job", jobID, "err", err)
	}
	return SourceRun{
		JobID:  jobID,
		Source: sourceName,
		Status: job.StatusFailed,
		Error:  cause.Error(),
	}
}
