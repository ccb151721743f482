package store

import (
	"context"
	"fmt"

	"flipscout/ingestion-service/internal/model"
)

const sourceColumns = `id, name, platform_type, base_url, search_paths,
	       scrape_frequency_hours, is_active, last_scraped_at`

// ActiveSources returns all active sources, or just the one matching
// sourceID when it is non-empty. Order is stable by name.
func (s *Store) ActiveSources(ctx context.Context, sourceID string) ([]model.Source, error) {
	query := `SELECT ` + sourceColumns + `
		 FROM scraping_sources
		 WHERE is_active = true`
	args := []any{}
	if sourceID != "" {
		query += ` AND id = $1`
		args = append(args, sourceID)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scraping_sources: %w", err)
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var (
			src      model.Source
			platform string
		)
		if err := rows.Scan(
			&src.ID, &src.Name, &platform, &src.BaseURL, &src.SearchPaths,
			&src.ScrapeFrequencyHours, &src.IsActive, &src.LastScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.PlatformType = model.AssetType(platform)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// DueSources returns the IDs of active sources whose last run is older than
// their configured cadence (or that have never run).
func (s *Store) DueSources(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id
		 FROM scraping_sources
		 WHERE is_active = true
		   AND (last_scraped_at IS NULL
		        OR last_scraped_at < NOW() - make_interval(hours => scrape_frequency_hours))
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query due sources: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due source: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TouchSourceScraped stamps last_scraped_at after a completed discovery run.
func (s *Store) TouchSourceScraped(ctx context.Context, sourceID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE scraping_sources
		 SET last_scraped_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("touch source %s: %w", sourceID, err)
	}
	return nil
}

// UpsertSources seeds the source registry from configuration, keyed by name.
func (s *Store) UpsertSources(ctx context.Context, sources []model.Source) error {
	for _, src := range sources {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO scraping_sources
			   (name, platform_type, base_url, search_paths, scrape_frequency_hours, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (name) DO UPDATE
			 SET platform_type          = EXCLUDED.platform_type,
			     base_url               = EXCLUDED.base_url,
			     search_paths           = EXCLUDED.search_paths,
			     scrape_frequency_hours = EXCLUDED.scrape_frequency_hours,
			     is_active              = EXCLUDED.is_active,
			     updated_at             = NOW()`,
			src.Name, string(src.PlatformType), src.BaseURL, src.SearchPaths,
			src.ScrapeFrequencyHours, src.IsActive,
		)
		if err != nil {
			return fmt.Errorf("upsert source %q: %w", src.Name, err)
		}
	}
	return nil
}
