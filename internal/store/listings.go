package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"flipscout/ingestion-service/internal/model"
)

// InsertRawListings bulk-inserts discovered URLs, skipping any source_url
// already known from a previous run. Returns how many rows were inserted and
// how many were duplicates.
func (s *Store) InsertRawListings(ctx context.Context, listings []model.NewRawListing) (inserted, duplicates int, err error) {
	if len(listings) == 0 {
		return 0, 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range listings {
		rawData, err := json.Marshal(l.RawData)
		if err != nil {
			return 0, 0, fmt.Errorf("marshal raw_data: %w", err)
		}
		batch.Queue(
			`INSERT INTO raw_listings (id, job_id, source_url, raw_data, processed)
			 VALUES ($1, $2, $3, $4, false)
			 ON CONFLICT (source_url) DO NOTHING`,
			uuid.NewString(), l.JobID, l.SourceURL, rawData,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	for range listings {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return inserted, duplicates, fmt.Errorf("insert raw listing: %w", err)
		}
		if tag.RowsAffected() == 0 {
			duplicates++
		} else {
			inserted++
		}
	}
	if err := results.Close(); err != nil {
		return inserted, duplicates, fmt.Errorf("close insert batch: %w", err)
	}
	return inserted, duplicates, nil
}

// UnprocessedListings returns up to limit raw listings with processed=false
// in insertion order, so repeated runs drain the backlog deterministically.
func (s *Store) UnprocessedListings(ctx context.Context, limit int) ([]model.RawListing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, source_url, raw_data, processed, parsed_data, opportunity_id, created_at
		 FROM raw_listings
		 WHERE processed = false
		 ORDER BY created_at, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query raw_listings: %w", err)
	}
	defer rows.Close()

	var listings []model.RawListing
	for rows.Next() {
		var (
			l       model.RawListing
			rawData []byte
			parsed  []byte
		)
		if err := rows.Scan(
			&l.ID, &l.JobID, &l.SourceURL, &rawData, &l.Processed,
			&parsed, &l.OpportunityID, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan raw listing: %w", err)
		}
		if len(rawData) > 0 {
			// Discovery metadata is free-form; a malformed blob just means
			// enrichment falls back to defaults.
			_ = json.Unmarshal(rawData, &l.RawData)
		}
		l.ParsedData = parsed
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// MaterializeOpportunity inserts the opportunity, flips the raw listing's
// processed flag and increments the owning job's items_processed counter in
// one transaction. The processed=false guard makes the claim atomic: when a
// concurrent invocation got there first the transaction rolls back and
// claimed=false is returned with nothing written.
func (s *Store) MaterializeOpportunity(ctx context.Context, listing model.RawListing, parsed []byte, opp model.Opportunity) (string, bool, error) {
	recommendations, err := json.Marshal(opp.ImprovementRecommendations)
	if err != nil {
		return "", false, fmt.Errorf("marshal recommendations: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	opportunityID := uuid.NewString()
	_, err = tx.Exec(ctx,
		`INSERT INTO opportunities
		   (id, asset_type, title, description, listed_price, estimated_value,
		    profit_potential, profit_percentage, county, city, seller_name, seller_contact,
		    source_url, source_platform, ai_confidence_score, improvement_recommendations,
		    improvement_cost_estimate, net_profit_potential, status, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		opportunityID, string(opp.AssetType), opp.Title, opp.Description,
		opp.ListedPrice, opp.EstimatedValue, opp.ProfitPotential, opp.ProfitPercentage,
		opp.County, opp.City, opp.SellerName, opp.SellerContact,
		opp.SourceURL, opp.SourcePlatform, opp.AIConfidenceScore, recommendations,
		opp.ImprovementCostEstimate, opp.NetProfitPotential, string(opp.Status), opp.ScrapedAt,
	)
	if err != nil {
		return "", false, fmt.Errorf("insert opportunity: %w", err)
	}

	var parsedArg any
	if len(parsed) > 0 {
		parsedArg = parsed
	}
	tag, err := tx.Exec(ctx,
		`UPDATE raw_listings
		 SET processed = true, parsed_data = $2, opportunity_id = $3
		 WHERE id = $1 AND processed = false`,
		listing.ID, parsedArg, opportunityID,
	)
	if err != nil {
		return "", false, fmt.Errorf("claim raw listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the claim race; rollback discards the opportunity insert.
		return "", false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE scraping_jobs
		 SET items_processed = items_processed + 1
		 WHERE id = $1`,
		listing.JobID,
	)
	if err != nil {
		return "", false, fmt.Errorf("increment items_processed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit: %w", err)
	}
	return opportunityID, true, nil
}
