package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"flipscout/ingestion-service/internal/model"
)

// OpportunityFilter narrows the opportunity listing. Zero values mean "any".
type OpportunityFilter struct {
	County    string
	AssetType string
	Status    string
	MinProfit float64
	Limit     int
}

// Opportunities returns materialized opportunities matching the filter,
// newest first.
func (s *Store) Opportunities(ctx context.Context, f OpportunityFilter) ([]model.Opportunity, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	qb := sq.Select(
		"id", "asset_type", "title", "description", "listed_price", "estimated_value",
		"profit_potential", "profit_percentage", "county", "city", "seller_name",
		"seller_contact", "source_url", "source_platform", "ai_confidence_score",
		"improvement_recommendations", "improvement_cost_estimate", "net_profit_potential",
		"status", "scraped_at", "created_at", "updated_at",
	).
		From("opportunities").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	if f.County != "" {
		qb = qb.Where(sq.Eq{"county": f.County})
	}
	if f.AssetType != "" {
		qb = qb.Where(sq.Eq{"asset_type": f.AssetType})
	}
	if f.Status != "" {
		qb = qb.Where(sq.Eq{"status": f.Status})
	}
	if f.MinProfit > 0 {
		qb = qb.Where(sq.GtOrEq{"net_profit_potential": f.MinProfit})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build opportunities query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []model.Opportunity
	for rows.Next() {
		var (
			o               model.Opportunity
			assetType       string
			status          string
			recommendations []byte
		)
		if err := rows.Scan(
			&o.ID, &assetType, &o.Title, &o.Description, &o.ListedPrice, &o.EstimatedValue,
			&o.ProfitPotential, &o.ProfitPercentage, &o.County, &o.City, &o.SellerName,
			&o.SellerContact, &o.SourceURL, &o.SourcePlatform, &o.AIConfidenceScore,
			&recommendations, &o.ImprovementCostEstimate, &o.NetProfitPotential,
			&status, &o.ScrapedAt, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		o.AssetType = model.AssetType(assetType)
		o.Status = model.OpportunityStatus(status)
		o.ImprovementRecommendations = []model.ImprovementRecommendation{}
		if len(recommendations) > 0 {
			_ = json.Unmarshal(recommendations, &o.ImprovementRecommendations)
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

// RegionalPricingSample returns up to limit regional pricing rows used as
// analyzer calibration context.
func (s *Store) RegionalPricingSample(ctx context.Context, limit int) ([]model.RegionalPricing, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT county, asset_type, average_price, min_price, max_price, sample_size
		 FROM regional_pricing
		 ORDER BY county, asset_type
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query regional_pricing: %w", err)
	}
	defer rows.Close()

	var pricing []model.RegionalPricing
	for rows.Next() {
		var (
			p         model.RegionalPricing
			assetType string
		)
		if err := rows.Scan(&p.County, &assetType, &p.AveragePrice, &p.MinPrice, &p.MaxPrice, &p.SampleSize); err != nil {
			return nil, fmt.Errorf("scan regional pricing: %w", err)
		}
		p.AssetType = model.AssetType(assetType)
		pricing = append(pricing, p)
	}
	return pricing, rows.Err()
}
