// Package model defines shared data structures for the ingestion service.
package model

import (
	"encoding/json"
	"time"

	"flipscout/ingestion-service/internal/job"
)

// AssetType classifies both a source's platform and an opportunity's asset.
type AssetType string

const (
	AssetVehicle     AssetType = "vehicle"
	AssetResidential AssetType = "residential"
	AssetCommercial  AssetType = "commercial"
	AssetGeneral     AssetType = "general"
	AssetAuction     AssetType = "auction"
)

// ParseAssetType validates a raw string against the closed asset type set.
func ParseAssetType(s string) (AssetType, bool) {
	switch AssetType(s) {
	case AssetVehicle, AssetResidential, AssetCommercial, AssetGeneral, AssetAuction:
		return AssetType(s), true
	}
	return "", false
}

// Priority ranks improvement recommendations.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// NormalizePriority coerces untrusted input to a valid priority, defaulting
// to medium.
func NormalizePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	}
	return PriorityMedium
}

// OpportunityStatus tracks an opportunity through the deal funnel. The
// pipeline only ever creates opportunities as NEW; later states belong to the
// dashboard.
type OpportunityStatus string

const (
	OpportunityNew         OpportunityStatus = "new"
	OpportunityContacted   OpportunityStatus = "contacted"
	OpportunityNegotiating OpportunityStatus = "negotiating"
	OpportunityClosed      OpportunityStatus = "closed"
	OpportunityDismissed   OpportunityStatus = "dismissed"
)

// Source mirrors a scraping_sources row: a configured marketplace site.
type Source struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	PlatformType         AssetType  `json:"platform_type"`
	BaseURL              string     `json:"base_url"`
	SearchPaths          []string   `json:"search_paths"`
	ScrapeFrequencyHours int        `json:"scrape_frequency_hours"`
	IsActive             bool       `json:"is_active"`
	LastScrapedAt        *time.Time `json:"last_scraped_at,omitempty"`
}

// Job mirrors a scraping_jobs row: one discovery run against one source.
type Job struct {
	ID             string     `json:"id"`
	SourceID       string     `json:"source_id"`
	SourceName     string     `json:"source_name,omitempty"`
	Status         job.Status `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ItemsFound     int        `json:"items_found"`
	ItemsProcessed int        `json:"items_processed"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

// DiscoveryMeta is the free-form raw_data payload attached to a raw listing
// at discovery time. It carries enough context for defensive defaults during
// enrichment.
type DiscoveryMeta struct {
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	PlatformType AssetType `json:"platform_type"`
}

// RawListing mirrors a raw_listings row: a discovered candidate URL awaiting
// or having undergone enrichment.
type RawListing struct {
	ID            string          `json:"id"`
	JobID         string          `json:"job_id"`
	SourceURL     string          `json:"source_url"`
	RawData       DiscoveryMeta   `json:"raw_data"`
	Processed     bool            `json:"processed"`
	ParsedData    json.RawMessage `json:"parsed_data,omitempty"`
	OpportunityID *string         `json:"opportunity_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewRawListing is the insert shape produced by the discovery stage.
type NewRawListing struct {
	JobID     string
	SourceURL string
	RawData   DiscoveryMeta
}

// ImprovementRecommendation is one AI-suggested improvement with its cost and
// expected value add.
type ImprovementRecommendation struct {
	Item              string   `json:"item"`
	Description       string   `json:"description"`
	EstimatedCost     float64  `json:"estimated_cost"`
	PotentialValueAdd float64  `json:"potential_value_add"`
	Priority          Priority `json:"priority"`
}

// Opportunity is a materialized, valuation-scored listing record.
type Opportunity struct {
	ID                         string                      `json:"id"`
	AssetType                  AssetType                   `json:"asset_type"`
	Title                      string                      `json:"title"`
	Description                string                      `json:"description"`
	ListedPrice                float64                     `json:"listed_price"`
	EstimatedValue             float64                     `json:"estimated_value"`
	ProfitPotential            float64                     `json:"profit_potential"`
	ProfitPercentage           float64                     `json:"profit_percentage"`
	County                     string                      `json:"county"`
	City                       *string                     `json:"city,omitempty"`
	SellerName                 *string                     `json:"seller_name,omitempty"`
	SellerContact              *string                     `json:"seller_contact,omitempty"`
	SourceURL                  string                      `json:"source_url"`
	SourcePlatform             string                      `json:"source_platform"`
	AIConfidenceScore          float64                     `json:"ai_confidence_score"`
	ImprovementRecommendations []ImprovementRecommendation `json:"improvement_recommendations"`
	ImprovementCostEstimate    float64                     `json:"improvement_cost_estimate"`
	NetProfitPotential         float64                     `json:"net_profit_potential"`
	Status                     OpportunityStatus           `json:"status"`
	ScrapedAt                  time.Time                   `json:"scraped_at"`
	CreatedAt                  time.Time                   `json:"created_at"`
	UpdatedAt                  time.Time                   `json:"updated_at"`
}

// RegionalPricing is a read-only aggregate price statistic per county and
// asset type, used as calibration context for the analyzer.
type RegionalPricing struct {
	County       string    `json:"county"`
	AssetType    AssetType `json:"asset_type"`
	AveragePrice float64   `json:"average_price"`
	MinPrice     *float64  `json:"min_price,omitempty"`
	MaxPrice     *float64  `json:"max_price,omitempty"`
	SampleSize   int       `json:"sample_size"`
}
