package pipeline

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"flipscout/ingestion-service/internal/analyzer"
	"flipscout/ingestion-service/internal/crawler"
	"flipscout/ingestion-service/internal/model"
)

// EnrichedListing identifies one successfully materialized listing.
type EnrichedListing struct {
	ListingID     string `json:"listing_id"`
	OpportunityID string `json:"opportunity_id"`
	Title         string `json:"title"`
}

// EnrichmentResult is the summary returned by RunEnrichment.
type EnrichmentResult struct {
	Processed int               `json:"processed"`
	Results   []EnrichedListing `json:"results"`
}

// RunEnrichment selects up to batchSize unprocessed raw listings (insertion
// order) and enriches each independently: retrieve content, extract
// structured data, compute metrics, materialize an opportunity. Items are
// processed with bounded concurrency; a single item's failure leaves it
// unprocessed for the next run and never aborts the batch.
func (p *Pipeline) RunEnrichment(ctx context.Context, batchSize int) (EnrichmentResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultEnrichBatch
	}

	listings, err := p.store.UnprocessedListings(ctx, batchSize)
	if err != nil {
		return EnrichmentResult{}, fmt.Errorf("fetch unprocessed listings: %w", err)
	}
	if len(listings) == 0 {
		log.Println("[enrichment] No unprocessed listings found")
		return EnrichmentResult{Results: []EnrichedListing{}}, nil
	}

	log.Printf("[enrichment] Processing %d listing(s)", len(listings))

	pricing, err := p.store.RegionalPricingSample(ctx, pricingSampleSize)
	if err != nil {
		slog.Warn("load regional pricing failed, proceeding without context", "err", err)
		pricing = nil
	}

	// Slot per listing keeps the summary in selection order regardless of
	// worker completion order.
	slots := make([]*EnrichedListing, len(listings))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, listing := range listings {
		i, listing := i, listing
		g.Go(func() error {
			if res, ok := p.enrichListing(ctx, listing, pricing); ok {
				slots[i] = &res
			}
			return nil
		})
	}
	_ = g.Wait()

	result := EnrichmentResult{Results: make([]EnrichedListing, 0, len(listings))}
	for _, slot := range slots {
		if slot != nil {
			result.Results = append(result.Results, *slot)
			result.Processed++
		}
	}

	log.Printf("[enrichment] Batch done — processed=%d of %d", result.Processed, len(listings))
	return result, nil
}

// enrichListing runs steps 1–5 of the enrichment contract for one listing.
// Any failure is logged and reported as ok=false; the listing stays
// unprocessed and retryable.
func (p *Pipeline) enrichListing(ctx context.Context, listing model.RawListing, pricing []model.RegionalPricing) (EnrichedListing, bool) {
	page, err := p.retriever.Retrieve(ctx, listing.SourceURL)
	if err != nil {
		log.Printf("[enrichment] Failed to fetch %s: %v — skipping", listing.SourceURL, err)
		return EnrichedListing{}, false
	}

	content := page.Markdown
	if len(content) > contentLimit {
		content = content[:contentLimit]
	}

	var extraction *analyzer.Extraction
	if p.analyzer != nil && strings.TrimSpace(content) != "" {
		extraction, err = p.analyzer.Analyze(ctx, content, pricing)
		if err != nil {
			log.Printf("[enrichment] AI analysis failed for %s: %v — using defaults", listing.SourceURL, err)
			extraction = nil
		}
	}

	opp := p.buildOpportunity(listing, page, content, extraction)

	var parsed []byte
	if extraction != nil {
		parsed = []byte(extraction.Raw)
	}

	oppID, claimed, err := p.store.MaterializeOpportunity(ctx, listing, parsed, opp)
	if err != nil {
		log.Printf("[enrichment] Error materializing listing %s: %v — continuing", listing.ID, err)
		return EnrichedListing{}, false
	}
	if !claimed {
		log.Printf("[enrichment] Listing %s already processed by another run — skipping", listing.ID)
		return EnrichedListing{}, false
	}

	opp.ID = oppID
	if p.notifier != nil {
		if err := p.notifier.OpportunityCreated(ctx, opp); err != nil {
			slog.Warn("publish opportunity event failed", "opportunity", oppID, "err", err)
		}
	}

	return EnrichedListing{ListingID: listing.ID, OpportunityID: oppID, Title: opp.Title}, true
}

// buildOpportunity assembles the opportunity record, applying defensive
// defaults wherever extraction is absent or malformed so downstream
// computation never branches on missing fields.
func (p *Pipeline) buildOpportunity(listing model.RawListing, page *crawler.Page, content string, ext *analyzer.Extraction) model.Opportunity {
	assetType := listing.RawData.PlatformType
	if ext != nil {
		if parsed, ok := model.ParseAssetType(ext.AssetType); ok {
			assetType = parsed
		}
	}
	if assetType == "" {
		assetType = model.AssetResidential
	}

	title := "Untitled Listing"
	if ext != nil && ext.Title != "" {
		title = ext.Title
	} else if page.Title != "" {
		title = page.Title
	}

	description := ""
	if ext != nil && ext.Description != "" {
		description = ext.Description
	} else if len(content) > descriptionLimit {
		description = content[:descriptionLimit]
	} else {
		description = content
	}

	var listedPrice float64
	if ext != nil && ext.ListedPrice > 0 {
		listedPrice = ext.ListedPrice
	}
	estimatedValue := listedPrice
	if ext != nil && ext.EstimatedValue > 0 {
		estimatedValue = ext.EstimatedValue
	}
	profitPotential, profitPercentage := ProfitMetrics(listedPrice, estimatedValue)

	recommendations := []model.ImprovementRecommendation{}
	if ext != nil && len(ext.ImprovementRecommendations) > 0 {
		recommendations = ext.ImprovementRecommendations
	}
	improvementCost := ImprovementCost(recommendations)

	county := p.defaultCounty
	if ext != nil && ext.County != "" {
		county = ext.County
	}

	confidence := float64(defaultConfidence)
	if ext != nil && ext.AIConfidenceScore > 0 {
		confidence = ext.AIConfidenceScore
	}

	sourcePlatform := listing.RawData.Source
	if sourcePlatform == "" {
		sourcePlatform = "Unknown"
	}

	opp := model.Opportunity{
		AssetType:                  assetType,
		Title:                      title,
		Description:                description,
		ListedPrice:                listedPrice,
		EstimatedValue:             estimatedValue,
		ProfitPotential:            profitPotential,
		ProfitPercentage:           profitPercentage,
		County:                     county,
		SourceURL:                  listing.SourceURL,
		SourcePlatform:             sourcePlatform,
		AIConfidenceScore:          confidence,
		ImprovementRecommendations: recommendations,
		ImprovementCostEstimate:    improvementCost,
		NetProfitPotential:         profitPotential - improvementCost,
		Status:                     model.OpportunityNew,
		ScrapedAt:                  time.Now().UTC(),
	}
	if ext != nil {
		opp.City = ext.City
		opp.SellerName = ext.SellerName
		opp.SellerContact = ext.SellerContact
	}
	return opp
}
