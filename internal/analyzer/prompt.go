package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"flipscout/ingestion-service/internal/model"
)

// extractionPrompt captures the instructions sent to the model when turning a
// scraped listing page into structured valuation data. Keep updates
// centralized here so it is easy to tweak without hunting through call sites.
const extractionPrompt = `You are a Kenyan real estate and vehicle market expert. Analyze this listing and extract structured data.

LISTING CONTENT:
%s

REGIONAL PRICING DATA (for reference):
%s

Extract and return a JSON object with these fields:
{
  "asset_type": "vehicle" | "residential" | "commercial",
  "title": "listing title",
  "description": "brief description",
  "listed_price": number in KES,
  "estimated_value": number in KES (your estimate of true market value),
  "county": "county name",
  "city": "city/town name or null",
  "seller_name": "seller name or null",
  "seller_contact": "phone/email or null",
  "ai_confidence_score": 0-100,
  "improvement_recommendations": [
    {"item": "improvement name", "description": "what to do", "estimated_cost": number, "potential_value_add": number, "priority": "low"|"medium"|"high"}
  ]
}

If you cannot extract the price, use 0. If location is unclear, default to "Nairobi".
Return ONLY the JSON object, no other text.`

// maxPricingContext bounds how many regional pricing rows are embedded in the
// prompt, keeping request cost predictable.
const maxPricingContext = 20

// buildPrompt embeds the (already truncated) page content and a sample of
// regional pricing rows into the extraction prompt.
func buildPrompt(content string, pricing []model.RegionalPricing) string {
	if len(pricing) > maxPricingContext {
		pricing = pricing[:maxPricingContext]
	}
	context := "[]"
	if len(pricing) > 0 {
		if encoded, err := json.MarshalIndent(pricing, "", "  "); err == nil {
			context = string(encoded)
		}
	}
	return fmt.Sprintf(extractionPrompt, strings.TrimSpace(content), context)
}
