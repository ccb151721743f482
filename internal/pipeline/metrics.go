package pipeline

import "flipscout/ingestion-service/internal/model"

// ProfitMetrics computes profit potential and percentage from listed price
// and estimated value. A non-positive listed price yields a zero percentage
// rather than a division by zero.
func ProfitMetrics(listedPrice, estimatedValue float64) (potential, percentage float64) {
	potential = estimatedValue - listedPrice
	if listedPrice > 0 {
		percentage = potential / listedPrice * 100
	}
	return potential, percentage
}

// ImprovementCost sums the estimated costs across recommendations.
func ImprovementCost(recs []model.ImprovementRecommendation) float64 {
	var total float64
	for _, rec := range recs {
		total += rec.EstimatedCost
	}
	return total
}
