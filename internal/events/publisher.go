// Package events publishes pipeline milestones to Redis for downstream
// consumers (notification fan-out, dashboard live updates).
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"flipscout/ingestion-service/internal/model"
	"flipscout/ingestion-service/internal/pipeline"
)

// ChannelOpportunityCreated carries one event per materialized opportunity.
const ChannelOpportunityCreated = "EVENT_OPPORTUNITY_CREATED"

// Publisher emits pipeline events over Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
}

var _ pipeline.Notifier = (*Publisher)(nil)

// NewPublisher returns a configured Publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// OpportunityCreated announces a newly materialized opportunity. Callers
// treat failures as non-fatal.
func (p *Publisher) OpportunityCreated(ctx context.Context, opp model.Opportunity) error {
	event, err := json.Marshal(map[string]any{
		"type":                 ChannelOpportunityCreated,
		"opportunity_id":       opp.ID,
		"title":                opp.Title,
		"asset_type":           opp.AssetType,
		"county":               opp.County,
		"net_profit_potential": opp.NetProfitPotential,
	})
	if err != nil {
		return fmt.Errorf("marshal opportunity event: %w", err)
	}
	if err := p.rdb.Publish(ctx, ChannelOpportunityCreated, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelOpportunityCreated, err)
	}
	return nil
}
