// Package scheduler wires up the cron job that periodically discovers due
// sources and drains one enrichment batch.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"flipscout/ingestion-service/internal/pipeline"
	"flipscout/ingestion-service/internal/store"
)

// Scheduler wraps robfig/cron and manages the periodic ingestion cycle.
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	pipe      *pipeline.Pipeline
	limit     int
	batchSize int
	spec      string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours. Each tick
// only touches sources whose own cadence has elapsed, so a short interval is
// safe.
func New(st *store.Store, pipe *pipeline.Pipeline, intervalHours, limit, batchSize int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		store:     st,
		pipe:      pipe,
		limit:     limit,
		batchSize: batchSize,
		spec:      fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so a fresh deployment begins filling the backlog without
// waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runCycle(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runCycle discovers every due source, then drains one enrichment batch.
func (s *Scheduler) runCycle(ctx context.Context) {
	log.Println("[scheduler] Ingestion cycle started")

	due, err := s.store.DueSources(ctx)
	if err != nil {
		log.Printf("[scheduler] DueSources error: %v", err)
		return
	}
	if len(due) == 0 {
		log.Println("[scheduler] No sources due — skipping discovery")
	}

	for _, sourceID := range due {
		if _, err := s.pipe.RunDiscovery(ctx, sourceID, s.limit); err != nil {
			log.Printf("[scheduler] Discovery error for source %s: %v", sourceID, err)
		}
	}

	result, err := s.pipe.RunEnrichment(ctx, s.batchSize)
	if err != nil {
		log.Printf("[scheduler] Enrichment error: %v", err)
		return
	}

	log.Printf("[scheduler] Ingestion cycle complete — enriched=%d", result.Processed)
}
