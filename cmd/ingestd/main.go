// flipscout-ingestd — marketplace ingestion & enrichment service
//
// Two-phase batch pipeline:
//   - discovery:  map configured marketplace sources, classify candidate
//     listing URLs, persist them as unprocessed raw listings
//   - enrichment: retrieve listing content, extract structured valuation
//     data via the AI gateway, materialize opportunities
//
// Both stages are triggerable over HTTP and run periodically via cron,
// honouring each source's scrape cadence.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flipscout/ingestion-service/internal/analyzer"
	"flipscout/ingestion-service/internal/api"
	"flipscout/ingestion-service/internal/config"
	"flipscout/ingestion-service/internal/crawler"
	"flipscout/ingestion-service/internal/db"
	"flipscout/ingestion-service/internal/events"
	"flipscout/ingestion-service/internal/pipeline"
	"flipscout/ingestion-service/internal/scheduler"
	"flipscout/ingestion-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ingestd] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[ingestd] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[ingestd] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[ingestd] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[ingestd] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[ingestd] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[ingestd] Redis connected ✓")

	st := store.New(pool)

	// ── Source registry seed (optional) ─────────────────────────────────────
	if cfg.SourcesFile != "" {
		sources, err := config.LoadSources(cfg.SourcesFile)
		if err != nil {
			log.Fatalf("[ingestd] Sources file: %v", err)
		}
		if err := st.UpsertSources(ctx, sources); err != nil {
			log.Fatalf("[ingestd] Seed sources: %v", err)
		}
		log.Printf("[ingestd] Seeded %d source(s) from %s", len(sources), cfg.SourcesFile)
	}

	// ── Pipeline ─────────────────────────────────────────────────────────────
	crawl := crawler.NewClient(cfg.CrawlerAPIKey,
		crawler.WithBaseURL(cfg.CrawlerBaseURL),
		crawler.WithLocale(cfg.CountryCode, cfg.Languages),
	)
	extract := analyzer.NewClient(cfg.AIGatewayKey,
		analyzer.WithBaseURL(cfg.AIGatewayURL),
		analyzer.WithModel(cfg.AIModel),
	)
	pipe := pipeline.New(st, crawl, crawl, extract, events.NewPublisher(rdb), pipeline.Options{
		DefaultCounty: cfg.DefaultCounty,
		Workers:       cfg.EnrichWorkers,
	})

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(st, pipe, cfg.ScrapeIntervalHours, cfg.DiscoveryLimit, cfg.EnrichBatchSize)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[ingestd] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	api.NewHandler(pipe, st).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // pipeline runs are synchronous
	}

	go func() {
		log.Printf("[ingestd] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[ingestd] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[ingestd] Shutting down…")
	cancel() // stop scheduling new pipeline work

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ingestd] Shutdown error: %v", err)
	}
	log.Println("[ingestd] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "ingestion-service",
		"version": version,
	})
}
