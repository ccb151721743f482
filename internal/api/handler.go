// Package api implements the HTTP surface for triggering and inspecting the
// ingestion pipeline.
//
// Routes:
//
//	POST /scrape/run     → run discovery  {source_id?, limit?}
//	POST /process/run    → run enrichment {batch_size?}
//	GET  /jobs           → recent jobs with source names
//	GET  /opportunities  → filterable opportunity listing
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"flipscout/ingestion-service/internal/model"
	"flipscout/ingestion-service/internal/pipeline"
	"flipscout/ingestion-service/internal/store"
)

// Runner triggers pipeline stages.
type Runner interface {
	RunDiscovery(ctx context.Context, sourceID string, limit int) (pipeline.DiscoveryResult, error)
	RunEnrichment(ctx context.Context, batchSize int) (pipeline.EnrichmentResult, error)
}

// Reader serves the inspection endpoints.
type Reader interface {
	RecentJobs(ctx context.Context, limit int) ([]model.Job, error)
	Opportunities(ctx context.Context, f store.OpportunityFilter) ([]model.Opportunity, error)
}

// Handler holds shared dependencies.
type Handler struct {
	runner Runner
	reader Reader
}

// NewHandler returns a configured Handler.
func NewHandler(runner Runner, reader Reader) *Handler {
	return &Handler{runner: runner, reader: reader}
}

// RegisterRoutes mounts all ingestion routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/scrape/run", h.handleScrapeRun)
	mux.HandleFunc("/process/run", h.handleProcessRun)
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/opportunities", h.handleOpportunities)
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

func (h *Handler) handleScrapeRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		SourceID string `json:"source_id"`
		Limit    int    `json:"limit"`
	}
	if r.Body != nil {
		// Empty body means "all active sources with the default cap".
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := h.runner.RunDiscovery(r.Context(), body.SourceID, body.Limit)
	if err != nil {
		log.Printf("[api] RunDiscovery error: %v", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(w, result)
}

func (h *Handler) handleProcessRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		BatchSize int `json:"batch_size"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := h.runner.RunEnrichment(r.Context(), body.BatchSize)
	if err != nil {
		log.Printf("[api] RunEnrichment error: %v", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(w, result)
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.reader.RecentJobs(r.Context(), limit)
	if err != nil {
		log.Printf("[api] RecentJobs error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	jsonOK(w, jobs)
}

func (h *Handler) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := store.OpportunityFilter{
		County:    q.Get("county"),
		AssetType: q.Get("asset_type"),
		Status:    q.Get("status"),
	}
	if v := q.Get("min_profit"); v != "" {
		minProfit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			jsonError(w, "min_profit must be a number", http.StatusBadRequest)
			return
		}
		filter.MinProfit = minProfit
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	opps, err := h.reader.Opportunities(r.Context(), filter)
	if err != nil {
		log.Printf("[api] Opportunities error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if opps == nil {
		opps = []model.Opportunity{}
	}
	jsonOK(w, opps)
}

// ─── JSON helpers ─────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
