package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flipscout/ingestion-service/internal/job"
	"flipscout/ingestion-service/internal/model"
	"flipscout/ingestion-service/internal/pipeline"
	"flipscout/ingestion-service/internal/store"
)

type stubRunner struct {
	discovery  pipeline.DiscoveryResult
	enrichment pipeline.EnrichmentResult
	err        error

	gotSourceID  string
	gotLimit     int
	gotBatchSize int
}

func (s *stubRunner) RunDiscovery(_ context.Context, sourceID string, limit int) (pipeline.DiscoveryResult, error) {
	s.gotSourceID, s.gotLimit = sourceID, limit
	return s.discovery, s.err
}

func (s *stubRunner) RunEnrichment(_ context.Context, batchSize int) (pipeline.EnrichmentResult, error) {
	s.gotBatchSize = batchSize
	return s.enrichment, s.err
}

type stubReader struct {
	jobs []model.Job
	opps []model.Opportunity
	err  error

	gotFilter store.OpportunityFilter
}

func (s *stubReader) RecentJobs(_ context.Context, _ int) ([]model.Job, error) {
	return s.jobs, s.err
}

func (s *stubReader) Opportunities(_ context.Context, f store.OpportunityFilter) ([]model.Opportunity, error) {
	s.gotFilter = f
	return s.opps, s.err
}

func newTestMux(runner Runner, reader Reader) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(runner, reader).RegisterRoutes(mux)
	return mux
}

func TestScrapeRun(t *testing.T) {
	runner := &stubRunner{discovery: pipeline.DiscoveryResult{Jobs: []pipeline.SourceRun{
		{JobID: "job-1", Source: "S1", URLsFound: 4, Status: job.StatusCompleted},
	}}}
	mux := newTestMux(runner, &stubReader{})

	req := httptest.NewRequest(http.MethodPost, "/scrape/run", strings.NewReader(`{"source_id":"s1","limit":25}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	if runner.gotSourceID != "s1" || runner.gotLimit != 25 {
		t.Errorf("runner called with (%q, %d)", runner.gotSourceID, runner.gotLimit)
	}

	var out pipeline.DiscoveryResult
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Jobs) != 1 || out.Jobs[0].URLsFound != 4 {
		t.Errorf("response = %+v", out)
	}
}

func TestScrapeRun_EmptyBody(t *testing.T) {
	runner := &stubRunner{}
	mux := newTestMux(runner, &stubReader{})

	req := httptest.NewRequest(http.MethodPost, "/scrape/run", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for empty body", rec.Code)
	}
	if runner.gotSourceID != "" || runner.gotLimit != 0 {
		t.Errorf("empty body must fall through to defaults, got (%q, %d)", runner.gotSourceID, runner.gotLimit)
	}
}

func TestScrapeRun_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(&stubRunner{}, &stubReader{})
	req := httptest.NewRequest(http.MethodGet, "/scrape/run", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestScrapeRun_RunnerError(t *testing.T) {
	mux := newTestMux(&stubRunner{err: errors.New("db down")}, &stubReader{})
	req := httptest.NewRequest(http.MethodPost, "/scrape/run", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestProcessRun(t *testing.T) {
	runner := &stubRunner{enrichment: pipeline.EnrichmentResult{Processed: 2}}
	mux := newTestMux(runner, &stubReader{})

	req := httptest.NewRequest(http.MethodPost, "/process/run", strings.NewReader(`{"batch_size":7}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if runner.gotBatchSize != 7 {
		t.Errorf("batch size = %d, want 7", runner.gotBatchSize)
	}
}

func TestJobs(t *testing.T) {
	reader := &stubReader{jobs: []model.Job{{ID: "job-1", SourceName: "S1", Status: job.StatusCompleted}}}
	mux := newTestMux(&stubRunner{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/jobs?limit=5", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []model.Job
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].SourceName != "S1" {
		t.Errorf("response = %+v", out)
	}
}

func TestJobs_EmptyIsArray(t *testing.T) {
	mux := newTestMux(&stubRunner{}, &stubReader{})
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestOpportunities_Filter(t *testing.T) {
	reader := &stubReader{}
	mux := newTestMux(&stubRunner{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/opportunities?county=Nairobi&asset_type=vehicle&status=new&min_profit=100000&limit=20", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := store.OpportunityFilter{County: "Nairobi", AssetType: "vehicle", Status: "new", MinProfit: 100_000, Limit: 20}
	if reader.gotFilter != want {
		t.Errorf("filter = %+v, want %+v", reader.gotFilter, want)
	}
}

func TestOpportunities_BadQuery(t *testing.T) {
	mux := newTestMux(&stubRunner{}, &stubReader{})

	for _, target := range []string{
		"/opportunities?min_profit=lots",
		"/opportunities?limit=many",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestOpportunities_ReaderError(t *testing.T) {
	mux := newTestMux(&stubRunner{}, &stubReader{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/opportunities", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
