package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flipscout/ingestion-service/internal/analyzer"
	"flipscout/ingestion-service/internal/crawler"
	"flipscout/ingestion-service/internal/job"
	"flipscout/ingestion-service/internal/model"
)

// ── In-memory store ────────────────────────────────────────────────────────

type fakeStore struct {
	mu sync.Mutex

	sources       []model.Source
	jobs          map[string]*model.Job
	listings      []*model.RawListing
	pricing       []model.RegionalPricing
	opportunities map[string]model.Opportunity
	touched       map[string]int

	failCreateJob   bool
	failInsert      bool
	failUnprocessed bool
	denyClaims      bool

	jobSeq     int
	listingSeq int
	oppSeq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:          make(map[string]*model.Job),
		opportunities: make(map[string]model.Opportunity),
		touched:       make(map[string]int),
	}
}

func (s *fakeStore) ActiveSources(_ context.Context, sourceID string) ([]model.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Source
	for _, src := range s.sources {
		if !src.IsActive {
			continue
		}
		if sourceID != "" && src.ID != sourceID {
			continue
		}
		out = append(out, src)
	}
	return out, nil
}

func (s *fakeStore) CreateJob(_ context.Context, sourceID string) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateJob {
		return model.Job{}, errors.New("create job refused")
	}
	s.jobSeq++
	j := &model.Job{
		ID:        fmt.Sprintf("job-%d", s.jobSeq),
		SourceID:  sourceID,
		Status:    job.StatusRunning,
		StartedAt: time.Now(),
	}
	s.jobs[j.ID] = j
	return *j, nil
}

func (s *fakeStore) CompleteJob(_ context.Context, jobID string, itemsFound int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || j.Status != job.StatusRunning {
		return fmt.Errorf("job %s not running", jobID)
	}
	now := time.Now()
	j.Status = job.StatusCompleted
	j.CompletedAt = &now
	j.ItemsFound = itemsFound
	return nil
}

func (s *fakeStore) FailJob(_ context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || j.Status != job.StatusRunning {
		return fmt.Errorf("job %s not running", jobID)
	}
	now := time.Now()
	j.Status = job.StatusFailed
	j.CompletedAt = &now
	j.ErrorMessage = &message
	return nil
}

func (s *fakeStore) InsertRawListings(_ context.Context, listings []model.NewRawListing) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return 0, 0, errors.New("insert refused")
	}
	inserted, duplicates := 0, 0
	for _, nl := range listings {
		if s.hasURL(nl.SourceURL) {
			duplicates++
			continue
		}
		s.listingSeq++
		s.listings = append(s.listings, &model.RawListing{
			ID:        fmt.Sprintf("listing-%d", s.listingSeq),
			JobID:     nl.JobID,
			SourceURL: nl.SourceURL,
			RawData:   nl.RawData,
			CreatedAt: time.Now(),
		})
		inserted++
	}
	return inserted, duplicates, nil
}

func (s *fakeStore) hasURL(url string) bool {
	for _, l := range s.listings {
		if l.SourceURL == url {
			return true
		}
	}
	return false
}

func (s *fakeStore) TouchSourceScraped(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[sourceID]++
	return nil
}

func (s *fakeStore) UnprocessedListings(_ context.Context, limit int) ([]model.RawListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUnprocessed {
		return nil, errors.New("queue unavailable")
	}
	var out []model.RawListing
	for _, l := range s.listings {
		if l.Processed {
			continue
		}
		out = append(out, *l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) RegionalPricingSample(_ context.Context, limit int) ([]model.RegionalPricing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pricing) > limit {
		return s.pricing[:limit], nil
	}
	return s.pricing, nil
}

func (s *fakeStore) MaterializeOpportunity(_ context.Context, listing model.RawListing, parsed []byte, opp model.Opportunity) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denyClaims {
		return "", false, nil
	}
	for _, l := range s.listings {
		if l.ID != listing.ID {
			continue
		}
		if l.Processed {
			return "", false, nil
		}
		s.oppSeq++
		oppID := fmt.Sprintf("opp-%d", s.oppSeq)
		l.Processed = true
		l.ParsedData = parsed
		l.OpportunityID = &oppID
		if j, ok := s.jobs[l.JobID]; ok {
			j.ItemsProcessed++
		}
		opp.ID = oppID
		s.opportunities[oppID] = opp
		return oppID, true, nil
	}
	return "", false, fmt.Errorf("listing %s not found", listing.ID)
}

func (s *fakeStore) listingByURL(url string) *model.RawListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.SourceURL == url {
			return l
		}
	}
	return nil
}

func (s *fakeStore) singleOpportunity() model.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opp := range s.opportunities {
		return opp
	}
	return model.Opportunity{}
}

// ── Crawler fakes ──────────────────────────────────────────────────────────

type fakeMapper struct {
	mu    sync.Mutex
	links map[string][]string
	fail  map[string]error
	calls []string
}

func newFakeMapper() *fakeMapper {
	return &fakeMapper{links: make(map[string][]string), fail: make(map[string]error)}
}

func (m *fakeMapper) MapSite(_ context.Context, req crawler.MapRequest) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.URL)
	if err, ok := m.fail[req.URL]; ok {
		return nil, err
	}
	return m.links[req.URL], nil
}

type fakeRetriever struct {
	mu    sync.Mutex
	pages map[string]*crawler.Page
	fail  map[string]error
}

func newFakeRetriever() *fakeRetriever {
	return &fakeRetriever{pages: make(map[string]*crawler.Page), fail: make(map[string]error)}
}

func (r *fakeRetriever) Retrieve(_ context.Context, url string) (*crawler.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[url]; ok {
		return nil, err
	}
	if page, ok := r.pages[url]; ok {
		return page, nil
	}
	return &crawler.Page{Markdown: "generic listing content", Title: "Generic Page"}, nil
}

// ── Analyzer / notifier fakes ──────────────────────────────────────────────

type fakeAnalyzer struct {
	mu         sync.Mutex
	extraction *analyzer.Extraction
	err        error
	contents   []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, content string, _ []model.RegionalPricing) (*analyzer.Extraction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contents = append(a.contents, content)
	if a.err != nil {
		return nil, a.err
	}
	return a.extraction, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []model.Opportunity
	err    error
}

func (n *fakeNotifier) OpportunityCreated(_ context.Context, opp model.Opportunity) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, opp)
	return nil
}
