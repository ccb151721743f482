// Package crawler wraps the Firecrawl-compatible crawling API used for site
// mapping (URL discovery) and page retrieval (markdown content).
package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.firecrawl.dev"
	defaultHTTPTimeout = 30 * time.Second

	// The mapping API caps a single request at 100 links.
	maxMapLimit = 100
)

// Client calls the crawling service's /v1/map and /v1/scrape endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	country    string
	languages  []string
	httpClient *http.Client
}

// Option customizes the crawler client.
type Option func(*Client)

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLocale sets the country code and language hints attached to retrieval
// requests.
func WithLocale(country string, languages []string) Option {
	return func(c *Client) {
		if country != "" {
			c.country = country
		}
		if len(languages) > 0 {
			c.languages = languages
		}
	}
}

// NewClient constructs a crawler API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		country:    "KE",
		languages:  []string{"en", "sw"},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// MapRequest describes one site-mapping call.
type MapRequest struct {
	URL               string
	Search            string
	Limit             int
	IncludeSubdomains bool
}

type mapAPIRequest struct {
	URL               string `json:"url"`
	Search            string `json:"search,omitempty"`
	Limit             int    `json:"limit"`
	IncludeSubdomains bool   `json:"includeSubdomains"`
}

type mapAPIResponse struct {
	Success bool     `json:"success"`
	Links   []string `json:"links"`
	Error   string   `json:"error"`
}

// MapSite returns a bounded list of links discovered under req.URL.
func (c *Client) MapSite(ctx context.Context, req MapRequest) ([]string, error) {
	if c.apiKey == "" {
		return nil, errors.New("crawler map: api key required")
	}
	target := NormalizeURL(req.URL)
	if target == "" {
		return nil, &ValidationError{Msg: "URL is required"}
	}

	limit := req.Limit
	if limit <= 0 || limit > maxMapLimit {
		limit = maxMapLimit
	}

	var out mapAPIResponse
	if err := c.post(ctx, "/v1/map", mapAPIRequest{
		URL:               target,
		Search:            req.Search,
		Limit:             limit,
		IncludeSubdomains: req.IncludeSubdomains,
	}, &out); err != nil {
		return nil, fmt.Errorf("crawler map: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("crawler map: %s", apiErr(out.Error))
	}
	return out.Links, nil
}

// Page is the normalized result of retrieving one listing page.
type Page struct {
	Markdown string
	Title    string
}

type scrapeAPIRequest struct {
	URL             string         `json:"url"`
	Formats         []string       `json:"formats"`
	OnlyMainContent bool           `json:"onlyMainContent"`
	WaitFor         int            `json:"waitFor,omitempty"`
	Location        scrapeLocation `json:"location"`
}

type scrapeLocation struct {
	Country   string   `json:"country"`
	Languages []string `json:"languages"`
}

// scrapeAPIResponse tolerates both the nested (data.markdown) and flat
// (markdown) response shapes the service has shipped.
type scrapeAPIResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error"`
	Markdown string          `json:"markdown"`
	Metadata *scrapeMetadata `json:"metadata"`
	Data     *struct {
		Markdown string          `json:"markdown"`
		Metadata *scrapeMetadata `json:"metadata"`
	} `json:"data"`
}

type scrapeMetadata struct {
	Title string `json:"title"`
}

// Retrieve fetches one page as boilerplate-stripped markdown. The target URL
// is validated against private/internal address ranges before any request is
// dispatched.
func (c *Client) Retrieve(ctx context.Context, rawURL string) (*Page, error) {
	if c.apiKey == "" {
		return nil, errors.New("crawler scrape: api key required")
	}
	target := NormalizeURL(rawURL)
	if target == "" {
		return nil, &ValidationError{Msg: "URL is required"}
	}
	if err := ValidateTargetURL(target); err != nil {
		return nil, err
	}

	var out scrapeAPIResponse
	if err := c.post(ctx, "/v1/scrape", scrapeAPIRequest{
		URL:             target,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
		Location:        scrapeLocation{Country: c.country, Languages: c.languages},
	}, &out); err != nil {
		return nil, fmt.Errorf("crawler scrape: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("crawler scrape: %s", apiErr(out.Error))
	}

	page := &Page{Markdown: out.Markdown}
	if out.Metadata != nil {
		page.Title = out.Metadata.Title
	}
	if out.Data != nil {
		if out.Data.Markdown != "" {
			page.Markdown = out.Data.Markdown
		}
		if out.Data.Metadata != nil && out.Data.Metadata.Title != "" {
			page.Title = out.Data.Metadata.Title
		}
	}
	return page, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiErr(msg string) string {
	if msg == "" {
		return "request was not successful"
	}
	return msg
}
