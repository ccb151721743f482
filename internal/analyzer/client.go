// Package analyzer wraps the OpenAI-compatible chat completion gateway that
// extracts structured valuation data from listing page content.
package analyzer

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

	"flipscout/ingestion-service/internal/model"
)

const (
	defaultBaseURL     = "https://ai.gateway.lovable.dev/v1"
	defaultModel       = "google/gemini-2.5-flash"
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 45 * time.Second
)

// Client wraps the chat completion API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the analyzer client.
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

// WithModel overrides the default model identifier.
func WithModel(m string) Option {
	return func(c *Client) {
		if strings.TrimSpace(m) != "" {
			c.model = m
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

// NewClient constructs an analyzer client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Extraction is the best-effort structured description of a listing. Every
// field is optional; downstream code supplies defensive defaults.
type Extraction struct {
	AssetType                  string                            `json:"asset_type"`
	Title                      string                            `json:"title"`
	Description                string                            `json:"description"`
	ListedPrice                float64                           `json:"listed_price"`
	EstimatedValue             float64                           `json:"estimated_value"`
	County                     string                            `json:"county"`
	City                       *string                           `json:"city"`
	SellerName                 *string                           `json:"seller_name"`
	SellerContact              *string                           `json:"seller_contact"`
	AIConfidenceScore          float64                           `json:"ai_confidence_score"`
	ImprovementRecommendations []model.ImprovementRecommendation `json:"improvement_recommendations"`

	// Raw holds the verbatim model output for audit storage.
	Raw string `json:"-"`
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze asks the model to extract structured listing data, calibrated by
// the supplied regional pricing sample. It returns an error for transport
// failures and for responses that cannot be parsed as the expected JSON
// shape; callers are expected to fall back to defensive defaults.
func (c *Client) Analyze(ctx context.Context, content string, pricing []model.RegionalPricing) (*Extraction, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("analyzer: content required")
	}
	if c.apiKey == "" {
		return nil, errors.New("analyzer: api key required")
	}

	reqBody := chatCompletionRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: buildPrompt(content, pricing)}},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: jsonResponseType},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("analyzer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("analyzer: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("analyzer: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("analyzer: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("analyzer: decode response: %w", err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("analyzer: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("analyzer: empty choices")
	}

	return ParseExtraction(completion.Choices[0].Message.Content)
}

// ParseExtraction decodes the model's message content into an Extraction,
// tolerating markdown code fences and clamping out-of-range values.
func ParseExtraction(content string) (*Extraction, error) {
	content = stripCodeFence(content)
	if content == "" {
		return nil, errors.New("analyzer: empty content")
	}

	var parsed Extraction
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("analyzer: parse payload: %w", err)
	}
	parsed.Raw = content

	parsed.AssetType = strings.ToLower(strings.TrimSpace(parsed.AssetType))
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.County = strings.TrimSpace(parsed.County)
	if parsed.AIConfidenceScore < 0 {
		parsed.AIConfidenceScore = 0
	}
	if parsed.AIConfidenceScore > 100 {
		parsed.AIConfidenceScore = 100
	}
	for i := range parsed.ImprovementRecommendations {
		rec := &parsed.ImprovementRecommendations[i]
		rec.Priority = model.NormalizePriority(strings.ToLower(string(rec.Priority)))
		if rec.EstimatedCost < 0 {
			rec.EstimatedCost = 0
		}
	}
	return &parsed, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block when present.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
