// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/report-engine/internal/httputil"
	"github.com/pdiddy/report-engine/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Package-level var for test
// substitution.
var tavilyAPIURL = "https://api.tavily.com/search"

const (
	tavilyDefaultCount = 10
	tavilyMaxCount     = 20
	tavilyRateLimit    = 2.0 // requests per second
)

// Tavily is the priority search provider: an LLM-oriented search API that
// returns title/url/content triples in relevance order.
type Tavily struct {
	apiKey     string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewTavily returns a rate-limited Tavily client. cfg.Timeout and
// cfg.RateLimit fall back to sane defaults when zero.
func NewTavily(apiKey string, cfg types.SearchConfig) *Tavily {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = tavilyRateLimit
	}
	return &Tavily{
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: cfg.MaxRetries,
	}
}

// Name implements Provider.
func (t *Tavily) Name() string { return "tavily" }

// tavilyRequest is the POST body for the Tavily search API.
type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

// tavilyResponse is the Tavily search API response envelope.
type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search implements Provider.
func (t *Tavily) Search(ctx context.Context, query string, count int) ([]types.SearchResult, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("tavily API key not configured")
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		MaxResults:  clampCount(count, tavilyDefaultCount, tavilyMaxCount),
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, t.client, req, t.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned %d: %s", resp.StatusCode, data)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}
	return results, nil
}
