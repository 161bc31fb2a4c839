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

// bochaAPIURL is the Bocha AI search endpoint. Package-level var for test
// substitution.
var bochaAPIURL = "https://api.bocha.cn/v1/ai-search"

const (
	bochaDefaultCount = 10
	bochaMaxCount     = 50
)

// Bocha is the fallback search provider. The non-stream AI search response
// wraps webpage sources inside a messages envelope whose content fields are
// JSON-encoded strings.
type Bocha struct {
	apiKey     string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewBocha returns a rate-limited Bocha client.
func NewBocha(apiKey string, cfg types.SearchConfig) *Bocha {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = tavilyRateLimit
	}
	return &Bocha{
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: cfg.MaxRetries,
	}
}

// Name implements Provider.
func (b *Bocha) Name() string { return "bocha" }

// bochaRequest is the POST body for the Bocha AI search API.
type bochaRequest struct {
	Query     string `json:"query"`
	Freshness string `json:"freshness"`
	Answer    bool   `json:"answer"`
	Stream    bool   `json:"stream"`
	Count     int    `json:"count"`
}

// bochaResponse is the non-stream response envelope.
type bochaResponse struct {
	Code     int            `json:"code"`
	Msg      string         `json:"msg"`
	Messages []bochaMessage `json:"messages"`
}

// bochaMessage is one entry in the response envelope. For webpage sources
// Content holds a JSON-encoded page object or page list.
type bochaMessage struct {
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// bochaPage is a single webpage source.
type bochaPage struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// bochaPageList is the list form of webpage content.
type bochaPageList struct {
	Value []bochaPage `json:"value"`
}

// Search implements Provider.
func (b *Bocha) Search(ctx context.Context, query string, count int) ([]types.SearchResult, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("bocha API key not configured")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(bochaRequest{
		Query:     query,
		Freshness: "noLimit",
		Answer:    false,
		Stream:    false,
		Count:     clampCount(count, bochaDefaultCount, bochaMaxCount),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bochaAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, b.client, req, b.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling bocha: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bocha returned %d: %s", resp.StatusCode, data)
	}

	var parsed bochaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Code != 0 && parsed.Code != http.StatusOK {
		return nil, fmt.Errorf("bocha error %d: %s", parsed.Code, parsed.Msg)
	}

	var results []types.SearchResult
	for _, msg := range parsed.Messages {
		if msg.Type != "source" || msg.ContentType != "webpage" {
			continue
		}
		for _, page := range parsePages(msg.Content) {
			if page.URL == "" {
				continue
			}
			results = append(results, types.SearchResult{
				Title:   page.Name,
				URL:     page.URL,
				Snippet: page.Snippet,
			})
		}
	}
	return results, nil
}

// parsePages decodes webpage content, accepting a single page object, a bare
// page array, or a {value: [...]} wrapper. Undecodable content is skipped.
func parsePages(content string) []bochaPage {
	data := []byte(content)

	var list bochaPageList
	if err := json.Unmarshal(data, &list); err == nil && len(list.Value) > 0 {
		return list.Value
	}

	var pages []bochaPage
	if err := json.Unmarshal(data, &pages); err == nil {
		return pages
	}

	var page bochaPage
	if err := json.Unmarshal(data, &page); err == nil && page.URL != "" {
		return []bochaPage{page}
	}

	return nil
}
