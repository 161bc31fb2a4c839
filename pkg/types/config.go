// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the web search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the number of source candidates fetched per chapter (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// TavilyAPIKey authenticates against the Tavily search API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// BochaAPIKey authenticates against the Bocha AI search API.
	BochaAPIKey string `json:"bocha_api_key,omitempty" yaml:"bocha_api_key,omitempty"`

	// RateLimit is the per-provider request rate in requests per second (default 2).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// MaxRetries is the number of retry attempts on rate-limited responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model or endpoint identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the OpenAI-compatible API base URL
	// (e.g. "https://ark.cn-beijing.volces.com/api/v3").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxTokens caps the completion length per call (default 2000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the per-call request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// GenerationConfig holds settings for chapter generation and assembly.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// SearchCount is the number of sources supplied to each chapter (default 10).
	SearchCount int `json:"search_count" yaml:"search_count"`

	// SummaryLimit bounds the carried-forward chapter summary in runes (default 200).
	SummaryLimit int `json:"summary_limit" yaml:"summary_limit"`

	// OutputDir is the directory for assembled reports (e.g. "output/reports/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ArchiveConfig holds settings for the report archive.
type ArchiveConfig struct {
	// ArchiveDir is the base directory for the archive database (contains index/).
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of archive search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive"`
}
