// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the report-engine pipeline.
package types

// ChapterSpec describes one chapter of a report outline. Specs are produced
// by the outline stage and consumed in order; slice order is document order.
type ChapterSpec struct {
	// Title is the chapter heading (e.g. "1. 行业宏观概况").
	Title string `json:"title" yaml:"title"`

	// Focus is the keyword hint driving this chapter's search and generation.
	Focus string `json:"focus" yaml:"focus"`
}

// Outline holds the report structure, loadable from outline.yaml.
type Outline struct {
	// Topic is the report subject the outline was generated for.
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`

	// Chapters lists the report's chapters in document order.
	Chapters []ChapterSpec `json:"chapters" yaml:"chapters"`
}

// LocalReference is a citation scoped to a single chapter's generation
// output. Local tags restart at [Ref-1] in every chapter and may repeat
// URLs seen elsewhere.
type LocalReference struct {
	// LocalID is the chapter-scoped citation tag, e.g. "[Ref-3]".
	LocalID string `json:"id" yaml:"id"`

	// URL is the cited source location.
	URL string `json:"url" yaml:"url"`

	// Title is the cited source title.
	Title string `json:"title" yaml:"title"`
}

// GlobalReference is a deduplicated, document-wide citation. Exactly one
// exists per unique non-empty URL; it is never mutated after creation.
type GlobalReference struct {
	// ID is the 1-based global citation number, assigned in first-seen order.
	ID int `json:"id" yaml:"id"`

	// URL is the deduplication key.
	URL string `json:"url" yaml:"url"`

	// Title is the first-seen title for this URL.
	Title string `json:"title" yaml:"title"`
}

// ChapterResult is one assembled chapter: its heading plus a body whose
// citation markers have already been rewritten to global IDs.
type ChapterResult struct {
	// Title is the chapter heading from the outline.
	Title string `json:"title" yaml:"title"`

	// Body is the rewritten chapter text.
	Body string `json:"body" yaml:"body"`

	// Failed reports whether this chapter's body is a failure placeholder.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`
}
