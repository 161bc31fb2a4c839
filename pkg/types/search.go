// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchResult is one web source candidate returned by a search provider.
// Results arrive in relevance order; the orchestrator turns candidate order
// into local citation order ([Ref-1]..[Ref-N]).
type SearchResult struct {
	// Title is the page title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// URL is the page location. Sources with an empty URL are never cited.
	URL string `json:"url" yaml:"url"`

	// Snippet is the provider's content excerpt for prompt context.
	Snippet string `json:"snippet" yaml:"snippet"`
}
