// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search APIs and returns ranked source candidates.
// Providers implement a common interface; a Chain tries them in priority
// order so a failing provider degrades to the next instead of failing the
// chapter.
package search

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Provider searches a single web search API.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]types.SearchResult, error)
}

// Chain tries providers in order and returns the first provider's results.
// A provider error falls through to the next provider; an empty result set
// from a healthy provider is a valid "no results" answer and stops the
// chain. Warnings for skipped providers go to w.
type Chain struct {
	Providers []Provider
	Warnings  io.Writer
}

// NewChain builds a chain over the given providers. Nil providers are
// skipped so callers can pass conditionally-constructed entries.
func NewChain(w io.Writer, providers ...Provider) *Chain {
	c := &Chain{Warnings: w}
	for _, p := range providers {
		if p != nil {
			c.Providers = append(c.Providers, p)
		}
	}
	return c
}

// Search runs the query through the chain. It returns an error only when
// every provider fails; any successful provider response, including an empty
// one, wins.
func (c *Chain) Search(ctx context.Context, query string, count int) ([]types.SearchResult, error) {
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}

	var errs []error
	for _, p := range c.Providers {
		results, err := p.Search(ctx, query, count)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if c.Warnings != nil {
				fmt.Fprintf(c.Warnings, "warning: provider %s failed: %v\n", p.Name(), err)
			}
			continue
		}
		return results, nil
	}
	return nil, fmt.Errorf("all %d search providers failed: %v", len(c.Providers), errs)
}

// clampCount normalizes a requested result count against a provider maximum.
func clampCount(count, def, max int) int {
	if count <= 0 {
		count = def
	}
	if count > max {
		count = max
	}
	return count
}
