// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/report-engine/internal/refparse"
	"github.com/pdiddy/report-engine/pkg/types"
)

// SearchFunc fetches ranked source candidates for one chapter. An empty
// result slice is a valid "no results" response, not an error.
type SearchFunc func(ctx context.Context, query string, count int) ([]types.SearchResult, error)

// GenerateFunc produces one chapter's raw text. Implementations are asked
// for the ---REFS--- output grammar but may ignore it; the parser copes.
type GenerateFunc func(ctx context.Context, req ChapterRequest) (string, error)

// ChapterRequest carries everything the generation collaborator needs for
// one chapter call.
type ChapterRequest struct {
	// Topic is the overall report subject.
	Topic string

	// Chapter is the outline entry being written.
	Chapter types.ChapterSpec

	// PriorSummary is the bounded running summary of preceding chapters.
	PriorSummary string

	// Sources are the search candidates, in the order that defines the
	// chapter's local citation numbering ([Ref-1] is Sources[0]).
	Sources []types.SearchResult
}

// Options tunes report assembly. The zero value is usable.
type Options struct {
	// SearchCount is the number of source candidates requested per chapter
	// (default 10).
	SearchCount int

	// SummaryLimit bounds the carried-forward summary in runes (default 200).
	SummaryLimit int

	// CallTimeout is the timeout applied to each search and generation call
	// (default 2m). A timed-out call fails that chapter only.
	CallTimeout time.Duration

	// Progress, when non-nil, receives human-readable status lines. It must
	// not block; it is invoked synchronously between pipeline steps.
	Progress func(string)
}

const (
	defaultSearchCount  = 10
	defaultSummaryLimit = 200
	defaultCallTimeout  = 2 * time.Minute
)

// AssembleReport generates a complete report: for each outline chapter, in
// document order, it fetches sources, generates the chapter text, rewrites
// its citations to global IDs through one shared Manager, and appends the
// chapter under its heading. The unified bibliography follows the last
// chapter.
//
// References embedded in the generator's own output are discarded; the
// authoritative local reference list is built from the search candidates the
// generator was actually given, so every citation resolves to a real,
// caller-verified URL.
//
// Failures of a single chapter's search or generation calls are absorbed:
// the chapter appears under its heading with a visible failure placeholder
// and contributes no references. An empty outline, nil collaborators, or
// every chapter failing are fatal and return an error. Cancellation is
// checked between chapters; a cancelled run returns the chapters assembled
// so far plus their bibliography, together with ctx.Err().
func AssembleReport(ctx context.Context, topic string, outline []types.ChapterSpec, search SearchFunc, generate GenerateFunc, opts Options) (string, error) {
	if len(outline) == 0 {
		return "", fmt.Errorf("assembling report %q: outline is empty", topic)
	}
	if search == nil || generate == nil {
		return "", fmt.Errorf("assembling report %q: search and generate collaborators are required", topic)
	}

	if opts.SearchCount <= 0 {
		opts.SearchCount = defaultSearchCount
	}
	if opts.SummaryLimit <= 0 {
		opts.SummaryLimit = defaultSummaryLimit
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	progress := opts.Progress
	if progress == nil {
		progress = func(string) {}
	}

	var (
		doc      strings.Builder
		manager  = NewManager()
		summary  string
		failures int
		canceled bool
	)

	for i, chapter := range outline {
		if ctx.Err() != nil {
			progress(fmt.Sprintf("run cancelled after %d/%d chapters", i, len(outline)))
			canceled = true
			break
		}

		progress(fmt.Sprintf("chapter %d/%d started: %s", i+1, len(outline), chapter.Title))

		body, refs, err := buildChapter(ctx, topic, chapter, summary, search, generate, opts)
		if err != nil {
			failures++
			progress(fmt.Sprintf("chapter %d/%d failed: %v", i+1, len(outline), err))
			body = fmt.Sprintf("[章节生成失败: %v]", err)
			refs = nil
		}

		before := manager.Count()
		rewritten := manager.ProcessChapter(body, refs)
		doc.WriteString("## " + chapter.Title + "\n\n" + rewritten + "\n\n")

		if err == nil {
			// Failed chapters do not pollute the running summary.
			summary = Summarize(rewritten, opts.SummaryLimit)
			progress(fmt.Sprintf("chapter %d/%d done (%d sources, %d new refs)",
				i+1, len(outline), len(refs), manager.Count()-before))
		}
	}

	if failures == len(outline) {
		return "", fmt.Errorf("assembling report %q: all %d chapters failed", topic, failures)
	}

	doc.WriteString(manager.Bibliography())

	if canceled {
		return doc.String(), ctx.Err()
	}

	progress(fmt.Sprintf("report assembled: %d chapters, %d unique references", len(outline), manager.Count()))
	return doc.String(), nil
}

// buildChapter runs one chapter's search and generation calls, parses the
// raw output, and returns the body plus the authoritative local references
// derived from the supplied sources.
func buildChapter(ctx context.Context, topic string, chapter types.ChapterSpec, priorSummary string, search SearchFunc, generate GenerateFunc, opts Options) (string, []types.LocalReference, error) {
	query := strings.TrimSpace(topic + " " + chapter.Focus)

	searchCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	sources, err := search(searchCtx, query, opts.SearchCount)
	cancel()
	if err != nil {
		return "", nil, fmt.Errorf("search: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	raw, err := generate(genCtx, ChapterRequest{
		Topic:        topic,
		Chapter:      chapter,
		PriorSummary: priorSummary,
		Sources:      sources,
	})
	cancel()
	if err != nil {
		return "", nil, fmt.Errorf("generation: %w", err)
	}

	// The generator's own reference block is untrusted; only the body
	// survives. Citations are bound to the sources the generator saw.
	body, _ := refparse.Parse(raw)
	return body, SourceReferences(sources), nil
}

// SourceReferences converts search candidates into the chapter's local
// reference list: candidate order defines tag order, [Ref-1]..[Ref-N].
func SourceReferences(sources []types.SearchResult) []types.LocalReference {
	refs := make([]types.LocalReference, 0, len(sources))
	for i, s := range sources {
		refs = append(refs, types.LocalReference{
			LocalID: fmt.Sprintf("[Ref-%d]", i+1),
			URL:     s.URL,
			Title:   s.Title,
		})
	}
	return refs
}
