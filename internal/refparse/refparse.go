// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refparse splits raw chapter output into a content body and a list
// of structured local references. The generation provider is asked to emit a
// ---REFS--- block but is a best-effort LLM; refparse degrades through a
// structured grammar parse, then regex extraction, then an identity fallback,
// and never fails on malformed input.
package refparse

import (
	"regexp"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Separator divides a chapter's body from its references block.
const Separator = "---REFS---"

// UntitledSource is the placeholder title for references extracted without one.
const UntitledSource = "参考来源"

// Fallback extraction patterns, tried in order. The titled pattern wins:
// the bare-URL pattern is consulted only when the titled pattern matches
// nothing in the whole text.
var (
	// titledRefRe matches "[Ref-N] Title, 链接: URL".
	titledRefRe = regexp.MustCompile(`\[Ref-(\d+)\]\s*([^,\n]+),?\s*链接:\s*(https?://[^\s\n]+)`)

	// bareRefRe matches "[Ref-N] URL" with no title.
	bareRefRe = regexp.MustCompile(`\[Ref-(\d+)\]\s*(https?://[^\s\n]+)`)
)

// Parse splits one chapter's raw generated text into a trimmed content body
// and its local references.
//
// If raw contains the ---REFS--- separator, everything before it is the body
// and the block after it is parsed as pipe-delimited reference lines. Without
// a separator the whole text (trimmed) is the body and references are
// recovered by regex extraction; if that finds nothing the chapter simply has
// zero citations. Parse never returns an error.
func Parse(raw string) (string, []types.LocalReference) {
	if !strings.Contains(raw, Separator) {
		return strings.TrimSpace(raw), ExtractFromText(raw)
	}

	parts := strings.SplitN(raw, Separator, 2)
	body := strings.TrimSpace(parts[0])

	var refs []types.LocalReference
	for _, line := range strings.Split(parts[1], "\n") {
		if ref, ok := parseRefLine(line); ok {
			refs = append(refs, ref)
		}
	}
	return body, refs
}

// parseRefLine parses one "tag | url | title" line from the references block.
// Blank lines and lines with fewer than three fields are skipped, not errors.
func parseRefLine(line string) (types.LocalReference, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "|") {
		return types.LocalReference{}, false
	}

	fields := strings.Split(line, "|")
	if len(fields) < 3 {
		return types.LocalReference{}, false
	}

	return types.LocalReference{
		LocalID: strings.TrimSpace(fields[0]),
		URL:     strings.TrimSpace(fields[1]),
		Title:   strings.TrimSpace(fields[2]),
	}, true
}

// ExtractFromText recovers references from free-form text when the provider
// ignored the output grammar. It tries the titled pattern first and falls
// back to bare [Ref-N] URL matches only when no titled reference exists.
func ExtractFromText(text string) []types.LocalReference {
	var refs []types.LocalReference

	for _, m := range titledRefRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, types.LocalReference{
			LocalID: "[Ref-" + m[1] + "]",
			Title:   strings.TrimSpace(m[2]),
			URL:     strings.TrimSpace(m[3]),
		})
	}
	if len(refs) > 0 {
		return refs
	}

	for _, m := range bareRefRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, types.LocalReference{
			LocalID: "[Ref-" + m[1] + "]",
			Title:   UntitledSource,
			URL:     strings.TrimSpace(m[2]),
		})
	}
	return refs
}
