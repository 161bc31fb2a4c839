// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble builds the final report document: it deduplicates
// references across chapters, rewrites chapter-local citation markers to
// globally unique IDs, and drives the sequential chapter loop.
package assemble

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

// markerRe matches in-body citation markers: [Ref-1], [Ref-12], ...
var markerRe = regexp.MustCompile(`\[Ref-\d+\]`)

// untitled is the bibliography title used when a reference carries none.
const untitled = "无标题"

// Manager accumulates references across chapters, keyed by URL. Each unique
// non-empty URL receives one global ID, assigned in first-seen order; a
// re-encountered URL reuses its ID and keeps its first-seen title. One
// Manager serves exactly one report run. It is not safe for concurrent use
// and ProcessChapter must be called in document order.
type Manager struct {
	urlToID map[string]int
	nextID  int
	refs    []types.GlobalReference
}

// NewManager returns an empty Manager ready for the first chapter.
func NewManager() *Manager {
	return &Manager{
		urlToID: make(map[string]int),
		nextID:  1,
	}
}

// ProcessChapter registers a chapter's local references and returns the body
// with every mapped [Ref-N] marker rewritten to its global ID.
//
// Local references with an empty tag or empty URL are skipped: they are
// never promoted to the bibliography and their markers stay as-is. Markers
// in the body with no entry in localRefs also pass through verbatim; a
// best-effort generator citing sources it was never given is tolerated,
// not an error.
func (m *Manager) ProcessChapter(body string, localRefs []types.LocalReference) string {
	localToGlobal := make(map[string]string, len(localRefs))

	for _, ref := range localRefs {
		if ref.LocalID == "" || ref.URL == "" {
			continue
		}

		id, ok := m.urlToID[ref.URL]
		if !ok {
			id = m.nextID
			m.nextID++
			m.urlToID[ref.URL] = id

			title := ref.Title
			if title == "" {
				title = untitled
			}
			m.refs = append(m.refs, types.GlobalReference{ID: id, URL: ref.URL, Title: title})
		}

		localToGlobal[ref.LocalID] = fmt.Sprintf("[Ref-%d]", id)
	}

	return markerRe.ReplaceAllStringFunc(body, func(tag string) string {
		if global, ok := localToGlobal[tag]; ok {
			return global
		}
		return tag
	})
}

// Bibliography renders the accumulated references as a Markdown section, one
// line per reference in assignment order. It returns the empty string when no
// references exist and is idempotent between ProcessChapter calls.
func (m *Manager) Bibliography() string {
	if len(m.refs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n---\n\n## 参考文献 (References)\n")
	for _, ref := range m.refs {
		fmt.Fprintf(&b, "\n- [Ref-%d] %s, 链接: %s", ref.ID, ref.Title, ref.URL)
	}
	return b.String()
}

// Count returns the number of unique references seen so far.
func (m *Manager) Count() int {
	return len(m.refs)
}

// References returns a copy of the accumulated references in assignment order.
func (m *Manager) References() []types.GlobalReference {
	out := make([]types.GlobalReference, len(m.refs))
	copy(out, m.refs)
	return out
}
