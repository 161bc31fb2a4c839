// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import "strings"

// Summarize produces a short running summary of a chapter body for the next
// chapter's generation context. It takes non-blank lines from the top until
// the rune budget is spent, joins them with spaces, and appends an ellipsis.
// Limits are rune counts so CJK text is not cut mid-character.
func Summarize(body string, limit int) string {
	if limit <= 0 || body == "" {
		return ""
	}

	var picked []string
	length := 0

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := len([]rune(line))
		if length+runes > limit {
			break
		}
		picked = append(picked, line)
		length += runes
	}

	// Nothing fit whole: truncate the first non-blank line instead of
	// returning an empty summary.
	if len(picked) == 0 {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				return string([]rune(line)[:limit]) + "..."
			}
		}
		return ""
	}

	summary := strings.Join(picked, " ")
	if r := []rune(summary); len(r) > limit {
		summary = string(r[:limit])
	}
	return summary + "..."
}
