// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/report-engine/internal/assemble"
	"github.com/pdiddy/report-engine/pkg/types"
)

// snippetLimit bounds each source snippet in the prompt, in runes.
const snippetLimit = 350

// chapterPromptTmpl asks the model for one chapter body followed by a
// ---REFS--- block. The model is best-effort; refparse tolerates deviations.
var chapterPromptTmpl = template.Must(template.New("chapter").Parse(`你正在撰写一份关于「{{.Topic}}」的深度分析报告。

{{if .PriorSummary}}【前文摘要】
{{.PriorSummary}}

{{end}}【当前任务】
撰写章节：{{.Title}}
核心关注点：{{.Focus}}

【写作要求】
1. 深度分析，内容详实，字数约 800-1200 字
2. 必须使用 [Ref-1], [Ref-2] 等格式进行引用标注
3. 引用必须来自下方搜索资料中的真实来源，禁止编造链接
4. 使用专业但易懂的语言，适合企业高管阅读

【输出格式】
先输出章节正文，然后用分隔符 "---REFS---" 隔开，最后列出本章参考文献：

[正文内容...]

---REFS---
[Ref-1] | https://真实URL | 标题
[Ref-2] | https://真实URL | 标题

【搜索资料】
以下是关于本章主题的搜索结果，请基于这些真实来源撰写内容：

{{.Sources}}`))

// chapterPromptData feeds chapterPromptTmpl.
type chapterPromptData struct {
	Topic        string
	PriorSummary string
	Title        string
	Focus        string
	Sources      string
}

// RenderChapterPrompt builds the full generation prompt for one chapter.
func RenderChapterPrompt(req assemble.ChapterRequest) (string, error) {
	var b strings.Builder
	err := chapterPromptTmpl.Execute(&b, chapterPromptData{
		Topic:        req.Topic,
		PriorSummary: req.PriorSummary,
		Title:        req.Chapter.Title,
		Focus:        req.Chapter.Focus,
		Sources:      formatSources(req.Sources),
	})
	if err != nil {
		return "", fmt.Errorf("rendering chapter prompt: %w", err)
	}
	return b.String(), nil
}

// formatSources renders search candidates as numbered prompt blocks. The
// [Ref-N] numbering here is the numbering the assembler later treats as
// authoritative, so order must match the candidate slice.
func formatSources(sources []types.SearchResult) string {
	if len(sources) == 0 {
		return "（未找到相关搜索结果，请基于专业知识进行分析，并避免使用引用标注。）"
	}

	blocks := make([]string, 0, len(sources))
	for i, s := range sources {
		blocks = append(blocks, fmt.Sprintf("来源 [Ref-%d]\n标题: %s\n内容: %s\n链接: %s",
			i+1, s.Title, truncateRunes(s.Snippet, snippetLimit), s.URL))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// truncateRunes shortens s to at most limit runes, appending an ellipsis
// when truncated.
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// NewChapterFunc adapts a Backend into the assembler's generation
// collaborator.
func NewChapterFunc(b Backend) assemble.GenerateFunc {
	return func(ctx context.Context, req assemble.ChapterRequest) (string, error) {
		prompt, err := RenderChapterPrompt(req)
		if err != nil {
			return "", err
		}
		return b.Complete(ctx, prompt)
	}
}
