// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/pkg/types"
)

// outlinePromptTmpl asks the model for a JSON chapter array.
var outlinePromptTmpl = template.Must(template.New("outline").Parse(`请为以下主题生成一份详细的行业分析报告大纲：

主题：{{.Topic}}

要求：
1. 生成 4-6 个章节
2. 每个章节有明确的标题和研究重点
3. 章节之间逻辑递进，覆盖行业分析的核心维度
4. 输出 JSON 数组格式

输出格式（严格遵守）：
[
  {"title": "1. 章节标题", "focus": "本章研究重点关键词"},
  {"title": "2. 章节标题", "focus": "本章研究重点关键词"},
  ...
]

只输出 JSON 数组，不要其他内容。`))

// jsonArrayRe locates the first JSON array in model output that may be
// wrapped in prose or code fences.
var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

// GenerateOutline asks the backend for a chapter outline. If the call fails
// or the response contains no usable JSON array, the deterministic default
// outline is returned instead; outline quality is best-effort, outline
// presence is not.
func GenerateOutline(ctx context.Context, b Backend, topic string) ([]types.ChapterSpec, error) {
	var prompt strings.Builder
	if err := outlinePromptTmpl.Execute(&prompt, struct{ Topic string }{topic}); err != nil {
		return nil, fmt.Errorf("rendering outline prompt: %w", err)
	}

	raw, err := b.Complete(ctx, prompt.String())
	if err != nil {
		return DefaultOutline(topic), nil
	}

	chapters, err := ParseOutlineJSON(raw)
	if err != nil {
		return DefaultOutline(topic), nil
	}
	return chapters, nil
}

// ParseOutlineJSON extracts the chapter array from raw model output.
func ParseOutlineJSON(raw string) ([]types.ChapterSpec, error) {
	match := jsonArrayRe.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in outline response")
	}

	var chapters []types.ChapterSpec
	if err := json.Unmarshal([]byte(match), &chapters); err != nil {
		return nil, fmt.Errorf("parsing outline JSON: %w", err)
	}

	var valid []types.ChapterSpec
	for _, ch := range chapters {
		if strings.TrimSpace(ch.Title) == "" {
			continue
		}
		valid = append(valid, ch)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("outline response contains no titled chapters")
	}
	return valid, nil
}

// DefaultOutline is the fixed five-chapter structure used when outline
// generation fails.
func DefaultOutline(topic string) []types.ChapterSpec {
	return []types.ChapterSpec{
		{Title: "1. 行业宏观概况", Focus: topic + " 市场规模 发展历程 政策环境"},
		{Title: "2. 竞争格局分析", Focus: topic + " 主要企业 市场份额 竞争态势"},
		{Title: "3. 技术发展趋势", Focus: topic + " 核心技术 创新突破 技术瓶颈"},
		{Title: "4. 消费者与市场洞察", Focus: topic + " 用户画像 消费趋势 需求痛点"},
		{Title: "5. 未来展望与建议", Focus: topic + " 发展预测 投资机会 战略建议"},
	}
}

// LoadOutlineFile reads an outline from a YAML file.
func LoadOutlineFile(path string) (*types.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	var outline types.Outline
	if err := yaml.Unmarshal(data, &outline); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}
	if len(outline.Chapters) == 0 {
		return nil, fmt.Errorf("outline %s has no chapters", path)
	}
	return &outline, nil
}

// SaveOutlineFile writes an outline as YAML.
func SaveOutlineFile(path string, outline *types.Outline) error {
	data, err := yaml.Marshal(outline)
	if err != nil {
		return fmt.Errorf("marshaling outline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}
	return nil
}
