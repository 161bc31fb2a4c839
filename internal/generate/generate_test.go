// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/report-engine/internal/assemble"
	"github.com/pdiddy/report-engine/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	response string
	err      error
	prompts  []string
}

func (m *mockBackend) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// --- chapter prompt ---

func TestRenderChapterPrompt(t *testing.T) {
	req := assemble.ChapterRequest{
		Topic:        "新能源汽车",
		PriorSummary: "前一章讨论了市场规模。",
		Chapter:      types.ChapterSpec{Title: "2. 竞争格局", Focus: "市场份额"},
		Sources: []types.SearchResult{
			{Title: "S1", URL: "https://s1.com", Snippet: "第一条摘要"},
			{Title: "S2", URL: "https://s2.com", Snippet: "第二条摘要"},
		},
	}

	prompt, err := RenderChapterPrompt(req)
	if err != nil {
		t.Fatalf("RenderChapterPrompt: %v", err)
	}

	for _, want := range []string{
		"「新能源汽车」",
		"【前文摘要】\n前一章讨论了市场规模。",
		"撰写章节：2. 竞争格局",
		"核心关注点：市场份额",
		"---REFS---",
		"来源 [Ref-1]\n标题: S1\n内容: 第一条摘要\n链接: https://s1.com",
		"来源 [Ref-2]",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestRenderChapterPrompt_NoSummaryNoSources(t *testing.T) {
	prompt, err := RenderChapterPrompt(assemble.ChapterRequest{
		Topic:   "t",
		Chapter: types.ChapterSpec{Title: "一"},
	})
	if err != nil {
		t.Fatalf("RenderChapterPrompt: %v", err)
	}
	if strings.Contains(prompt, "【前文摘要】") {
		t.Errorf("empty summary still rendered a summary block:\n%s", prompt)
	}
	if !strings.Contains(prompt, "未找到相关搜索结果") {
		t.Errorf("empty sources not signalled:\n%s", prompt)
	}
}

func TestFormatSources_SnippetTruncation(t *testing.T) {
	long := strings.Repeat("长", snippetLimit+50)
	got := formatSources([]types.SearchResult{{Title: "T", URL: "https://a.com", Snippet: long}})

	if !strings.Contains(got, strings.Repeat("长", snippetLimit)+"...") {
		t.Error("snippet not truncated at rune limit")
	}
	if strings.Contains(got, strings.Repeat("长", snippetLimit+1)) {
		t.Error("snippet exceeds rune limit")
	}
}

func TestNewChapterFunc(t *testing.T) {
	mock := &mockBackend{response: "正文。\n---REFS---\n[Ref-1] | https://a.com | A\n"}
	fn := NewChapterFunc(mock)

	raw, err := fn(context.Background(), assemble.ChapterRequest{
		Topic:   "t",
		Chapter: types.ChapterSpec{Title: "一", Focus: "f"},
	})
	if err != nil {
		t.Fatalf("chapter func: %v", err)
	}
	if !strings.Contains(raw, "---REFS---") {
		t.Errorf("raw = %q", raw)
	}
	if len(mock.prompts) != 1 || !strings.Contains(mock.prompts[0], "撰写章节：一") {
		t.Errorf("backend prompt wrong: %v", mock.prompts)
	}
}

// --- outline ---

func TestParseOutlineJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{
			name:    "bare array",
			raw:     `[{"title":"1. 概况","focus":"市场规模"},{"title":"2. 竞争","focus":"份额"}]`,
			wantLen: 2,
		},
		{
			name:    "array wrapped in prose",
			raw:     "好的，大纲如下：\n```json\n[{\"title\":\"1. 概况\",\"focus\":\"规模\"}]\n```\n希望有帮助。",
			wantLen: 1,
		},
		{
			name:    "no array",
			raw:     "抱歉，我无法生成大纲。",
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `[{"title": "unterminated]`,
			wantErr: true,
		},
		{
			name:    "untitled chapters dropped",
			raw:     `[{"title":"","focus":"x"},{"title":"1. 有效","focus":"y"}]`,
			wantLen: 1,
		},
		{
			name:    "all chapters untitled",
			raw:     `[{"title":"","focus":"x"}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chapters, err := ParseOutlineJSON(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOutlineJSON: %v", err)
			}
			if len(chapters) != tt.wantLen {
				t.Errorf("got %d chapters, want %d", len(chapters), tt.wantLen)
			}
		})
	}
}

func TestGenerateOutline_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		backend *mockBackend
	}{
		{"backend error", &mockBackend{err: fmt.Errorf("api down")}},
		{"unparseable response", &mockBackend{response: "这不是 JSON"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chapters, err := GenerateOutline(context.Background(), tt.backend, "咖啡")
			if err != nil {
				t.Fatalf("GenerateOutline: %v", err)
			}
			if len(chapters) != 5 {
				t.Fatalf("got %d chapters, want default 5", len(chapters))
			}
			if !strings.Contains(chapters[0].Focus, "咖啡") {
				t.Errorf("default outline not seeded with topic: %+v", chapters[0])
			}
		})
	}
}

func TestGenerateOutline_UsesModelResponse(t *testing.T) {
	mock := &mockBackend{response: `[{"title":"1. 概况","focus":"规模"},{"title":"2. 玩家","focus":"竞争"}]`}

	chapters, err := GenerateOutline(context.Background(), mock, "t")
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if len(chapters) != 2 || chapters[1].Title != "2. 玩家" {
		t.Errorf("chapters = %+v", chapters)
	}
}

func TestOutlineFile_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/outline.yaml"
	outline := &types.Outline{
		Topic: "新能源",
		Chapters: []types.ChapterSpec{
			{Title: "1. 概况", Focus: "规模"},
			{Title: "2. 竞争", Focus: "份额"},
		},
	}

	if err := SaveOutlineFile(path, outline); err != nil {
		t.Fatalf("SaveOutlineFile: %v", err)
	}
	loaded, err := LoadOutlineFile(path)
	if err != nil {
		t.Fatalf("LoadOutlineFile: %v", err)
	}

	if loaded.Topic != outline.Topic || len(loaded.Chapters) != 2 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Chapters[0] != outline.Chapters[0] {
		t.Errorf("chapters differ: %+v vs %+v", loaded.Chapters[0], outline.Chapters[0])
	}
}

// --- ARK backend ---

func TestArkBackend_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ark-key" {
			t.Errorf("auth header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "ep-test" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  章节正文  "}}]}`)
	}))
	defer ts.Close()

	b := NewArkBackend(types.GenerationConfig{
		AIConfig: types.AIConfig{Model: "ep-test", APIKey: "ark-key", BaseURL: ts.URL},
	})

	got, err := b.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "章节正文" {
		t.Errorf("completion = %q", got)
	}
}

func TestArkBackend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"http error", http.StatusBadRequest, `bad request`, "returned 400"},
		{"api error body", http.StatusOK, `{"error":{"message":"model not found"}}`, "model not found"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			b := NewArkBackend(types.GenerationConfig{
				AIConfig: types.AIConfig{Model: "m", APIKey: "k", BaseURL: ts.URL},
			})
			_, err := b.Complete(context.Background(), "p")
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("err = %v, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestArkBackend_MissingKey(t *testing.T) {
	b := NewArkBackend(types.GenerationConfig{})
	if _, err := b.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected error without API key")
	}
}
