// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), 20)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Report{
		Topic:    "新能源汽车",
		Chapters: 5,
		RefCount: 12,
		Document: "## 1. 行业宏观概况\n\n正文 [Ref-1]。\n",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "新能源汽车", got.Topic)
	assert.Equal(t, 5, got.Chapters)
	assert.Equal(t, 12, got.RefCount)
	assert.Contains(t, got.Document, "[Ref-1]")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Save(ctx, Report{ID: "old", Topic: "old topic", CreatedAt: older, Document: "a"})
	require.NoError(t, err)
	_, err = s.Save(ctx, Report{ID: "new", Topic: "new topic", CreatedAt: newer, Document: "b"})
	require.NoError(t, err)

	reports, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].ID)
	assert.Equal(t, "old", reports[1].ID)
	assert.Empty(t, reports[0].Document, "List omits document bodies")
}

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, Report{ID: "ev", Topic: "electric vehicles", Document: "battery supply chains"})
	require.NoError(t, err)
	_, err = s.Save(ctx, Report{ID: "coffee", Topic: "specialty coffee", Document: "roasting margins"})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "battery")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ev", hits[0].ID)

	hits, err = s.Search(ctx, "coffee")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "coffee", hits[0].ID)

	_, err = s.Search(ctx, "   ")
	require.Error(t, err)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, Report{ID: "same", Topic: "t", Document: "d"})
	require.NoError(t, err)
	_, err = s.Save(ctx, Report{ID: "same", Topic: "t", Document: "d"})
	require.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Electric Vehicles 2026", "electric-vehicles-2026"},
		{"新能源汽车", "新能源汽车"},
		{"  spaced  out  ", "spaced-out"},
		{"!!!", "report"},
		{"", "report"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}
