package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBolt_Snapshots(t *testing.T) {
	b, err := NewBolt(t.TempDir())
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close()) }()

	ctx := context.Background()

	_, err = b.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	first := Snapshot{
		UpdatedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		Articles: []Article{
			{Title: "arabica futures climb", Link: "https://example.com/1"},
		},
	}
	require.NoError(t, b.PutSnapshot(ctx, first))

	second := Snapshot{
		UpdatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Market:    &Market{Arabica: &Quote{Ticker: "KC=F", Price: 185.5, PrevClose: 183.1}},
		Articles: []Article{
			{Title: "frost warning in minas gerais", Link: "https://example.com/2"},
			{Title: "robusta supply tightens", Link: "https://example.com/3"},
		},
	}
	require.NoError(t, b.PutSnapshot(ctx, second))

	got, err := b.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestBolt_SeenLinks(t *testing.T) {
	b, err := NewBolt(t.TempDir())
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close()) }()

	ctx := context.Background()

	seen, err := b.Seen(ctx, "https://example.com/article")
	require.NoError(t, err)
	assert.False(t, seen)

	err = b.MarkSeen(ctx, []string{
		"https://example.com/article",
		"https://example.com/other",
	})
	require.NoError(t, err)

	seen, err = b.Seen(ctx, "https://example.com/article")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = b.Seen(ctx, "https://example.com/unknown")
	require.NoError(t, err)
	assert.False(t, seen)
}
