package widget

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brewfeed/brewfeed/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRender_ArticleBlocks(t *testing.T) {
	s := store.Snapshot{UpdatedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)}
	for i := 0; i < 5; i++ {
		s.Articles = append(s.Articles, store.Article{
			Category: "Top News",
			Title:    fmt.Sprintf("story %d", i),
			Link:     fmt.Sprintf("https://example.com/%d", i),
			Summary:  fmt.Sprintf("summary %d", i),
		})
	}

	page, err := Render(Build(s, false))
	require.NoError(t, err)
	html := string(page)

	assert.Equal(t, 5, strings.Count(html, `<div class="article">`))
	// input order preserved
	for i := 0; i < 4; i++ {
		assert.Less(t,
			strings.Index(html, fmt.Sprintf("story %d", i)),
			strings.Index(html, fmt.Sprintf("story %d", i+1)))
	}
	assert.NotContains(t, html, "demo-badge")
}

func TestBuildRender_DemoMode(t *testing.T) {
	page, err := Render(Build(DemoSnapshot(), true))
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "demo-badge")
	assert.Equal(t, 3, strings.Count(html, `<div class="article">`))
}

func TestBuild_Quotes(t *testing.T) {
	s := store.Snapshot{
		UpdatedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		Market: &store.Market{
			Arabica: &store.Quote{Ticker: "KC=F", Price: 185.5, PrevClose: 183.1},
		},
	}

	vm := Build(s, false)

	assert.Equal(t, QuoteView{
		Label:     "Arabica",
		Price:     "185.50",
		Change:    "+2.40",
		Pct:       "+1.31%",
		Direction: "up",
	}, vm.Arabica)

	assert.True(t, vm.Robusta.Failed)

	page, err := Render(vm)
	require.NoError(t, err)
	assert.Contains(t, string(page), "load failed")
	assert.Contains(t, string(page), `<div class="quote up">`)
}

func TestBuild_QuoteWithoutBaseline(t *testing.T) {
	s := store.Snapshot{
		Market: &store.Market{
			Robusta: &store.Quote{Ticker: "RC=F", Price: 3301},
		},
	}

	vm := Build(s, false)

	assert.Equal(t, "n/a", vm.Robusta.Change)
	assert.Equal(t, "n/a", vm.Robusta.Pct)
	assert.Equal(t, "neutral", vm.Robusta.Direction)
}

func TestFormatUpdatedAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "30 min ago", FormatUpdatedAt(now.Add(-30*time.Minute), now))

	old := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, old.Local().Format("2006-01-02 15:04"), FormatUpdatedAt(old, now))
}
