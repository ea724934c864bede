package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "news.json")

	s := Snapshot{
		UpdatedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		IsWeekly:  true,
		Market: &Market{
			Arabica: &Quote{Ticker: "KC=F", Price: 185.5, PrevClose: 183.1},
			Robusta: &Quote{Ticker: "RC=F", Price: 3301, ChartPrevClose: 3295},
		},
		Articles: []Article{
			{Category: "Market & Origin", Title: "frost warning", Link: "https://example.com/1", Summary: "cold front approaches"},
		},
	}

	require.NoError(t, Export(s, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
