// Package store contains entities and services to process and contain them.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is an error that is returned when the requested entity is not found.
var ErrNotFound = errors.New("not found")

// Interface defines methods for store
type Interface interface {
	PutSnapshot(ctx context.Context, s Snapshot) error
	LatestSnapshot(ctx context.Context) (Snapshot, error)
	Seen(ctx context.Context, link string) (bool, error)
	MarkSeen(ctx context.Context, links []string) error
}

// Article is a single aggregated news entry.
type Article struct {
	Source    string    `json:"source,omitempty"`
	Category  string    `json:"category,omitempty"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary,omitempty"`
	Content   string    `json:"-"`
	Published time.Time `json:"published,omitempty"`
}

// Quote is a raw commodity quote, as the quotes provider returns it.
// PrevClose may be zero when the provider omits it; ChartPrevClose is
// the fallback field from the chart endpoint.
type Quote struct {
	Ticker         string  `json:"ticker"`
	Price          float64 `json:"regularMarketPrice"`
	PrevClose      float64 `json:"previousClose,omitempty"`
	ChartPrevClose float64 `json:"chartPreviousClose,omitempty"`
}

// Market contains quotes for the tracked coffee contracts, any of
// which may be absent if the provider call failed.
type Market struct {
	Arabica *Quote `json:"arabica,omitempty"`
	Robusta *Quote `json:"robusta,omitempty"`
}

// Snapshot is the widget document: everything needed to render a
// single state of the widget.
type Snapshot struct {
	UpdatedAt time.Time `json:"updated_at"`
	IsWeekly  bool      `json:"is_weekly,omitempty"`
	Market    *Market   `json:"market_data,omitempty"`
	Articles  []Article `json:"articles"`
}
