// Package widget builds and renders the coffee news widget document.
package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brewfeed/brewfeed/app/store"
	"golang.org/x/exp/slog"
)

// Source is a single candidate location of the widget document.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (store.Snapshot, error)
}

// Resolver tries an ordered list of candidate sources and settles on
// the first one that yields a document.
type Resolver struct {
	log     *slog.Logger
	sources []Source
}

// NewResolver creates a new Resolver over the given sources, tried in
// the given order.
func NewResolver(lg *slog.Logger, sources ...Source) *Resolver {
	return &Resolver{log: lg, sources: sources}
}

// Resolve returns the first successfully fetched snapshot. When every
// candidate fails, it returns the built-in demo snapshot with demo set
// to true; errors never propagate to the caller.
func (r *Resolver) Resolve(ctx context.Context) (s store.Snapshot, demo bool) {
	for _, src := range r.sources {
		s, err := src.Fetch(ctx)
		if err != nil {
			r.log.DebugCtx(ctx, "source failed",
				slog.String("source", src.Name()), slog.Any("err", err))
			continue
		}
		return s, false
	}

	r.log.WarnCtx(ctx, "all sources failed, falling back to demo content")
	return DemoSnapshot(), true
}

// FileSource reads the document from a local export path.
type FileSource struct {
	Path string
}

// Name returns the source name.
func (f FileSource) Name() string { return "file:" + f.Path }

// Fetch reads and parses the document.
func (f FileSource) Fetch(context.Context) (store.Snapshot, error) {
	return store.Load(f.Path)
}

// StoreSource reads the latest snapshot from persistent storage.
type StoreSource struct {
	Store store.Interface
}

// Name returns the source name.
func (s StoreSource) Name() string { return "store" }

// Fetch returns the latest stored snapshot.
func (s StoreSource) Fetch(ctx context.Context) (store.Snapshot, error) {
	return s.Store.LatestSnapshot(ctx)
}

// HTTPSource fetches the document from a remote URL.
type HTTPSource struct {
	Client *http.Client
	URL    string
}

// Name returns the source name.
func (h HTTPSource) Name() string { return h.URL }

// Fetch downloads and parses the document.
func (h HTTPSource) Fetch(ctx context.Context) (store.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, http.NoBody)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return store.Snapshot{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	var s store.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return store.Snapshot{}, fmt.Errorf("decode document: %w", err)
	}

	return s, nil
}
