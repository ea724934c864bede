// Package server exposes the widget and its documents over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brewfeed/brewfeed/app/market"
	"github.com/brewfeed/brewfeed/app/store"
	"github.com/brewfeed/brewfeed/app/widget"
	"golang.org/x/exp/slog"
)

// QuoteProvider returns current quotes for the tracked contracts.
type QuoteProvider interface {
	Snapshot(ctx context.Context) store.Market
}

// Ctrl provides handlers for the widget surface.
type Ctrl struct {
	Logger   *slog.Logger
	Resolver *widget.Resolver
	Quotes   QuoteProvider
	Policy   interface{ Middleware(http.Handler) http.Handler }
	Timeout  time.Duration
}

// Routes returns the assembled handler: widget routes behind the cache
// policy, wrapped with the request middlewares.
func (c *Ctrl) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.page)
	mux.HandleFunc("/index.html", c.page)
	mux.HandleFunc("/news.json", c.document)
	mux.HandleFunc("/api/quotes", c.quotes)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	var h http.Handler = mux
	if c.Policy != nil {
		h = c.Policy.Middleware(h)
	}

	return wrap(h,
		RequestID(),
		Recover(c.Logger),
		Logger(c.Logger),
		Timeout(c.Timeout),
	)
}

func (c *Ctrl) page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	s, demo := c.Resolver.Resolve(r.Context())

	page, err := widget.Render(widget.Build(s, demo))
	if err != nil {
		c.Logger.ErrorCtx(r.Context(), "failed to render widget", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (c *Ctrl) document(w http.ResponseWriter, r *http.Request) {
	s, demo := c.Resolver.Resolve(r.Context())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if demo {
		w.Header().Set("X-Brewfeed-Demo", "1")
	}

	if err := json.NewEncoder(w).Encode(s); err != nil {
		c.Logger.WarnCtx(r.Context(), "failed to encode document", slog.Any("err", err))
	}
}

// quoteEntry is a normalized quote as the API serves it.
type quoteEntry struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	Pct       float64 `json:"pct"`
	Direction string  `json:"direction"`
	Status    string  `json:"status"`
}

func (c *Ctrl) quotes(w http.ResponseWriter, r *http.Request) {
	m := c.Quotes.Snapshot(r.Context())

	resp := map[string]quoteEntry{
		"arabica": normalizeEntry(m.Arabica),
		"robusta": normalizeEntry(m.Robusta),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		c.Logger.WarnCtx(r.Context(), "failed to encode quotes", slog.Any("err", err))
	}
}

func normalizeEntry(q *store.Quote) quoteEntry {
	if q == nil {
		return quoteEntry{Status: "load failed"}
	}

	ch := market.Normalize(*q)
	return quoteEntry{
		Ticker:    q.Ticker,
		Price:     q.Price,
		Change:    ch.Abs,
		Pct:       ch.Pct,
		Direction: string(ch.Direction),
		Status:    "ok",
	}
}
