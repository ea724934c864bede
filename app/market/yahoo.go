// Package market fetches and normalizes coffee commodity quotes.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brewfeed/brewfeed/app/store"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"golang.org/x/exp/slog"
)

// Tickers for the tracked coffee futures contracts.
const (
	TickerArabica = "KC=F"
	TickerRobusta = "RC=F"
)

const quoteTTL = 2 * time.Minute

// Yahoo is a client for the Yahoo Finance chart API.
type Yahoo struct {
	log     *slog.Logger
	cl      *http.Client
	baseURL string
	relay   string
	cache   cache.Cache[string, store.Quote]
}

// NewYahoo creates a new quotes client. relayURL, if non-empty, is a
// CORS-relay prefix that the target URL is appended to; useful when
// the service runs behind an egress proxy.
func NewYahoo(lg *slog.Logger, cl *http.Client, relayURL string) *Yahoo {
	return &Yahoo{
		log:     lg,
		cl:      cl,
		baseURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		relay:   relayURL,
		cache: cache.NewCache[string, store.Quote]().
			WithTTL(quoteTTL),
	}
}

// chartResponse mirrors the subset of the chart endpoint payload
// the widget needs.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Quote fetches the current quote for the given ticker. Successive
// calls within the cache TTL are served from memory, so overlapping
// refresh cycles don't hammer the provider.
func (y *Yahoo) Quote(ctx context.Context, ticker string) (store.Quote, error) {
	if q, ok := y.cache.Get(ticker); ok {
		return q, nil
	}

	u := fmt.Sprintf("%s/%s?interval=1d&_=%s", y.baseURL,
		url.PathEscape(ticker), strconv.FormatInt(time.Now().UnixMilli(), 10))
	if y.relay != "" {
		u = y.relay + url.QueryEscape(u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return store.Quote{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.cl.Do(req)
	if err != nil {
		return store.Quote{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			y.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return store.Quote{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return store.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if len(chart.Chart.Result) == 0 {
		return store.Quote{}, fmt.Errorf("no result for ticker %s", ticker)
	}

	meta := chart.Chart.Result[0].Meta
	q := store.Quote{
		Ticker:         ticker,
		Price:          meta.RegularMarketPrice,
		PrevClose:      meta.PreviousClose,
		ChartPrevClose: meta.ChartPreviousClose,
	}

	y.cache.Set(ticker, q, 0)
	return q, nil
}

// Snapshot fetches quotes for both tracked contracts. A failed leg is
// logged and left nil, it never fails the whole call.
func (y *Yahoo) Snapshot(ctx context.Context) store.Market {
	var m store.Market

	if q, err := y.Quote(ctx, TickerArabica); err != nil {
		y.log.WarnCtx(ctx, "failed to fetch arabica quote", slog.Any("err", err))
	} else {
		m.Arabica = &q
	}

	if q, err := y.Quote(ctx, TickerRobusta); err != nil {
		y.log.WarnCtx(ctx, "failed to fetch robusta quote", slog.Any("err", err))
	} else {
		m.Robusta = &q
	}

	return m
}
