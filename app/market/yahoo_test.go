package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/brewfeed/brewfeed/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const chartPayload = `{
	"chart": {
		"result": [{"meta": {
			"symbol": "KC=F",
			"regularMarketPrice": 185.5,
			"previousClose": 183.1,
			"chartPreviousClose": 182.9
		}}],
		"error": null
	}
}`

func TestYahoo_Quote(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/KC=F", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("_"), "cache buster must be present")
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))

		_, err := w.Write([]byte(chartPayload))
		require.NoError(t, err)
	}))
	defer ts.Close()

	y := NewYahoo(slog.Default(), ts.Client(), "")
	y.baseURL = ts.URL

	q, err := y.Quote(context.Background(), TickerArabica)
	require.NoError(t, err)
	assert.Equal(t, store.Quote{
		Ticker:         "KC=F",
		Price:          185.5,
		PrevClose:      183.1,
		ChartPrevClose: 182.9,
	}, q)

	// second call within TTL must be served from cache
	_, err = y.Quote(context.Background(), TickerArabica)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestYahoo_Quote_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	y := NewYahoo(slog.Default(), ts.Client(), "")
	y.baseURL = ts.URL

	_, err := y.Quote(context.Background(), TickerArabica)
	assert.ErrorContains(t, err, "bad status code: 429")
}

func TestYahoo_Quote_EmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		require.NoError(t, err)
	}))
	defer ts.Close()

	y := NewYahoo(slog.Default(), ts.Client(), "")
	y.baseURL = ts.URL

	_, err := y.Quote(context.Background(), TickerRobusta)
	assert.ErrorContains(t, err, "no result")
}

func TestYahoo_Snapshot_PartialFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/KC=F" {
			_, err := w.Write([]byte(chartPayload))
			require.NoError(t, err)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	y := NewYahoo(slog.Default(), ts.Client(), "")
	y.baseURL = ts.URL

	m := y.Snapshot(context.Background())
	require.NotNil(t, m.Arabica)
	assert.Equal(t, 185.5, m.Arabica.Price)
	assert.Nil(t, m.Robusta)
}
