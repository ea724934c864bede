package logx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pkgz/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(buf))

	rq := requester.New(*ts.Client(), LoggingRoundTripper(lg, RoundTripperOpts{
		Level:         slog.LevelDebug,
		SecretHeaders: []string{"Authorization"},
	}))

	req, err := http.NewRequest(http.MethodGet, ts.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer hunter2")

	resp, err := rq.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	logged := buf.String()
	assert.Contains(t, logged, "request completed")
	assert.Contains(t, logged, "status=418")
	assert.Contains(t, logged, "***")
	assert.NotContains(t, logged, "hunter2")
}

func TestMaskHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "secret")
	h.Set("Accept", "application/json")

	got := maskHeaders(h, []string{"Authorization"})

	assert.Equal(t, map[string]string{
		"Authorization": "***",
		"Accept":        "application/json",
	}, got)
}
