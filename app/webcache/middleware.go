package webcache

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/exp/slog"
)

// Policy serves requests through the cache: responses from the wrapped
// handler are copied into the cache on success, and the cached copy is
// served back when the handler degrades. Document and API paths bypass
// the cache entirely, so their consumers always see fresh data.
type Policy struct {
	log   *slog.Logger
	cache *Cache

	// path prefixes that are never cached, on top of the .json rule
	bypass []string
}

// NewPolicy creates a new caching policy over the cache.
func NewPolicy(lg *slog.Logger, cache *Cache, bypassPrefixes ...string) *Policy {
	return &Policy{log: lg, cache: cache, bypass: bypassPrefixes}
}

// Install pre-populates the cache by running the given paths through
// the handler, the way first-visit assets are warmed up.
func (p *Policy) Install(ctx context.Context, h http.Handler, paths ...string) error {
	for _, pth := range paths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pth, http.NoBody)
		if err != nil {
			return fmt.Errorf("build request for %s: %w", pth, err)
		}

		rec := newRecorder()
		h.ServeHTTP(rec, req)

		if rec.status != http.StatusOK {
			return fmt.Errorf("precache %s: status %d", pth, rec.status)
		}

		e := Entry{
			Status:      rec.status,
			ContentType: rec.header.Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := p.cache.Put(pth, e); err != nil {
			return fmt.Errorf("precache %s: %w", pth, err)
		}
	}

	return nil
}

// Middleware wraps the handler with the fetch policy:
//   - non-GET requests pass through untouched;
//   - .json documents and bypass prefixes are network-only;
//   - everything else is served fresh when the handler succeeds, with
//     the response copied into the cache, and from the cache when the
//     handler fails; with no cached copy the failure passes through.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || p.bypassed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()

		rec := newRecorder()
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK {
			e := Entry{
				Status:      rec.status,
				ContentType: rec.header.Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := p.cache.Put(key, e); err != nil {
				p.log.WarnCtx(r.Context(), "failed to cache response",
					slog.String("url", key), slog.Any("err", err))
			}

			rec.copyTo(w)
			return
		}

		if rec.status < http.StatusInternalServerError {
			rec.copyTo(w)
			return
		}

		e, ok, err := p.cache.Get(key)
		if err != nil {
			p.log.WarnCtx(r.Context(), "failed to read cache",
				slog.String("url", key), slog.Any("err", err))
		}
		if !ok {
			rec.copyTo(w)
			return
		}

		p.log.DebugCtx(r.Context(), "serving stale copy",
			slog.String("url", key), slog.Int("upstream_status", rec.status))

		if e.ContentType != "" {
			w.Header().Set("Content-Type", e.ContentType)
		}
		w.Header().Set("X-Brewfeed-Cache", "stale")
		w.WriteHeader(e.Status)
		_, _ = w.Write(e.Body)
	})
}

func (p *Policy) bypassed(path string) bool {
	if strings.HasSuffix(path, ".json") {
		return true
	}
	for _, prefix := range p.bypass {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// recorder buffers the wrapped handler's response, so the policy can
// decide what to do with it before anything reaches the client.
type recorder struct {
	status int
	header http.Header
	body   *bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{
		status: http.StatusOK,
		header: http.Header{},
		body:   &bytes.Buffer{},
	}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) { r.status = status }

func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *recorder) copyTo(w http.ResponseWriter) {
	for k, vals := range r.header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.status)
	_, _ = w.Write(r.body.Bytes())
}
