package feed

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/brewfeed/brewfeed/app/store"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/exp/slog"
)

// Enricher fills in article content by fetching the page and
// extracting its readable text.
type Enricher struct {
	log *slog.Logger
	cl  *http.Client
}

// NewEnricher creates a new Enricher.
func NewEnricher(lg *slog.Logger, cl *http.Client) *Enricher {
	return &Enricher{log: lg, cl: cl}
}

// Enrich fetches the article page and fills Content with the readable
// text. Any failure downgrades to the bare entry.
func (e *Enricher) Enrich(ctx context.Context, a store.Article) store.Article {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Link, http.NoBody)
	if err != nil {
		e.log.WarnCtx(ctx, "failed to build enrich request",
			slog.String("link", a.Link), slog.Any("err", err))
		return a
	}

	resp, err := e.cl.Do(req)
	if err != nil {
		e.log.WarnCtx(ctx, "failed to fetch article page",
			slog.String("link", a.Link), slog.Any("err", err))
		return a
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		e.log.WarnCtx(ctx, "bad status code on article page",
			slog.String("link", a.Link), slog.Int("status", resp.StatusCode))
		return a
	}

	doc, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		e.log.WarnCtx(ctx, "failed to extract article text",
			slog.String("link", a.Link), slog.Any("err", err))
		return a
	}

	a.Content = sanitize(doc.TextContent)
	if a.Title == "" {
		a.Title = doc.Title
	}

	return a
}

var spaceRe = regexp.MustCompile(`\s+`)

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	// nbsp
	s = strings.ReplaceAll(s, " ", " ")

	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
