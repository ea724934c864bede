package digest

import (
	"context"
	"time"

	"github.com/brewfeed/brewfeed/app/store"
	"golang.org/x/exp/slog"
)

// Reviewer produces a verdict for a single article.
type Reviewer interface {
	Review(ctx context.Context, article store.Article) (Review, error)
}

// Service runs articles through the reviewer in bounded chunks, with
// bounded retries on provider errors.
type Service struct {
	log      *slog.Logger
	reviewer Reviewer

	chunkSize  int
	maxRetries int
	baseDelay  time.Duration

	sleep func(context.Context, time.Duration)
}

// NewService creates new digest service.
func NewService(lg *slog.Logger, reviewer Reviewer) *Service {
	return &Service{
		log:        lg,
		reviewer:   reviewer,
		chunkSize:  20,
		maxRetries: 3,
		// provider rate limits usually clear within half a minute
		baseDelay: 35 * time.Second,
		sleep:     sleepCtx,
	}
}

// Process summarizes and categorizes all articles. An article whose
// review keeps failing after retries passes through with the fallback
// category and summary; processing never dies half-way.
func (s *Service) Process(ctx context.Context, articles []store.Article) []store.Article {
	out := make([]store.Article, len(articles))
	copy(out, articles)

	for start := 0; start < len(out); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(out) {
			end = len(out)
		}

		s.log.InfoCtx(ctx, "processing chunk",
			slog.Int("from", start), slog.Int("to", end), slog.Int("total", len(out)))

		for i := start; i < end; i++ {
			out[i] = s.processOne(ctx, out[i])
		}
	}

	return out
}

func (s *Service) processOne(ctx context.Context, a store.Article) store.Article {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		rev, err := s.reviewer.Review(ctx, a)
		if err == nil {
			a.Category = rev.Category
			a.Summary = rev.Summary
			return a
		}

		s.log.WarnCtx(ctx, "review failed",
			slog.String("title", a.Title),
			slog.Int("attempt", attempt+1),
			slog.Any("err", err))

		if attempt < s.maxRetries-1 {
			s.sleep(ctx, s.baseDelay*time.Duration(attempt+1))
		}
	}

	a.Category = Categories[0]
	a.Summary = "summary unavailable"
	return a
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
