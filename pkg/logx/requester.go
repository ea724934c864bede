package logx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// RoundTripperOpts contains options for client logger.
type RoundTripperOpts struct {
	Level         slog.Level
	SecretHeaders []string
}

// LoggingRoundTripper logs every outgoing client request with its
// outcome and elapsed time. Secret header values are masked.
func LoggingRoundTripper(lg *slog.Logger, opts RoundTripperOpts) middleware.RoundTripperHandler {
	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Any("headers", maskHeaders(req.Header, opts.SecretHeaders)),
			}

			start := time.Now()
			resp, err := next.RoundTrip(req)
			attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

			if err != nil {
				attrs = append(attrs, slog.Any("err", err))
				lg.LogAttrs(req.Context(), slog.LevelWarn, "request failed", attrs...)
				return resp, err
			}

			attrs = append(attrs, slog.Int("status", resp.StatusCode))
			lg.LogAttrs(req.Context(), opts.Level, "request completed", attrs...)

			return resp, nil
		})
	}
}

func maskHeaders(h http.Header, secret []string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		if lo.Contains(secret, k) {
			out[k] = "***"
			continue
		}
		out[k] = strings.Join(vals, ",")
	}
	return out
}
