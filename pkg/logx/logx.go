// Package logx contains logging helpers: request id propagation and
// a logging round-tripper for outgoing HTTP calls.
package logx

import (
	"context"

	"golang.org/x/exp/slog"
)

type requestIDKey struct{}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(parent context.Context, reqID string) context.Context {
	return context.WithValue(parent, requestIDKey{}, reqID)
}

// RequestIDFromContext returns request id from context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok
}

// RequestIDHandler is a slog handler wrapper that stamps each record
// with the request id found in the context, if any.
type RequestIDHandler struct {
	slog.Handler
}

// Handle implements slog.Handler interface.
func (h RequestIDHandler) Handle(ctx context.Context, rec slog.Record) error {
	if reqID, ok := RequestIDFromContext(ctx); ok {
		rec.AddAttrs(slog.String("request_id", reqID))
	}
	return h.Handler.Handle(ctx, rec)
}

// WithGroup returns a new handler with the given group.
func (h RequestIDHandler) WithGroup(group string) slog.Handler {
	return RequestIDHandler{Handler: h.Handler.WithGroup(group)}
}

// WithAttrs returns a new handler with the given attributes.
func (h RequestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return RequestIDHandler{Handler: h.Handler.WithAttrs(attrs)}
}
