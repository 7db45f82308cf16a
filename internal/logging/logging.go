// Package logging builds the application's slog loggers.
package logging

import (
	"context"
	"io"
	"log/slog"
)

// FormatJSON selects the JSON handler. Any other format selects the text handler.
const FormatJSON = "json"

// RequestIDKey is the attribute key under which the request ID is logged.
const RequestIDKey = "request_id"

type requestIDKey struct{}

// New creates a logger that writes records at or above level to w.
// Records logged with a context carrying a request ID get a request_id attribute.
func New(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(contextHandler{h})
}

// WithRequestID returns a copy of ctx that carries the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

// contextHandler adds values carried by the context to every record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}

	return h.Handler.Handle(ctx, r) //nolint:wrapcheck // handler errors are passed through unchanged
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
