// Package logger builds the service's slog loggers and carries request
// identity (correlation id, session id, user id) through a context so every
// line about one request can be joined up.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Output formats accepted by Options.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Options configures NewWithOptions. Zero values mean info level, JSON, stdout.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New returns a JSON logger on stdout tagged with service.
func New(service, level string) *slog.Logger {
	return NewWithOptions(service, Options{Level: level})
}

// NewWithWriter is New writing to w.
func NewWithWriter(service, level string, w io.Writer) *slog.Logger {
	return NewWithOptions(service, Options{Level: level, Writer: w})
}

// NewWithOptions returns a logger tagged with service. Debug level also
// records the source location of each line.
func NewWithOptions(service string, o Options) *slog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	lvl := ParseLevel(o.Level)
	ho := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}

	var h slog.Handler
	if strings.EqualFold(o.Format, FormatText) {
		h = slog.NewTextHandler(w, ho)
	} else {
		h = slog.NewJSONHandler(w, ho)
	}
	return slog.New(h).With(slog.String("service", service))
}

// ParseLevel accepts slog's level names in any case plus "warning".
// Anything it cannot read is info.
func ParseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// requestIDs is the identity a request has accumulated so far.
type requestIDs struct {
	correlationID string
	sessionID     string
	userID        string
}

type ctxKey int

const (
	idsKey ctxKey = iota
	loggerKey
)

func idsFrom(ctx context.Context) requestIDs {
	ids, _ := ctx.Value(idsKey).(requestIDs)
	return ids
}

func withIDs(ctx context.Context, set func(*requestIDs)) context.Context {
	ids := idsFrom(ctx)
	set(&ids)
	return context.WithValue(ctx, idsKey, ids)
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withIDs(ctx, func(ids *requestIDs) { ids.correlationID = id })
}

func CorrelationIDFromContext(ctx context.Context) string { return idsFrom(ctx).correlationID }

// WithSessionID records the storefront session serving the request.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withIDs(ctx, func(ids *requestIDs) { ids.sessionID = id })
}

func SessionIDFromContext(ctx context.Context) string { return idsFrom(ctx).sessionID }

// WithUserID records the shopper's user id as claimed by their token.
func WithUserID(ctx context.Context, id string) context.Context {
	return withIDs(ctx, func(ids *requestIDs) { ids.userID = id })
}

func UserIDFromContext(ctx context.Context) string { return idsFrom(ctx).userID }

// NewContext stores l for FromContext.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored by NewContext, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext adds the request ids and the active span, if any, to l.
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	ids := idsFrom(ctx)
	attrs := make([]any, 0, 5)
	for _, f := range []struct{ key, val string }{
		{"correlation_id", ids.correlationID},
		{"session_id", ids.sessionID},
		{"user_id", ids.userID},
	} {
		if f.val != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
