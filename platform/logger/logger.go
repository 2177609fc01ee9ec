// Package logger is the service's slog setup: JSON in production, text in
// development, and named helpers for the events operators search for.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

// Request-scoped values picked up by WithContext.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	SourceKey    contextKey = "source"
)

var contextFields = []contextKey{RequestIDKey, UserIDKey, SourceKey}

// Logger is a *slog.Logger with pipeline-specific helpers.
type Logger struct {
	*slog.Logger
}

// New logs to stdout. Debug level is enabled when env is "development".
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with a custom destination.
func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter("production", io.Discard)
}

// WithContext attaches the request id, user id and signal source found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	var attrs []any
	for _, key := range contextFields {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{l.With(attrs...)}
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error", slog.String("operation", operation), slog.String("error", err.Error()))
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded", slog.String("client_ip", clientIP), slog.String("path", path))
}

// LeadIngested is logged once per successful ingestion call.
func (l *Logger) LeadIngested(leadID, source string, created bool, score int, stage string) {
	l.Info("lead_ingested",
		slog.String("lead_id", leadID),
		slog.String("source", source),
		slog.Bool("created", created),
		slog.Int("intent_score", score),
		slog.String("stage", stage),
	)
}

func (l *Logger) AlertRaised(alertID, leadID, trigger, priority string) {
	l.Info("alert_raised",
		slog.String("alert_id", alertID),
		slog.String("lead_id", leadID),
		slog.String("trigger", trigger),
		slog.String("priority", priority),
	)
}

// PartialIngestion reports a post-commit step that failed; the lead is kept.
func (l *Logger) PartialIngestion(leadID, step string, err error) {
	l.Warn("partial_ingestion",
		slog.String("lead_id", leadID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}
