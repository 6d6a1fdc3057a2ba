package telemetry

import (
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dom/bracket-sync"

// NewLogger builds the process logger: JSON in production, text elsewhere.
func NewLogger(environment string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Tracer returns the tracer used by the services. Without an SDK registered
// on the global provider the spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
