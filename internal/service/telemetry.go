package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentation is shared by the services.
type instrumentation struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

func newInstrumentation(logger *slog.Logger, metrics *telemetry.Metrics) instrumentation {
	if logger == nil {
		logger = slog.Default()
	}
	return instrumentation{logger: logger, tracer: telemetry.Tracer(), metrics: metrics}
}

// withTelemetry wraps an operation with a span, an outcome metric and panic
// recovery. Validation failures are logged at info; everything else at error.
func withTelemetry[T any](
	in instrumentation,
	ctx context.Context,
	operation string,
	setID string,
	op func(ctx context.Context) (T, error),
) (result T, err error) {
	ctx, span := in.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("set_id", setID),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operation, r)
			in.logger.ErrorContext(ctx, "panic recovered",
				slog.String("operation", operation),
				slog.String("set_id", setID),
				slog.Any("error", err),
			)
		}
		in.metrics.RecordOperation(operation, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	result, err = op(ctx)
	if err != nil {
		level := slog.LevelError
		if domain.IsValidation(err) {
			level = slog.LevelInfo
		}
		in.logger.Log(ctx, level, "operation failed",
			slog.String("operation", operation),
			slog.String("set_id", setID),
			slog.Any("error", err),
		)
	}
	return result, err
}
