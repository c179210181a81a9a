// Package services implements the task board operations on top of GORM. Every
// multi-row write runs in a single transaction; cache invalidation and
// websocket refreshes happen after commit and are best effort.
package services

import (
	"context"
	"errors"

	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/types"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/monocle-dev/taskboard/internal/services"

type RefreshNotifier interface {
	NotifyRefresh(userIDs []uint, taskID uint, reason string)
}

type AnalyticsStore interface {
	Get(ctx context.Context, userID uint) (types.Analytics, bool, error)
	Set(ctx context.Context, userID uint, analytics types.Analytics) error
	Invalidate(ctx context.Context, userIDs ...uint) error
}

func startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !isClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isClientError(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal
}

// wrap leaves service errors untouched and turns everything else into an
// internal error carrying the cause.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(err)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err)
}

func defaultLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.StandardLogger()
	}
	return logger
}
