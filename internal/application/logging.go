package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/logging"
)

func defaultLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func serviceLogger(ctx context.Context, base *zap.Logger, serviceName, operation string, fields ...zap.Field) *zap.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pairs := []zap.Field{zap.String("service", serviceName)}
	if operation != "" {
		pairs = append(pairs, zap.String("operation", operation))
	}
	pairs = append(pairs, fields...)
	return logger.With(pairs...)
}

// logResult logs err at error level or msg at info level.
func logResult(logger *zap.Logger, err error, failure, success string, fields ...zap.Field) {
	if err != nil {
		logger.Error(failure, zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		return
	}
	logger.Info(success, fields...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrClosedDay):
		return "closed_day"
	case errors.Is(err, ErrSubmissionFailed):
		return "submission_failed"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrCheckoutDisabled):
		return "checkout_disabled"
	case errors.Is(err, ErrFlowClosed):
		return "flow_closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
