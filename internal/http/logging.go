package http

import (
	"context"

	"go.uber.org/zap"
)

func defaultLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func handlerLogger(ctx context.Context, fallback *zap.Logger, handlerName, operation string, fields ...zap.Field) *zap.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pairs := []zap.Field{zap.String("handler", handlerName)}
	if operation != "" {
		pairs = append(pairs, zap.String("operation", operation))
	}
	pairs = append(pairs, fields...)
	return logger.With(pairs...)
}
