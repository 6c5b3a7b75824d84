package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/middleware"
)

// maxConflictRetries bounds how often a transient storage conflict is retried
// before it is surfaced to the caller.
const maxConflictRetries = 3

// conflictRetryBackoff is the base delay between retries; attempt n waits n times this.
const conflictRetryBackoff = 25 * time.Millisecond

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		// Return a default logger if not found in context
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// WithConflictRetry runs op, retrying a bounded number of times when it fails
// with apperrors.ErrConflict. Business failures (insufficient funds, not
// found, inactive account) are never retried.
func (s *BaseService) WithConflictRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		s.LogDebug(ctx, "retrying after storage conflict", slog.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * conflictRetryBackoff):
		}
	}
	return err
}
