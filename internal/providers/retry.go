package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"grid-ops-service/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultMaxBackoff    = 2 * time.Second
)

// retryingQuerier wraps a RowQuerier with bounded exponential backoff.
type retryingQuerier struct {
	inner       RowQuerier
	logger      *slog.Logger
	maxAttempts int
	maxBackoff  time.Duration
}

// NewRetryingQuerier wraps the given querier with retries. Non-positive
// maxAttempts or maxBackoff select defaults.
func NewRetryingQuerier(inner RowQuerier, logger *slog.Logger, maxAttempts int, maxBackoff time.Duration) RowQuerier {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return &retryingQuerier{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		maxBackoff:  maxBackoff,
	}
}

func (r *retryingQuerier) QueryRows(ctx context.Context, q Query) (RowResult, error) {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = r.maxBackoff

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.inner.QueryRows(ctx, q)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		logging.Warn(r.logger, "backend query retry",
			slog.String(logging.FieldDomain, q.Table),
			slog.Int(logging.FieldAttempt, attempt),
			"error", err,
		)

		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = r.maxBackoff
		}
		select {
		case <-ctx.Done():
			return RowResult{}, ctx.Err()
		case <-time.After(sleep):
		}
	}

	logging.Warn(r.logger, "backend query failed",
		slog.String(logging.FieldDomain, q.Table),
		slog.Int("attempts", r.maxAttempts),
		"error", lastErr,
	)
	return RowResult{}, lastErr
}
