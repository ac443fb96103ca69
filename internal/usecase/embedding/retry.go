package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
)

// RetryConfig configures exponential backoff.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns three attempts starting at 200ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2,
	}
}

// RetryingEmbedder retries failed provider calls with exponential backoff.
// Input errors and context cancellation are returned immediately.
type RetryingEmbedder struct {
	inner    domain.Embedder
	cfg      RetryConfig
	identity domain.ModelIdentity
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetryingEmbedder wraps inner with retries. MaxAttempts below 1 means a single attempt.
func NewRetryingEmbedder(
	inner domain.Embedder, cfg RetryConfig, identity domain.ModelIdentity, logger *zap.Logger,
) *RetryingEmbedder {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &RetryingEmbedder{
		inner:    inner,
		cfg:      cfg,
		identity: identity,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Embed implements domain.Embedder.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	backoff := r.cfg.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		res, err := r.inner.Embed(ctx, text)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil || attempt == r.cfg.MaxAttempts {
			break
		}

		metrics.EmbeddingRetriesTotal.WithLabelValues(r.identity.Provider, r.identity.Model).Inc()
		r.logger.Debug("Retrying embedding request",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		if err := r.sleep(ctx, backoff); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("retry backoff: %w", err)
		}
		backoff = time.Duration(float64(backoff) * r.cfg.Multiplier)
		if r.cfg.MaxDelay > 0 && backoff > r.cfg.MaxDelay {
			backoff = r.cfg.MaxDelay
		}
	}

	return domain.EmbeddingResult{}, lastErr
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (r *RetryingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrInputTooLong):
		return false
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
