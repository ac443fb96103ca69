package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/domain"
)

// InstrumentedEmbedder wraps an Embedder with logging and per-query usage tracking.
// Transport metrics (requests, duration, tokens) are recorded in the transport adapters.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	identity domain.ModelIdentity
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, identity domain.ModelIdentity, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		identity: identity,
		logger:   logger,
	}
}

// Embed delegates to the inner embedder and records usage on the context collector.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	usage := domain.UsageFromContext(ctx)
	if err != nil {
		p.logger.Warn("Embedding request failed",
			zap.Stringer("model", p.identity),
			zap.Duration("duration", duration),
			zap.Int("input_chars", len(text)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	usage.AddTokens(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.Stringer("model", p.identity),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
