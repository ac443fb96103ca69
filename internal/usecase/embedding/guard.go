package embedding

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/circuitrank/internal/domain"
)

// LengthGuard rejects inputs longer than the provider accepts before any network call.
type LengthGuard struct {
	inner    domain.Embedder
	maxChars int
}

// NewLengthGuard wraps inner. maxChars <= 0 disables the check.
func NewLengthGuard(inner domain.Embedder, maxChars int) *LengthGuard {
	return &LengthGuard{inner: inner, maxChars: maxChars}
}

// Embed implements domain.Embedder.
func (g *LengthGuard) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if g.maxChars > 0 {
		if n := utf8.RuneCountInString(text); n > g.maxChars {
			return domain.EmbeddingResult{}, fmt.Errorf("input has %d chars, limit %d: %w",
				n, g.maxChars, domain.ErrInputTooLong)
		}
	}
	return g.inner.Embed(ctx, text) //nolint:wrapcheck // transparent decorator
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (g *LengthGuard) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
