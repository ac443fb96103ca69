// Package search ranks indexed circuits against free-text queries.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/search/result"
	"github.com/kailas-cloud/circuitrank/internal/domain/text"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
)

// Config tunes query handling.
type Config struct {
	Weights Weights
	// Timeout applies when the caller's context has no deadline. Zero disables it.
	Timeout time.Duration
	// MaxTopK caps top_k. Zero means no cap.
	MaxTopK int
}

// Service runs hybrid queries against the current snapshot.
type Service struct {
	snaps   SnapshotSource
	embed   Embedder
	intents IntentDetector
	cfg     Config
	logger  *zap.Logger
}

// New creates a search service. Invalid weights fail with domain.ErrConfiguration.
func New(
	snaps SnapshotSource, embed Embedder, intents IntentDetector,
	cfg Config, logger *zap.Logger,
) (*Service, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	return &Service{snaps: snaps, embed: embed, intents: intents, cfg: cfg, logger: logger}, nil
}

// Weights returns the configured fusion weights.
func (s *Service) Weights() Weights { return s.cfg.Weights }

// Search returns at most topK circuits ranked by fused relevance.
//
// A failed query embedding drops the semantic signal for this query only and
// marks the request usage as degraded. An expired deadline fails the query
// with domain.ErrQueryTimeout. An empty corpus yields an empty list.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]result.Result, error) {
	start := time.Now()
	results, status, err := s.search(ctx, query, topK)

	metrics.SearchQueriesTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.SearchResults.Observe(float64(len(results)))
	}
	return results, err
}

func (s *Service) search(ctx context.Context, query string, topK int) ([]result.Result, string, error) {
	if topK <= 0 {
		return nil, "invalid", fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(query) == "" {
		return nil, "invalid", fmt.Errorf("empty query: %w", domain.ErrInvalidRequest)
	}
	if s.cfg.MaxTopK > 0 && topK > s.cfg.MaxTopK {
		topK = s.cfg.MaxTopK
	}

	snap := s.snaps.Load()
	if snap == nil {
		return nil, "error", domain.ErrIndexNotReady
	}
	if snap.Len() == 0 {
		return []result.Result{}, "ok", nil
	}

	if _, ok := ctx.Deadline(); !ok && s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	tokens := text.Tokenize(query)
	var sig signals
	var embedErr error

	// The embedder may ignore ctx; the query stops waiting for it at the
	// deadline and the buffered send lets the goroutine finish on its own.
	embedded := make(chan embedOutcome, 1)
	go func() {
		res, err := s.embed.Embed(ctx, query)
		embedded <- embedOutcome{res: res, err: err}
	}()

	intent := s.intents.Detect(tokens)
	var g errgroup.Group
	g.Go(func() error {
		sig.keyword = snap.Lexical.Scores(tokens)
		return nil
	})
	g.Go(func() error {
		sig.component = make([]float64, snap.Len())
		for i := range snap.Docs {
			sig.component[i] = intent.Score(snap.Docs[i].Structure)
		}
		return nil
	})
	_ = g.Wait()

	select {
	case out := <-embedded:
		switch {
		case out.err == nil:
			sig.semantic = snap.Semantic.Scores(out.res.Embedding)
		case ctx.Err() != nil:
			return nil, abortStatus(ctx.Err()), abortError(query, ctx.Err())
		default:
			embedErr = out.err
		}
	case <-ctx.Done():
		return nil, abortStatus(ctx.Err()), abortError(query, ctx.Err())
	}

	weights := s.cfg.Weights
	status := "ok"
	if embedErr != nil {
		w, err := weights.withoutSemantic()
		if err != nil {
			return nil, "error", fmt.Errorf("%w (embedding: %v)", err, embedErr)
		}
		weights = w
		status = "degraded"
		domain.UsageFromContext(ctx).MarkDegraded()
		s.logger.Warn("Semantic signal skipped for query",
			zap.String("query", query),
			zap.Error(embedErr),
		)
	}

	results := fuse(snap.Docs, sig, weights, topK)

	s.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Uint64("generation", snap.Generation),
		zap.Strings("concepts", intent.Names()),
		zap.Int("results", len(results)),
		zap.String("status", status),
	)
	return results, status, nil
}

type embedOutcome struct {
	res domain.EmbeddingResult
	err error
}

func abortStatus(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

// abortError maps an expired deadline to domain.ErrQueryTimeout and keeps
// caller cancellation as is.
func abortError(query string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("query %q: %w", query, domain.ErrQueryTimeout)
	}
	return fmt.Errorf("query %q: %w", query, err)
}
