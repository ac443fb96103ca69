// Package index builds query snapshots from catalog records.
package index

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	dombatch "github.com/kailas-cloud/circuitrank/internal/domain/batch"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	"github.com/kailas-cloud/circuitrank/internal/domain/text"
	idx "github.com/kailas-cloud/circuitrank/internal/index"
	"github.com/kailas-cloud/circuitrank/internal/index/lexical"
	"github.com/kailas-cloud/circuitrank/internal/index/semantic"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
)

// Config tunes the build.
type Config struct {
	// Workers bounds concurrent enrich+embed tasks. Zero means NumCPU/2, at least 1.
	Workers int
	BM25    lexical.BM25Params
}

// DefaultWorkers returns NumCPU/2, at least 1.
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// Report summarizes one build.
type Report struct {
	Generation        uint64
	Indexed           int
	Rejected          int
	EmbeddingFailures int
	Duration          time.Duration
	Results           []dombatch.Result // one per input record, in input order
}

// Builder enriches, embeds and indexes records into immutable snapshots.
type Builder struct {
	enrich   Enricher
	embed    Embedder
	identity domain.ModelIdentity
	holder   Publisher
	bm25     lexical.BM25Params
	pool     *ants.Pool
	mu       sync.Mutex // serializes Rebuild
	logger   *zap.Logger
}

// New creates a builder with its own worker pool. Call Release when done.
func New(
	enrich Enricher, embed Embedder, identity domain.ModelIdentity,
	holder Publisher, cfg Config, logger *zap.Logger,
) (*Builder, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	params := cfg.BM25
	if params == (lexical.BM25Params{}) {
		params = lexical.DefaultBM25Params()
	}
	return &Builder{
		enrich:   enrich,
		embed:    embed,
		identity: identity,
		holder:   holder,
		bm25:     params,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Release stops the worker pool. The builder must not be used afterwards.
func (b *Builder) Release() {
	b.pool.Release()
}

// Rebuild builds a snapshot from records and publishes it. Concurrent calls
// run one at a time; queries keep using the previous snapshot until the swap.
// A canceled context aborts the build and leaves the current snapshot in place.
func (b *Builder) Rebuild(ctx context.Context, records []circuit.Record) (Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	snap, report, err := b.Build(ctx, records)
	if err != nil {
		return report, err
	}

	report.Generation = b.holder.Publish(snap)
	report.Duration = time.Since(start)

	metrics.IndexGeneration.Set(float64(report.Generation))
	metrics.IndexDocuments.WithLabelValues("indexed").Set(float64(report.Indexed))
	metrics.IndexDocuments.WithLabelValues("without_vector").Set(float64(report.EmbeddingFailures))
	metrics.IndexBuildDuration.Observe(report.Duration.Seconds())

	b.logger.Info("Index snapshot published",
		zap.Uint64("generation", report.Generation),
		zap.Int("indexed", report.Indexed),
		zap.Int("rejected", report.Rejected),
		zap.Int("embedding_failures", report.EmbeddingFailures),
		zap.Stringer("model", b.identity),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// RebuildFrom loads records from src and rebuilds. A failed load keeps the
// current snapshot.
func (b *Builder) RebuildFrom(ctx context.Context, src Source) (Report, error) {
	records, err := src.Load(ctx)
	if err != nil {
		metrics.IndexBuildFailuresTotal.WithLabelValues("source").Inc()
		return Report{}, fmt.Errorf("load records: %w", err)
	}
	return b.Rebuild(ctx, records)
}

// Build produces an unpublished snapshot. Malformed records are rejected and
// reported; documents whose embedding fails are indexed without a vector.
func (b *Builder) Build(ctx context.Context, records []circuit.Record) (*idx.Snapshot, Report, error) {
	start := time.Now()
	report := Report{Results: make([]dombatch.Result, len(records))}

	accepted := b.validate(records, &report)

	docs := make([]circuit.Enriched, len(accepted))
	vectors := make([][]float32, len(accepted))
	embedErrs := make([]error, len(accepted))

	var wg sync.WaitGroup
	for slot, pos := range accepted {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, report, fmt.Errorf("build canceled: %w", err)
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			r := &records[pos]
			docs[slot] = b.enrich.Enrich(r)
			res, err := b.embed.Embed(ctx, docs[slot].Text)
			if err != nil {
				embedErrs[slot] = err
				return
			}
			vectors[slot] = res.Embedding
		}
		if err := b.pool.Submit(task); err != nil {
			wg.Done()
			wg.Wait()
			return nil, report, fmt.Errorf("submit build task: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, report, fmt.Errorf("build canceled: %w", err)
	}

	tokens := make([][]string, len(docs))
	for slot, pos := range accepted {
		id := records[pos].ID
		tokens[slot] = text.Tokenize(docs[slot].Text)
		if err := embedErrs[slot]; err != nil {
			report.EmbeddingFailures++
			metrics.IndexBuildFailuresTotal.WithLabelValues("embedding").Inc()
			b.logger.Warn("Indexing record without vector",
				zap.String("id", id), zap.Error(err))
			report.Results[pos] = dombatch.NewDegraded(pos, id,
				domain.NewRecordError(id, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)))
			continue
		}
		report.Results[pos] = dombatch.NewOK(pos, id)
	}
	report.Indexed = len(accepted)

	snap := &idx.Snapshot{
		BuiltAt:  time.Now(),
		Docs:     docs,
		Semantic: semantic.New(b.identity, vectors),
		Lexical:  lexical.NewIndex(lexical.NewBM25(tokens, b.bm25), len(docs)),
	}
	report.Duration = time.Since(start)
	return snap, report, nil
}

// validate rejects records without an ID and repeated IDs, returning the
// positions of accepted records in input order.
func (b *Builder) validate(records []circuit.Record, report *Report) []int {
	accepted := make([]int, 0, len(records))
	seen := make(map[string]int, len(records))

	for pos := range records {
		r := &records[pos]
		var reason error
		switch prev, dup := seen[r.ID]; {
		case r.ID == "":
			reason = fmt.Errorf("empty id: %w", domain.ErrMalformedInput)
		case dup:
			reason = fmt.Errorf("duplicate of record at position %d: %w", prev, domain.ErrMalformedInput)
		}
		if reason != nil {
			report.Rejected++
			report.Results[pos] = dombatch.NewRejected(pos, r.ID, domain.NewRecordError(r.ID, reason))
			metrics.IndexBuildFailuresTotal.WithLabelValues("malformed").Inc()
			b.logger.Warn("Rejecting record", zap.Int("position", pos), zap.Error(reason))
			continue
		}
		seen[r.ID] = pos

		if !r.CountsConsistent() {
			b.logger.Warn("Component counts disagree with component list; using counts",
				zap.String("id", r.ID),
				zap.Int("listed", len(r.Components)),
			)
		}
		accepted = append(accepted, pos)
	}
	return accepted
}
