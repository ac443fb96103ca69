package index

import (
	"context"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	idx "github.com/kailas-cloud/circuitrank/internal/index"
)

// Enricher turns a record into its searchable form.
type Enricher interface {
	Enrich(r *circuit.Record) circuit.Enriched
}

// Embedder vectorizes enriched text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Publisher makes a finished snapshot visible to queries.
type Publisher interface {
	Publish(s *idx.Snapshot) uint64
}

// Source supplies the records for a rebuild.
type Source interface {
	Load(ctx context.Context) ([]circuit.Record, error)
}
