package search

import (
	"context"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/component"
	idx "github.com/kailas-cloud/circuitrank/internal/index"
)

// SnapshotSource returns the snapshot a query should pin.
type SnapshotSource interface {
	Load() *idx.Snapshot
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// IntentDetector recognizes component concepts in query tokens.
type IntentDetector interface {
	Detect(tokens []string) component.Intent
}
