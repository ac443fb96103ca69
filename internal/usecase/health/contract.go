package health

import (
	"context"

	"github.com/kailas-cloud/circuitrank/internal/index"
)

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotSource exposes the published index snapshot.
type SnapshotSource interface {
	Load() *index.Snapshot
}
