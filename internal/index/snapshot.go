// Package index holds the frozen, queryable form of a corpus and swaps it atomically.
package index

import (
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	"github.com/kailas-cloud/circuitrank/internal/index/lexical"
	"github.com/kailas-cloud/circuitrank/internal/index/semantic"
)

// Snapshot is one fully built generation of the indexes. Document i in Docs
// owns slot i in both sub-indexes. Never mutated after construction.
type Snapshot struct {
	Generation uint64
	BuiltAt    time.Time
	Docs       []circuit.Enriched
	Semantic   *semantic.Index
	Lexical    *lexical.Index
}

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Docs)
}

// Holder publishes the current snapshot. Queries Load it once and keep using
// that pointer; Publish swaps in a replacement without waiting for them.
type Holder struct {
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current snapshot, or nil before the first Publish.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Publish stamps s with the next generation id and makes it current.
func (h *Holder) Publish(s *Snapshot) uint64 {
	s.Generation = h.generation.Add(1)
	h.current.Store(s)
	return s.Generation
}
