// Package semantic scores documents by cosine similarity of embedding vectors.
package semantic

import (
	"math"

	"github.com/kailas-cloud/circuitrank/internal/domain"
)

// Index holds one vector slot per document. A nil slot means the document
// could not be embedded and always scores 0. Immutable after New.
type Index struct {
	identity domain.ModelIdentity
	vectors  [][]float32
	norms    []float64
}

// New freezes vectors into an index. The slice is retained; callers must not
// modify it afterwards.
func New(identity domain.ModelIdentity, vectors [][]float32) *Index {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}
	return &Index{identity: identity, vectors: vectors, norms: norms}
}

// Identity returns the embedding space the vectors belong to.
func (x *Index) Identity() domain.ModelIdentity { return x.identity }

// Len returns the number of document slots.
func (x *Index) Len() int { return len(x.vectors) }

// Missing returns the number of documents without a vector.
func (x *Index) Missing() int {
	n := 0
	for _, v := range x.vectors {
		if v == nil {
			n++
		}
	}
	return n
}

// Scores maps cosine similarity against every document into [0,1] via (cos+1)/2.
// Documents without a vector, or with a mismatching dimension, score 0.
// A zero-norm vector on either side has cosine 0.
func (x *Index) Scores(query []float32) []float64 {
	out := make([]float64, len(x.vectors))
	qn := norm(query)
	for i, v := range x.vectors {
		if v == nil || len(v) != len(query) {
			continue
		}
		cos := 0.0
		if qn > 0 && x.norms[i] > 0 {
			cos = dot(query, v) / (qn * x.norms[i])
		}
		cos = math.Max(-1, math.Min(1, cos))
		out[i] = (cos + 1) / 2
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
