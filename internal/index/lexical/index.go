package lexical

import "github.com/kailas-cloud/circuitrank/internal/domain/text"

// Index adapts a raw Scorer to per-query normalized scores. Immutable after Build.
type Index struct {
	scorer Scorer
	size   int
}

// Build tokenizes documents and indexes them with BM25.
func Build(docs []string, params BM25Params) *Index {
	corpus := make([][]string, len(docs))
	for i, d := range docs {
		corpus[i] = text.Tokenize(d)
	}
	return &Index{scorer: NewBM25(corpus, params), size: len(docs)}
}

// NewIndex wraps an arbitrary scorer over size documents.
func NewIndex(s Scorer, size int) *Index {
	return &Index{scorer: s, size: size}
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return x.size }

// Scores returns raw scores divided by the per-query maximum, in [0,1].
// If nothing overlaps every score is 0.
func (x *Index) Scores(queryTokens []string) []float64 {
	if len(queryTokens) == 0 || x.size == 0 {
		return make([]float64, x.size)
	}
	raw := x.scorer.Scores(queryTokens)
	return normalizeByMax(raw)
}

func normalizeByMax(raw []float64) []float64 {
	out := make([]float64, len(raw))
	maxScore := 0.0
	for _, s := range raw {
		maxScore = max(maxScore, s)
	}
	if maxScore <= 0 {
		return out
	}
	for i, s := range raw {
		if s > 0 {
			out[i] = s / maxScore
		}
	}
	return out
}
