package search

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	"github.com/kailas-cloud/circuitrank/internal/domain/search/result"
)

// weightTolerance is how far the weight sum may drift from 1.0.
const weightTolerance = 1e-6

// Weights are the fusion coefficients of the three signals.
type Weights struct {
	Semantic  float64 `yaml:"semantic"`
	Keyword   float64 `yaml:"keyword"`
	Component float64 `yaml:"component"`
}

// DefaultWeights returns 0.45 semantic, 0.45 keyword, 0.10 component.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.45, Keyword: 0.45, Component: 0.10}
}

// Validate rejects negative weights and sums off 1.0.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Semantic, w.Keyword, w.Component} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weights %+v: negative or non-finite weight: %w", w, domain.ErrConfiguration)
		}
	}
	if sum := w.Semantic + w.Keyword + w.Component; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights %+v sum to %g, want 1: %w", w, sum, domain.ErrConfiguration)
	}
	return nil
}

// withoutSemantic spreads the semantic weight over keyword and component in
// proportion to their current weights.
func (w Weights) withoutSemantic() (Weights, error) {
	rest := w.Keyword + w.Component
	if rest <= 0 {
		return Weights{}, fmt.Errorf("no signal left without semantic scoring: %w", domain.ErrEmbeddingUnavailable)
	}
	return Weights{Keyword: w.Keyword / rest, Component: w.Component / rest}, nil
}

// signals holds one score per document slot for each signal. A nil slice
// means the signal was skipped and contributes 0.
type signals struct {
	semantic  []float64
	keyword   []float64
	component []float64
}

func at(s []float64, i int) float64 {
	if s == nil {
		return 0
	}
	return s[i]
}

// fuse combines per-document signals into a ranked list of at most topK hits.
// Rows whose three sub-scores are all zero are dropped. Ordering: final desc,
// keyword desc, ID asc.
func fuse(docs []circuit.Enriched, sig signals, w Weights, topK int) []result.Result {
	rows := make([]result.Result, 0, len(docs))
	for i, doc := range docs {
		s := result.Scores{
			Semantic:  at(sig.semantic, i),
			Keyword:   at(sig.keyword, i),
			Component: at(sig.component, i),
		}
		if s.Zero() {
			continue
		}
		s.Final = w.Semantic*s.Semantic + w.Keyword*s.Keyword + w.Component*s.Component
		rows = append(rows, result.New(doc.ID, doc.Name, s))
	}

	slices.SortFunc(rows, compareResults)

	if topK > 0 && len(rows) > topK {
		rows = rows[:topK]
	}
	return rows
}

func compareResults(a, b result.Result) int {
	sa, sb := a.Scores(), b.Scores()
	if c := cmp.Compare(sb.Final, sa.Final); c != 0 {
		return c
	}
	if c := cmp.Compare(sb.Keyword, sa.Keyword); c != 0 {
		return c
	}
	return circuit.CompareIDs(a.ID(), b.ID())
}
