// Package lexical ranks documents by term overlap with the query.
package lexical

import "math"

// Scorer is the raw lexical ranking capability: one non-negative score per
// corpus document, 0 meaning no overlap.
type Scorer interface {
	Scores(query []string) []float64
}

// BM25Params are the Okapi BM25 free parameters.
type BM25Params struct {
	K1 float64
	B  float64
}

// DefaultBM25Params are the usual Okapi defaults.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.5, B: 0.75}
}

// BM25 is an Okapi BM25 scorer over a fixed corpus. The idf variant
// ln(1 + (N-df+0.5)/(df+0.5)) is always positive, so any overlap scores > 0.
type BM25 struct {
	params BM25Params
	tf     []map[string]int
	docLen []int
	avgLen float64
	idf    map[string]float64
}

// NewBM25 indexes a tokenized corpus.
func NewBM25(corpus [][]string, params BM25Params) *BM25 {
	b := &BM25{
		params: params,
		tf:     make([]map[string]int, len(corpus)),
		docLen: make([]int, len(corpus)),
		idf:    make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		freqs := make(map[string]int, len(doc))
		for _, tok := range doc {
			freqs[tok]++
		}
		for tok := range freqs {
			df[tok]++
		}
		b.tf[i] = freqs
		b.docLen[i] = len(doc)
		total += len(doc)
	}
	if len(corpus) > 0 {
		b.avgLen = float64(total) / float64(len(corpus))
	}

	n := float64(len(corpus))
	for tok, f := range df {
		b.idf[tok] = math.Log(1 + (n-float64(f)+0.5)/(float64(f)+0.5))
	}
	return b
}

// Scores returns the raw BM25 score of every document. Repeated query terms
// count once per occurrence.
func (b *BM25) Scores(query []string) []float64 {
	out := make([]float64, len(b.tf))
	if b.avgLen == 0 {
		return out
	}
	k1, bp := b.params.K1, b.params.B
	for _, term := range query {
		idf, ok := b.idf[term]
		if !ok {
			continue
		}
		for i, freqs := range b.tf {
			f := float64(freqs[term])
			if f == 0 {
				continue
			}
			lenNorm := 1 - bp + bp*float64(b.docLen[i])/b.avgLen
			out[i] += idf * f * (k1 + 1) / (f + k1*lenNorm)
		}
	}
	return out
}
