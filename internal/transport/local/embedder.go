// Package local provides an in-process embedding provider that needs no
// network access. Vectors come from signed feature hashing of word unigrams,
// word bigrams and character trigrams, so texts sharing vocabulary land
// close together in cosine space.
package local

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/text"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
)

const (
	// Provider is the provider label reported in metrics and identities.
	Provider = "local"
	// Model names the hashing scheme. Bump it when the feature set changes.
	Model = "hashing-v1"
	// DefaultDimensions is used when Config.Dimensions is zero.
	DefaultDimensions = 384
)

// feature weights
const (
	unigramWeight = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.25
)

// Config configures the hashing embedder.
type Config struct {
	Dimensions int
}

// Embedder is a deterministic hashing embedder.
type Embedder struct {
	dims int
}

// NewEmbedder creates a hashing embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims < 8 {
		return nil, fmt.Errorf("local embedder dimensions %d below 8: %w", dims, domain.ErrConfiguration)
	}
	return &Embedder{dims: dims}, nil
}

// Identity implements the identity half of the embedder contract.
func (e *Embedder) Identity() domain.ModelIdentity {
	return domain.ModelIdentity{Provider: Provider, Model: Model, Dimensions: e.dims}
}

// Embed implements domain.Embedder. Text with no letters or digits yields a
// zero vector, which scores cosine 0 against everything.
func (e *Embedder) Embed(ctx context.Context, s string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("local embed: %w", err)
	}

	start := time.Now()
	tokens := text.Tokenize(s)
	vec := make([]float32, e.dims)

	for i, tok := range tokens {
		e.add(vec, "w:"+tok, unigramWeight)
		if i > 0 {
			e.add(vec, "b:"+tokens[i-1]+" "+tok, bigramWeight)
		}
		padded := []rune("^" + tok + "$")
		for j := 0; j+3 <= len(padded); j++ {
			e.add(vec, "c:"+string(padded[j:j+3]), trigramWeight)
		}
	}
	normalize(vec)

	metrics.EmbeddingRequestsTotal.WithLabelValues(Provider, Model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(Provider, Model).Observe(time.Since(start).Seconds())
	metrics.EmbeddingTokensTotal.WithLabelValues(Provider, Model, "total").Add(float64(len(tokens)))

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: len(tokens),
		TotalTokens:  len(tokens),
	}, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

// add hashes a feature into a bucket; the top bit picks the sign so
// collisions cancel on average.
func (e *Embedder) add(vec []float32, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(len(vec)))
	if h>>63 == 1 {
		weight = -weight
	}
	vec[idx] += float32(weight)
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
