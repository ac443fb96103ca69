package domain

// VectorConfig holds default vectorization settings, not exposed to clients.
type VectorConfig struct {
	Provider      string
	Model         string
	Dimensions    int
	MaxInputChars int
}

// DefaultVectorConfig returns the offline default: the local hashing embedder
// at the MiniLM dimension the catalog experiments used.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Provider:      "local",
		Model:         "hashing-v1",
		Dimensions:    384,
		MaxInputChars: 8192,
	}
}

// Identity returns the model identity for the vector config.
func (c VectorConfig) Identity() ModelIdentity {
	return ModelIdentity{Provider: c.Provider, Model: c.Model, Dimensions: c.Dimensions}
}
