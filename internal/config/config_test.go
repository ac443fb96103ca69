package config

import "testing"

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "nebius"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}

	expected := `embedding.provider must be "local" or "openai", got "nebius"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_OpenAIRequiresModel(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{Provider: "openai"}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing openai model")
	}
}

func TestValidate_CacheDrivers(t *testing.T) {
	for _, driver := range []string{"none", "memory"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = driver
			if err := cfg.Validate(); err != nil {
				t.Errorf("unexpected error for driver %q: %v", driver, err)
			}
		})
	}
}

func TestValidate_NegativeRebuildTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Index.RebuildTimeoutSec = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative rebuild timeout")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "redis"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_TopKBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultTopK = 500

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default_top_k exceeds max_top_k")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Embedding.Provider != "local" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected local/384, got %s/%d", cfg.Embedding.Provider, cfg.Embedding.Dimensions)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected Driver=memory, got %q", cfg.Cache.Driver)
	}
	if *cfg.Ranking.Weights.Semantic != 0.45 || *cfg.Ranking.Weights.Keyword != 0.45 || *cfg.Ranking.Weights.Component != 0.10 {
		t.Errorf("unexpected default weights: %v %v %v",
			*cfg.Ranking.Weights.Semantic, *cfg.Ranking.Weights.Keyword, *cfg.Ranking.Weights.Component)
	}
	if cfg.Search.DefaultTopK != 10 || cfg.Search.MaxTopK != 100 {
		t.Errorf("expected top_k 10/100, got %d/%d", cfg.Search.DefaultTopK, cfg.Search.MaxTopK)
	}
	if cfg.Enrichment.XORRatioThreshold != 0.3 {
		t.Errorf("expected XORRatioThreshold=0.3, got %v", cfg.Enrichment.XORRatioThreshold)
	}
	if cfg.Index.RebuildTimeoutSec != 300 {
		t.Errorf("expected RebuildTimeoutSec=300, got %d", cfg.Index.RebuildTimeoutSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Cache:   CacheConfig{Driver: "none"},
		Ranking: RankingConfig{Weights: WeightsConfig{Semantic: &zero}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Cache.Driver != "none" {
		t.Errorf("expected Driver=none, got %q", cfg.Cache.Driver)
	}
	if *cfg.Ranking.Weights.Semantic != 0 {
		t.Errorf("expected explicit zero semantic weight to survive, got %v", *cfg.Ranking.Weights.Semantic)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("CIRCUITRANK_TEST_PORT", "9090")

	cfg, err := Parse([]byte(`
http:
  port: ${CIRCUITRANK_TEST_PORT}
cache:
  driver: ${CIRCUITRANK_TEST_DRIVER:-none}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Cache.Driver != "none" {
		t.Errorf("expected Driver=none, got %q", cfg.Cache.Driver)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected yaml error")
	}
	if _, err := Parse([]byte("embedding:\n  provider: bogus\n")); err == nil {
		t.Fatal("expected validation error")
	}
}
