package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/circuitrank/internal/domain"
)

// Config holds the circuitrank service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Cache      CacheConfig      `yaml:"cache"`
	Index      IndexConfig      `yaml:"index"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Search     SearchConfig     `yaml:"search"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty = auth disabled
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // local, openai
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	MaxInputChars       int    `yaml:"max_input_chars"`
	Retries             int    `yaml:"retries"` // attempts after the first
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, memory, redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Size             int      `yaml:"size"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds build settings.
type IndexConfig struct {
	Workers     int    `yaml:"workers"`
	CatalogFile string `yaml:"catalog_file"`
	// RebuildTimeoutSec bounds one rebuild triggered over HTTP.
	RebuildTimeoutSec int `yaml:"rebuild_timeout_sec"`
}

// EnrichmentConfig tunes the enrichment pipeline.
type EnrichmentConfig struct {
	XORRatioThreshold   float64 `yaml:"xor_ratio_threshold"`
	MaxDescriptionChars int     `yaml:"max_description_chars"`
}

// WeightsConfig holds the fusion weights. Nil fields take defaults.
type WeightsConfig struct {
	Semantic  *float64 `yaml:"semantic"`
	Keyword   *float64 `yaml:"keyword"`
	Component *float64 `yaml:"component"`
}

// RankingConfig holds ranking policy.
type RankingConfig struct {
	Weights      WeightsConfig `yaml:"weights"`
	SynonymsFile string        `yaml:"synonyms_file"` // empty: built-in table
}

// SearchConfig holds query limits.
type SearchConfig struct {
	DefaultTopK    int `yaml:"default_top_k"`
	MaxTopK        int `yaml:"max_top_k"`
	QueryTimeoutMs int `yaml:"query_timeout_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, substitutes ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	vec := domain.DefaultVectorConfig()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = vec.Provider
	}
	if c.Embedding.Provider == vec.Provider {
		if c.Embedding.Model == "" {
			c.Embedding.Model = vec.Model
		}
		if c.Embedding.Dimensions == 0 {
			c.Embedding.Dimensions = vec.Dimensions
		}
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.MaxInputChars == 0 {
		c.Embedding.MaxInputChars = vec.MaxInputChars
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 10000
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	if c.Index.RebuildTimeoutSec == 0 {
		c.Index.RebuildTimeoutSec = 300
	}

	if c.Enrichment.XORRatioThreshold == 0 {
		c.Enrichment.XORRatioThreshold = 0.3
	}

	def := func(p **float64, v float64) {
		if *p == nil {
			*p = &v
		}
	}
	def(&c.Ranking.Weights.Semantic, 0.45)
	def(&c.Ranking.Weights.Keyword, 0.45)
	def(&c.Ranking.Weights.Component, 0.10)

	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 100
	}
	if c.Search.QueryTimeoutMs == 0 {
		c.Search.QueryTimeoutMs = 5000
	}
}

// Validate checks the configuration for correctness. Fusion weights and
// enrichment thresholds are validated by the components that consume them.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Embedding.Provider {
	case "local":
	case "openai":
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider openai")
		}
		if c.Embedding.Dimensions < 0 {
			return fmt.Errorf("embedding.dimensions must not be negative")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"local\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Retries < 0 {
		return fmt.Errorf("embedding.retries must not be negative, got %d", c.Embedding.Retries)
	}
	switch c.Cache.Driver {
	case "none", "memory":
	case "redis", "valkey":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %s", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be none, memory or redis, got %q", c.Cache.Driver)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must not be negative, got %d", c.Index.Workers)
	}
	if c.Index.RebuildTimeoutSec < 0 {
		return fmt.Errorf("index.rebuild_timeout_sec must not be negative, got %d", c.Index.RebuildTimeoutSec)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
