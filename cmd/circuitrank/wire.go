package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/config"
	"github.com/kailas-cloud/circuitrank/internal/db"
	dbMemory "github.com/kailas-cloud/circuitrank/internal/db/memory"
	dbRedis "github.com/kailas-cloud/circuitrank/internal/db/redis"
	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/component"
	"github.com/kailas-cloud/circuitrank/internal/index"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
	"github.com/kailas-cloud/circuitrank/internal/repository/catalog"
	"github.com/kailas-cloud/circuitrank/internal/repository/embcache"
	localEmb "github.com/kailas-cloud/circuitrank/internal/transport/local"
	openaiEmb "github.com/kailas-cloud/circuitrank/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/circuitrank/internal/usecase/embedding"
	"github.com/kailas-cloud/circuitrank/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/circuitrank/internal/usecase/health"
	indexuc "github.com/kailas-cloud/circuitrank/internal/usecase/index"
	searchuc "github.com/kailas-cloud/circuitrank/internal/usecase/search"
)

// engine is the assembled ranking engine shared by every command.
type engine struct {
	cfg      config.Config
	identity domain.ModelIdentity
	store    db.Store // nil when the cache is disabled
	holder   *index.Holder
	pipeline *enrich.Pipeline
	builder  *indexuc.Builder
	search   *searchuc.Service
	health   *healthuc.Service
	source   *catalog.FileSource
}

func (e *engine) Close() {
	e.builder.Release()
	if e.store != nil {
		e.store.Close()
	}
}

// buildEngine is the composition root. Configuration errors surface here,
// before any catalog is read.
func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*engine, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	enrichCfg := enrich.Config{
		XORRatioThreshold:   cfg.Enrichment.XORRatioThreshold,
		MaxDescriptionChars: cfg.Enrichment.MaxDescriptionChars,
	}
	pipeline, err := enrich.New(enrichCfg)
	if err != nil {
		return nil, fmt.Errorf("enrichment: %w", err)
	}

	weights := searchuc.Weights{
		Semantic:  *cfg.Ranking.Weights.Semantic,
		Keyword:   *cfg.Ranking.Weights.Keyword,
		Component: *cfg.Ranking.Weights.Component,
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}

	matcher, err := buildMatcher(cfg.Ranking.SynonymsFile)
	if err != nil {
		return nil, err
	}

	base, identity, err := buildProvider(cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}

	store, backend, err := buildStore(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	docEmbedder := buildEmbedder(base, identity, cfg, cfg.Embedding.DocumentInstruction, store, backend, logger)
	queryEmbedder := buildEmbedder(base, identity, cfg, cfg.Embedding.QueryInstruction, store, backend, logger)

	holder := index.NewHolder()
	builder, err := indexuc.New(pipeline, docEmbedder, identity, holder,
		indexuc.Config{Workers: cfg.Index.Workers}, logger.Named("index"))
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	searchSvc, err := searchuc.New(holder, queryEmbedder, matcher, searchuc.Config{
		Weights: weights,
		Timeout: time.Duration(cfg.Search.QueryTimeoutMs) * time.Millisecond,
		MaxTopK: cfg.Search.MaxTopK,
	}, logger.Named("search"))
	if err != nil {
		builder.Release()
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	// Pass a nil interface, not a typed nil pointer, when the cache is off.
	var cache healthuc.CachePinger
	if store != nil {
		cache = store
	}

	logger.Info("Engine assembled",
		zap.Stringer("model", identity),
		zap.String("cache", backend),
		zap.Float64("w_semantic", weights.Semantic),
		zap.Float64("w_keyword", weights.Keyword),
		zap.Float64("w_component", weights.Component),
	)

	return &engine{
		cfg:      cfg,
		identity: identity,
		store:    store,
		holder:   holder,
		pipeline: pipeline,
		builder:  builder,
		search:   searchSvc,
		health:   healthuc.New(holder, cache, embeddingHealthChecker{queryEmbedder}),
		source:   catalog.NewFileSource(cfg.Index.CatalogFile, logger.Named("catalog")),
	}, nil
}

func buildMatcher(synonymsFile string) (*component.Matcher, error) {
	var (
		table component.Table
		err   error
	)
	if synonymsFile != "" {
		table, err = component.LoadTable(synonymsFile)
	} else {
		table, err = component.DefaultTable()
	}
	if err != nil {
		return nil, fmt.Errorf("synonym table: %w", err)
	}
	m, err := component.NewMatcher(table)
	if err != nil {
		return nil, fmt.Errorf("synonym table: %w", err)
	}
	return m, nil
}

// buildProvider creates the base embedding provider.
func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, domain.ModelIdentity, error) {
	switch cfg.Provider {
	case localEmb.Provider:
		e, err := localEmb.NewEmbedder(localEmb.Config{Dimensions: cfg.Dimensions})
		if err != nil {
			return nil, domain.ModelIdentity{}, fmt.Errorf("local embedder: %w", err)
		}
		return e, e.Identity(), nil
	case "openai":
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:     logger.Named("openai"),
		})
		return e, e.Identity(), nil
	default:
		return nil, domain.ModelIdentity{}, fmt.Errorf("embedding provider %q: %w", cfg.Provider, domain.ErrConfiguration)
	}
}

// buildStore opens the embedding cache backend. A nil store means no cache.
func buildStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, string, error) {
	switch cfg.Driver {
	case "none":
		return nil, "none", nil
	case "memory":
		s, err := dbMemory.NewStore(cfg.Size)
		if err != nil {
			return nil, "", fmt.Errorf("memory cache: %w", err)
		}
		return s, "memory", nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, "", fmt.Errorf("redis cache: %w", err)
		}
		if err := s.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			s.Close()
			return nil, "", fmt.Errorf("redis cache not ready: %w", err)
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Addrs))
		return s, cfg.Driver, nil
	default:
		return nil, "", fmt.Errorf("cache driver %q: %w", cfg.Driver, domain.ErrConfiguration)
	}
}

// buildEmbedder assembles the decorator chain:
// provider -> length guard -> retry -> instrumented -> cache -> instruction.
func buildEmbedder(
	base domain.Embedder,
	identity domain.ModelIdentity,
	cfg config.Config,
	instruction string,
	store db.Store,
	backend string,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base

	if cfg.Embedding.MaxInputChars > 0 {
		embedder = embeddinguc.NewLengthGuard(embedder, cfg.Embedding.MaxInputChars)
	}

	retry := embeddinguc.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Embedding.Retries + 1
	embedder = embeddinguc.NewRetryingEmbedder(embedder, retry, identity, logger)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, identity, logger)

	if store != nil {
		embedder = embcache.New(embedder, store, embcache.Options{
			Identity:   identity,
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
			Backend:    backend,
			CacheTotal: metrics.EmbeddingCacheTotal,
		}, logger)
	}

	// Instruction prefix is outermost so the cache key includes it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
