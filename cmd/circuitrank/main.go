package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/config"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	"github.com/kailas-cloud/circuitrank/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/circuitrank/internal/logger"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
	chiTransport "github.com/kailas-cloud/circuitrank/internal/transport/chi"
	indexuc "github.com/kailas-cloud/circuitrank/internal/usecase/index"
	"github.com/kailas-cloud/circuitrank/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	catalogFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "catalog",
			Aliases: []string{"c"},
			Usage:   "Path to the circuit catalog JSON (overrides index.catalog_file)",
		}
	}

	return &cli.App{
		Name:    "circuitrank",
		Usage:   "Hybrid search over digital logic circuit catalogs",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name; selects config/<env>.yaml",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Explicit config file path",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Build the index and serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.IntFlag{
						Name:  "port",
						Usage: "HTTP port (overrides http.port)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Build the index and run one query",
				ArgsUsage: "<query words>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results (default search.default_top_k)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:   "enrich",
				Usage:  "Print the enriched text of catalog records as JSON lines",
				Action: enrichCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Only print these record ids",
					},
				},
			},
		},
	}
}

// setup loads config and builds a logger. Serve logs per env; one-shot
// commands log to stderr at warn unless --log-level says otherwise.
func setup(c *cli.Context, server bool) (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if p := c.String("catalog"); p != "" {
		cfg.Index.CatalogFile = p
	}

	logEnv, level := "cli", c.String("log-level")
	if server {
		logEnv = c.String("env")
		if level == "" {
			level = cfg.Logging.Level
		}
	}
	logger, err := logpkg.NewLogger(logEnv, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func serveCommand(c *cli.Context) error {
	cfg, logger, err := setup(c, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if p := c.Int("port"); p > 0 {
		cfg.HTTP.Port = p
	}

	logger.Info("Starting circuitrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", c.String("env")),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx := context.Background()
	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if cfg.Index.CatalogFile != "" {
		report, err := eng.builder.RebuildFrom(ctx, eng.source)
		if err != nil {
			return fmt.Errorf("initial index build: %w", err)
		}
		logger.Info(buildSummary(report, eng.source.Path()))
	} else {
		logger.Warn("No catalog configured; index stays empty until POST /v1/index/rebuild")
	}

	metrics.RegisterHTTPMetrics()
	server := chiTransport.NewServer(eng.search, eng.builder, eng.source, eng.health, chiTransport.Options{
		DefaultTopK:    cfg.Search.DefaultTopK,
		RebuildTimeout: time.Duration(cfg.Index.RebuildTimeoutSec) * time.Second,
	}, logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("search: query is required")
	}

	cfg, logger, err := setup(c, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Index.CatalogFile == "" {
		return errors.New("search: no catalog; pass --catalog or set index.catalog_file")
	}

	ctx := c.Context
	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	report, err := eng.builder.RebuildFrom(ctx, eng.source)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, buildSummary(report, eng.source.Path()))

	topK := c.Int("top-k")
	if topK <= 0 {
		topK = cfg.Search.DefaultTopK
	}
	results, err := eng.search.Search(ctx, query, topK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if c.Bool("json") {
		return writeResultsJSON(c.App.Writer, query, results)
	}
	return writeResultsTable(c.App.Writer, results)
}

func enrichCommand(c *cli.Context) error {
	cfg, logger, err := setup(c, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Index.CatalogFile == "" {
		return errors.New("enrich: no catalog; pass --catalog or set index.catalog_file")
	}

	eng, err := buildEngine(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	records, err := eng.source.Load(c.Context)
	if err != nil {
		return err
	}
	return writeEnriched(c.App.Writer, eng.pipeline, records, c.StringSlice("id"))
}

type enrichedLine struct {
	ID      string          `json:"id"`
	Name    string          `json:"name,omitempty"`
	Pattern circuit.Pattern `json:"pattern"`
	Types   []string        `json:"types"`
	Text    string          `json:"text"`
}

type recordEnricher interface {
	Enrich(r *circuit.Record) circuit.Enriched
}

func writeEnriched(w io.Writer, p recordEnricher, records []circuit.Record, ids []string) error {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	enc := json.NewEncoder(w)
	for i := range records {
		if _, ok := want[records[i].ID]; len(want) > 0 && !ok {
			continue
		}
		e := p.Enrich(&records[i])
		types := e.Structure.Types
		if types == nil {
			types = []string{}
		}
		if err := enc.Encode(enrichedLine{
			ID:      e.ID,
			Name:    e.Name,
			Pattern: e.Structure.Pattern,
			Types:   types,
			Text:    e.Text,
		}); err != nil {
			return fmt.Errorf("write enriched record: %w", err)
		}
	}
	return nil
}

func writeResultsTable(w io.Writer, results []result.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tFINAL\tSEM\tKW\tCOMP\tNAME")
	for i := range results {
		s := results[i].Scores()
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			i+1, results[i].ID(), s.Final, s.Semantic, s.Keyword, s.Component, results[i].Name())
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

type jsonResult struct {
	Rank   int           `json:"rank"`
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Scores result.Scores `json:"scores"`
}

func writeResultsJSON(w io.Writer, query string, results []result.Result) error {
	out := struct {
		Query   string       `json:"query"`
		Results []jsonResult `json:"results"`
	}{Query: query, Results: make([]jsonResult, len(results))}
	for i := range results {
		out.Results[i] = jsonResult{Rank: i + 1, ID: results[i].ID(), Name: results[i].Name(), Scores: results[i].Scores()}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// buildSummary renders a one-line build report.
func buildSummary(r indexuc.Report, path string) string {
	size := ""
	if fi, err := os.Stat(path); err == nil {
		size = " (" + humanize.Bytes(uint64(fi.Size())) + ")" //nolint:gosec // file sizes are non-negative
	}
	return fmt.Sprintf("indexed %s circuits from %s%s in %s: %s rejected, %s without vector, generation %d",
		humanize.Comma(int64(r.Indexed)), path, size, r.Duration.Round(time.Millisecond),
		humanize.Comma(int64(r.Rejected)), humanize.Comma(int64(r.EmbeddingFailures)), r.Generation)
}
