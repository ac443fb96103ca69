// Package chi exposes the ranking engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	dombatch "github.com/kailas-cloud/circuitrank/internal/domain/batch"
	"github.com/kailas-cloud/circuitrank/internal/domain/search/result"
	"github.com/kailas-cloud/circuitrank/internal/logger"
	healthuc "github.com/kailas-cloud/circuitrank/internal/usecase/health"
	indexuc "github.com/kailas-cloud/circuitrank/internal/usecase/index"
)

type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeUnauthorized         errorCode = "unauthorized"
	codeInvalidRequest       errorCode = "invalid_request"
	codeInputTooLong         errorCode = "input_too_long"
	codeQueryTimeout         errorCode = "query_timeout"
	codeIndexNotReady        errorCode = "index_not_ready"
	codeEmbeddingUnavailable errorCode = "embedding_unavailable"
	codeEmbeddingProvider    errorCode = "embedding_provider_error"
	codeMalformedInput       errorCode = "malformed_input"
	codeRebuildFailed        errorCode = "rebuild_failed"
	codeInternal             errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// Searcher ranks circuits for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]result.Result, error)
}

// Rebuilder replaces the published snapshot with one built from src.
type Rebuilder interface {
	RebuildFrom(ctx context.Context, src indexuc.Source) (indexuc.Report, error)
}

// Options holds request defaults.
type Options struct {
	DefaultTopK int
	// RebuildTimeout bounds POST /v1/index/rebuild. Zero means no bound.
	RebuildTimeout time.Duration
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves queries, rebuilds, health and metrics.
type Server struct {
	search        Searcher
	rebuilder     Rebuilder
	source        indexuc.Source
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. rebuilder and source may be nil, in
// which case rebuild requests are refused.
func NewServer(
	search Searcher,
	rebuilder Rebuilder,
	source indexuc.Source,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 10
	}
	s := &Server{
		search:    search,
		rebuilder: rebuilder,
		source:    source,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
		sentinelHandler(domain.ErrInputTooLong, http.StatusBadRequest, codeInputTooLong),
		sentinelHandler(domain.ErrQueryTimeout, http.StatusGatewayTimeout, codeQueryTimeout),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, codeIndexNotReady),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrMalformedInput, http.StatusUnprocessableEntity, codeMalformedInput),
	}
	return s
}

type searchItem struct {
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Score  float64       `json:"score"`
	Scores result.Scores `json:"scores"`
}

type searchResponse struct {
	Query    string       `json:"query"`
	TopK     int          `json:"top_k"`
	Total    int          `json:"total"`
	Degraded bool         `json:"degraded"`
	Items    []searchItem `json:"items"`
}

// Search handles GET /v1/search?q=&top_k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "query parameter q is required")
		return
	}

	topK := s.opts.DefaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Search(ctx, q, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchItem, len(results))
	for i := range results {
		items[i] = searchItem{
			ID:     results[i].ID(),
			Name:   results[i].Name(),
			Score:  results[i].Score(),
			Scores: results[i].Scores(),
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{
		Query:    q,
		TopK:     topK,
		Total:    len(items),
		Degraded: usage.Degraded,
		Items:    items,
	})
}

type rebuildItem struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Error    string `json:"error"`
}

type rebuildResponse struct {
	Generation        uint64        `json:"generation"`
	Indexed           int           `json:"indexed"`
	Rejected          int           `json:"rejected"`
	EmbeddingFailures int           `json:"embedding_failures"`
	DurationMs        int64         `json:"duration_ms"`
	Problems          []rebuildItem `json:"problems"`
}

// Rebuild handles POST /v1/index/rebuild. The build outlives a disconnected
// client; only RebuildTimeout bounds it, and the handler answers at the
// timeout even if the build has not returned.
func (s *Server) Rebuild(w http.ResponseWriter, r *http.Request) {
	if s.rebuilder == nil || s.source == nil {
		writeError(w, http.StatusNotImplemented, codeRebuildFailed, "rebuild is not configured")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	if s.opts.RebuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RebuildTimeout)
		defer cancel()
	}

	type outcome struct {
		report indexuc.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := s.rebuilder.RebuildFrom(ctx, s.source)
		done <- outcome{report: report, err: err}
	}()

	var report indexuc.Report
	select {
	case out := <-done:
		if out.err != nil {
			s.log(r).Error("index rebuild failed", zap.Error(out.err))
			writeError(w, http.StatusInternalServerError, codeRebuildFailed, "index rebuild failed")
			return
		}
		report = out.report
	case <-ctx.Done():
		s.log(r).Error("index rebuild timed out",
			zap.Duration("timeout", s.opts.RebuildTimeout),
			zap.Error(ctx.Err()),
		)
		writeError(w, http.StatusInternalServerError, codeRebuildFailed, "index rebuild timed out")
		return
	}

	resp := rebuildResponse{
		Generation:        report.Generation,
		Indexed:           report.Indexed,
		Rejected:          report.Rejected,
		EmbeddingFailures: report.EmbeddingFailures,
		DurationMs:        report.Duration.Milliseconds(),
		Problems:          []rebuildItem{},
	}
	for _, res := range report.Results {
		if res.Status() == dombatch.StatusOK {
			continue
		}
		resp.Problems = append(resp.Problems, rebuildItem{
			Position: res.Position(),
			ID:       res.ID(),
			Status:   string(res.Status()),
			Error:    safeDomainMessage(res.Err()),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status     healthuc.Status                 `json:"status"`
	Checks     map[string]healthuc.CheckResult `json:"checks"`
	Generation uint64                          `json:"generation"`
	Documents  int                             `json:"documents"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:     report.Status,
		Checks:     report.Checks,
		Generation: report.Generation,
		Documents:  report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage == nil {
		return
	}
	if usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
	if usage.Degraded {
		w.Header().Set("X-Search-Degraded", "semantic")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if err == nil {
		return ""
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrInputTooLong,
		domain.ErrQueryTimeout,
		domain.ErrIndexNotReady,
		domain.ErrEmbeddingUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrMalformedInput,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.log(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(fmt.Errorf("unhandled: %w", err)))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// log returns the per-request logger, falling back to the server logger.
func (s *Server) log(r *http.Request) *zap.Logger {
	if l, ok := logger.Lookup(r.Context()); ok {
		return l
	}
	return s.logger
}
