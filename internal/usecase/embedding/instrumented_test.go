package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

var testIdentity = domain.ModelIdentity{Provider: "test", Model: "test-model", Dimensions: 3}

// mockEmbedder returns errs in order, then result.
type mockEmbedder struct {
	mu       sync.Mutex
	result   domain.EmbeddingResult
	errs     []error
	calls    int
	lastText string
	healthy  error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastText = text
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return domain.EmbeddingResult{}, err
	}
	return m.result, nil
}

func (m *mockEmbedder) HealthCheck(context.Context) error { return m.healthy }

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	p := NewInstrumentedEmbedder(inner, testIdentity, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
}

func TestInstrumentedEmbedder_RecordsUsage(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 100,
		TotalTokens:  100,
	}}
	p := NewInstrumentedEmbedder(inner, testIdentity, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := p.Embed(ctx, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usage.Used {
		t.Error("expected usage to be marked used")
	}
	if usage.TotalTokens != 100 {
		t.Errorf("expected 100 tokens, got %d", usage.TotalTokens)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{errs: []error{fmt.Errorf("api error: %w", domain.ErrEmbeddingProviderError)}}
	p := NewInstrumentedEmbedder(inner, testIdentity, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestInstrumentedEmbedder_HealthCheckForwards(t *testing.T) {
	down := errors.New("down")
	p := NewInstrumentedEmbedder(&mockEmbedder{healthy: down}, testIdentity, zap.NewNop())
	if err := p.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected forwarded health error, got %v", err)
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryingEmbedder_RecoversAfterTransientFailure(t *testing.T) {
	inner := &mockEmbedder{
		errs:   []error{domain.ErrEmbeddingProviderError, domain.ErrEmbeddingProviderError},
		result: domain.EmbeddingResult{Embedding: []float32{1}},
	}
	r := NewRetryingEmbedder(inner, DefaultRetryConfig(), testIdentity, zap.NewNop())
	r.sleep = noSleep

	res, err := r.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetryingEmbedder_GivesUp(t *testing.T) {
	inner := &mockEmbedder{errs: []error{
		domain.ErrEmbeddingProviderError,
		domain.ErrEmbeddingProviderError,
		domain.ErrEmbeddingProviderError,
	}}
	r := NewRetryingEmbedder(inner, RetryConfig{MaxAttempts: 2}, testIdentity, zap.NewNop())
	r.sleep = noSleep

	_, err := r.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}

func TestRetryingEmbedder_DoesNotRetryInputErrors(t *testing.T) {
	inner := &mockEmbedder{errs: []error{domain.ErrInputTooLong}}
	r := NewRetryingEmbedder(inner, DefaultRetryConfig(), testIdentity, zap.NewNop())
	r.sleep = noSleep

	_, err := r.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrInputTooLong) {
		t.Fatalf("expected ErrInputTooLong, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected a single call, got %d", inner.calls)
	}
}

func TestRetryingEmbedder_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &mockEmbedder{errs: []error{domain.ErrEmbeddingProviderError, domain.ErrEmbeddingProviderError}}
	r := NewRetryingEmbedder(inner, DefaultRetryConfig(), testIdentity, zap.NewNop())
	r.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := r.Embed(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestLengthGuard(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	g := NewLengthGuard(inner, 5)

	if _, err := g.Embed(context.Background(), "héllo"); err != nil {
		t.Fatalf("5 runes should pass: %v", err)
	}
	_, err := g.Embed(context.Background(), "héllo!")
	if !errors.Is(err, domain.ErrInputTooLong) {
		t.Fatalf("expected ErrInputTooLong, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("guard must not call inner for rejected input, calls=%d", inner.calls)
	}
}

func TestLengthGuard_Disabled(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	g := NewLengthGuard(inner, 0)
	if _, err := g.Embed(context.Background(), string(make([]byte, 10000))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
