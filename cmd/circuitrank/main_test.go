package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/config"
	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/search/result"
	indexuc "github.com/kailas-cloud/circuitrank/internal/usecase/index"
)

const testCatalog = "../../testdata/circuits.json"

const testConfig = `
embedding:
  provider: local
  dimensions: 64
cache:
  driver: none
index:
  workers: 2
search:
  default_top_k: 3
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"circuitrank"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestSearchCommand_JSON(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, errOut, err := runApp(t, "--config", cfg, "search", "--catalog", testCatalog, "--json", "multiplexer")
	require.NoError(t, err)
	assert.Contains(t, errOut, "indexed 6 circuits")

	var resp struct {
		Query   string       `json:"query"`
		Results []jsonResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "multiplexer", resp.Query)
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 3, "default_top_k from config")
	assert.Equal(t, "101", resp.Results[0].ID)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.InDelta(t, 1.0, resp.Results[0].Scores.Component, 1e-9)
}

func TestSearchCommand_Table(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := runApp(t, "--config", cfg, "search", "--catalog", testCatalog, "-k", "2", "ripple", "adder")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.LessOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], "103")
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	_, _, err := runApp(t, "--config", cfg, "search", "--catalog", testCatalog)
	assert.ErrorContains(t, err, "query is required")
}

func TestSearchCommand_RequiresCatalog(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	_, _, err := runApp(t, "--config", cfg, "search", "adder")
	assert.ErrorContains(t, err, "no catalog")
}

func TestEnrichCommand_FiltersByID(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := runApp(t, "--config", cfg, "enrich", "--catalog", testCatalog, "--id", "103", "--id", "104")
	require.NoError(t, err)

	var lines []enrichedLine
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var l enrichedLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		lines = append(lines, l)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "103", lines[0].ID)
	assert.Contains(t, lines[0].Types, "FullAdder")
	assert.NotEmpty(t, lines[0].Text)
	assert.Equal(t, "104", lines[1].ID)
	assert.Contains(t, lines[1].Text, "COUNTER", "scope names are kept verbatim")
}

func TestBuildEngine_RejectsBadWeights(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig + `
ranking:
  weights:
    semantic: 0.5
    keyword: 0.5
    component: 0.5
`))
	require.NoError(t, err)

	_, err = buildEngine(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildEngine_MemoryCache(t *testing.T) {
	cfg, err := config.Parse([]byte(strings.Replace(testConfig, "driver: none", "driver: memory", 1)))
	require.NoError(t, err)

	eng, err := buildEngine(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer eng.Close()

	require.NotNil(t, eng.store)
	report := eng.health.Check(context.Background())
	assert.Equal(t, "ok", string(report.Checks["cache"]))
	assert.Equal(t, "error", string(report.Checks["index"]), "nothing built yet")

	_, err = eng.builder.RebuildFrom(context.Background(), eng.source)
	require.Error(t, err, "catalog_file is empty in this config")
}

func TestBuildStore_UnknownDriver(t *testing.T) {
	_, _, err := buildStore(context.Background(), config.CacheConfig{Driver: "etcd"}, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildSummary(t *testing.T) {
	s := buildSummary(indexuc.Report{
		Generation:        2,
		Indexed:           12345,
		Rejected:          3,
		EmbeddingFailures: 1,
		Duration:          1234 * time.Millisecond,
	}, testCatalog)

	assert.Contains(t, s, "indexed 12,345 circuits")
	assert.Contains(t, s, "3 rejected")
	assert.Contains(t, s, "1 without vector")
	assert.Contains(t, s, "generation 2")
	assert.Contains(t, s, "1.234s")
}

func TestWriteResultsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResultsTable(&buf, []result.Result{
		result.New("7", "Mux", result.Scores{Keyword: 1, Component: 1, Final: 0.55}),
	}))
	out := buf.String()
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "0.5500")
	assert.Contains(t, out, "Mux")
}
