package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileSource_LoadLogsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuits.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1}, {"id": [1]}]`), 0o600))

	core, logs := observer.New(zapcore.WarnLevel)
	src := NewFileSource(path, zap.New(core))

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, 1, logs.FilterMessage("Catalog element skipped").Len())
	assert.Equal(t, path, src.Path())
}

func TestFileSource_RereadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuits.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1}]`), 0o600))
	src := NewFileSource(path, zap.NewNop())

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1}, {"id": 2}]`), 0o600))
	records, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFileSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource("does-not-matter.json", zap.NewNop()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop()).Load(context.Background())
	assert.Error(t, err)
}
