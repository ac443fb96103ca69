package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Envs(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker", "cli"} {
		l, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l, env)
	}

	_, err := NewLogger("staging")
	assert.ErrorContains(t, err, "unknown environment")
}

func TestNewLogger_CLIDefaultsToWarn(t *testing.T) {
	l, err := NewLogger("cli")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = NewLogger("cli", "debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger("local", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, level)
}

func TestContextLogger(t *testing.T) {
	_, ok := Lookup(context.Background())
	assert.False(t, ok)
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	got, ok := Lookup(ctx)
	require.True(t, ok)
	assert.Same(t, l, got)
	assert.Same(t, l, FromContext(ctx))

	_, ok = Lookup(ContextWithLogger(context.Background(), nil))
	assert.False(t, ok, "nil logger is treated as absent")
}
