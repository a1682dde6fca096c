package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"debug", "production", ""} {
		t.Run(mode, func(t *testing.T) {
			l, err := New(mode)
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestNewDebugEnablesDebugLevel(t *testing.T) {
	l, err := New("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("production")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
