package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := Wrap(zap.New(core)).With(String("job_id", "j1"))

	l.Info("loop complete", Int("loop", 2), Float64("reward", 0.5))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "loop complete", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "j1", ctx["job_id"])
	assert.EqualValues(t, 2, ctx["loop"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	assert.NoError(t, l.With(String("a", "b")).Sync())
}
