package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core))

	l.Info("gallery", "image saved", map[string]interface{}{"user_id": "u1"})
	l.Warn("gallery", "orphaned blob", nil)
	l.Error("generation", "batch failed", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "image saved", entries[0].Message)
	assert.Equal(t, "gallery", entries[0].ContextMap()["module"])
	assert.Equal(t, map[string]interface{}{"user_id": "u1"}, entries[0].ContextMap()["details"])

	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestNewZapLogger_WritesFile(t *testing.T) {
	l := NewZapLogger(t.TempDir()+"/app.log", true)
	l.Info("test", "hello", nil)
	_ = l.Sync()
}
