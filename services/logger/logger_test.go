package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

func TestRollbarLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLocal(zap.New(core))

	usr := user.User{ID: "u1", Username: "zaid", Email: "zaid@school.test"}
	l.Error("demo load failed", errors.New("boom"), map[string]interface{}{"tenant": "T1", "seed": int64(42)}, usr)

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "demo load failed", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "T1", ctx["tenant"])
	assert.Equal(t, int64(42), ctx["seed"])
	assert.Equal(t, "zaid", ctx["user"])
}

func TestRollbarLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLocal(zap.New(core))

	l.Debug("hidden")
	l.Info("info")
	l.Warn("warn", "extra")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "extra", entries[1].ContextMap()["extra"])
}

func TestNewZap(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"debug", "console", zapcore.DebugLevel},
		{"warn", "json", zapcore.WarnLevel},
		{"error", "json", zapcore.ErrorLevel},
		{"", "", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			zl, err := NewZap(tt.level, tt.format, "madarcrm-test")
			require.NoError(t, err)
			assert.True(t, zl.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, zl.Core().Enabled(tt.want-1))
			}
		})
	}
}
