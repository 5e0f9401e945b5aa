package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		level string
		want  slog.Level
	}{
		{name: "prod default", env: "prod", want: slog.LevelInfo},
		{name: "dev default", env: "dev", want: slog.LevelDebug},
		{name: "override warn", env: "dev", level: "warn", want: slog.LevelWarn},
		{name: "override error", env: "prod", level: "ERROR", want: slog.LevelError},
		{name: "unknown override ignored", env: "prod", level: "loud", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := newLogger(&bytes.Buffer{}, tt.env, tt.level)
			ctx := context.Background()
			assert.True(t, log.Enabled(ctx, tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, log.Enabled(ctx, tt.want-1))
			}
		})
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "")
	log.Info("cart approved", "count", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cart approved", rec["msg"])
	assert.EqualValues(t, 3, rec["count"])
}
