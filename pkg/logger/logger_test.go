package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), "logger output should be valid JSON")
	return out
}

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Int64("payment_id", 12).Msg("payment settled")

	out := decodeLine(t, &buf)
	assert.Equal(t, "payment settled", out["message"])
	assert.Equal(t, float64(12), out["payment_id"])
	assert.Equal(t, "info", out["level"])
	assert.Equal(t, ServiceName, out["service"])
	assert.Contains(t, out, "time")
	assert.NotContains(t, out, "caller")
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		emit      func(zerolog.Logger)
		wantEmpty bool
	}{
		{"debug", func(l zerolog.Logger) { l.Debug().Msg("x") }, false},
		{"info", func(l zerolog.Logger) { l.Debug().Msg("x") }, true},
		{"error", func(l zerolog.Logger) { l.Info().Msg("x") }, true},
		{"error", func(l zerolog.Logger) { l.Error().Msg("x") }, false},
		{"bogus", func(l zerolog.Logger) { l.Debug().Msg("x") }, true},
		{"bogus", func(l zerolog.Logger) { l.Info().Msg("x") }, false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		tt.emit(NewWithWriter(tt.level, &buf))
		assert.Equal(t, tt.wantEmpty, buf.Len() == 0, "level %q", tt.level)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestAlert(t *testing.T) {
	var buf bytes.Buffer
	Alert(NewWithWriter("info", &buf)).Msg("settlement rollback failed")

	out := decodeLine(t, &buf)
	assert.Equal(t, "error", out["level"])
	assert.Equal(t, true, out[AlertField])
}

func TestNew_Pretty(t *testing.T) {
	log := New("info", true)
	log.Info().Msg("pretty mode")
}
