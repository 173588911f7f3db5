package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesToEveryWriter(t *testing.T) {
	var stdout, audit bytes.Buffer
	logger := New(slog.LevelInfo, &stdout, &audit).With(slog.String("component", "test"))

	logger.Debug("hidden")
	logger.Info("account created", slog.String("user_id", "u-1"))

	for _, buf := range []*bytes.Buffer{&stdout, &audit} {
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
		assert.Equal(t, "account created", rec["msg"])
		assert.Equal(t, "u-1", rec["user_id"])
		assert.Equal(t, "test", rec["component"])
	}
}

func TestOpenAuditFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	f, err := OpenAuditFile(dir, now)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, filepath.Join(dir, "2024-03-09-14-05-07.log"), f.Name())

	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}
