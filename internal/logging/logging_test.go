package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		appName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "ocaplogs",
			appName: "ocap_extract",
			want:    filepath.Join("ocaplogs", "ocap_extract.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./ocaplogs",
			appName: "ocap_extract",
			want:    filepath.Join(".", "ocaplogs", "ocap_extract.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "ocap"),
			appName: "ocap_extract",
			want:    filepath.Join("/var", "log", "ocap", "ocap_extract.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.appName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"Info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestSetup_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	m, err := Setup(Options{Level: "info", Name: "ocap_extract", Console: &console})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Empty(t, m.FilePath)
	m.Logger.Debug().Msg("hidden")
	m.Logger.Info().Str("path", "a.miz").Msg("Extracted")

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Extracted")
	assert.Contains(t, out, "a.miz")
}

func TestSetup_WritesSessionFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	var console bytes.Buffer
	m, err := Setup(Options{
		Level:        "debug",
		Dir:          dir,
		Name:         "ocap_extract",
		SessionStart: start,
		Console:      &console,
	})
	require.NoError(t, err)

	assert.Equal(t, LogFilePath(dir, "ocap_extract", start), m.FilePath)
	m.Logger.Debug().Msg("Parsed mission")
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	data, err := os.ReadFile(m.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Parsed mission")
	assert.NotContains(t, string(data), "\x1b[", "file output is uncoloured")
}

func TestSetup_BadGraylogAddress(t *testing.T) {
	var console bytes.Buffer
	_, err := Setup(Options{Console: &console, GraylogAddress: "no-port-here"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graylog")
}
