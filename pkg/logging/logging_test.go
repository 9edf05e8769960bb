package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestParseFields(t *testing.T) {
	fields := parseFields("service=stonemap, env = test,broken")
	assert.Equal(t, map[string]string{"service": "stonemap", "env": "test"}, fields)
	assert.Empty(t, parseFields(""))
}

func TestNewLoggerFromConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stonemap.log")
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	logger := NewLoggerFromConfig(&Config{
		Level:  "info",
		Format: "json",
		Output: path,
		Fields: map[string]string{"service": "stonemap"},
	})
	logger.Info().Str("batch", "b1").Msg("processed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"batch":"b1"`)
	assert.Contains(t, string(data), `"service":"stonemap"`)
}

func TestContextHelpers(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithRun(ctx, "run-1")
	ctx = WithBatch(ctx, "osm")
	ctx = WithRecord(ctx, "crowd_geo:node/1")
	ctx = WithSite(ctx, "stonehenge")

	FromContext(ctx).Info().Msg("merged")

	tl.AssertContains(t, `"run_id":"run-1"`)
	tl.AssertContains(t, `"batch":"osm"`)
	tl.AssertContains(t, `"record":"crowd_geo:node/1"`)
	tl.AssertContains(t, `"site_id":"stonehenge"`)
	assert.Len(t, tl.Lines(), 1)
}

func TestFromContextDefaults(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, Default(), FromContext(nil))
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := CaptureLoggingForTest(t)
	Warn().Str("reason", "garbage_content").Msg("rejected")
	tl.AssertContains(t, "garbage_content")
}
