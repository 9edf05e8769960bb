package serve

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/cmd/catalog"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

func TestFlagsConfig(t *testing.T) {
	f := &Flags{Host: "0.0.0.0", Port: 9000, Prefix: "/v2", CORSOrigins: []string{"https://maps.example.org"}, RateLimit: 30, Metrics: true}
	cfg, err := f.Config()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, "/v2", cfg.PathPrefix)
	assert.True(t, cfg.CORSEnabled, "origins enable cors")
	assert.Equal(t, 30, cfg.RateLimit)
	assert.True(t, cfg.MetricsEnabled)
}

func TestFlagsConfigEnv(t *testing.T) {
	t.Setenv("HTTP_HOST", "127.0.0.1")
	t.Setenv("HTTP_PORT", "3000")
	cfg, err := (&Flags{Host: "localhost", Port: 8080}).Config()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())

	t.Setenv("HTTP_PORT", "99999")
	_, err = (&Flags{}).Config()
	assert.True(t, errors.IsValidationError(err))
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"8080", 8080, false},
		{"1", 1, false},
		{"0", 0, true},
		{"65536", 0, true},
		{"http", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePort(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServeMissingCatalog(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{})
	cmd.SetArgs([]string{"--catalog", filepath.Join(t.TempDir(), "none.json")})
	err := cmd.ExecuteContext(context.Background())
	assert.Error(t, err)
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	c, err := sites.FromSites([]*sites.CanonicalSite{{
		CanonicalID: "avebury",
		Name:        "Avebury",
		Coordinates: sites.Coordinates{Lat: 51.4286, Lon: -1.8542},
	}})
	require.NoError(t, err)
	require.NoError(t, catalog.Save(context.Background(), path, c))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cmd := NewCommand(&appcontext.Mock{})
	cmd.SetArgs([]string{"--catalog", path, "--host", "127.0.0.1", "--port", "0"})
	assert.NoError(t, cmd.ExecuteContext(ctx))
}
