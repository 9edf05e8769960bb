package config

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/internal/transport"
	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/enhancer"
	"github.com/agentstation/stonemap/pkg/validity"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, constants.DefaultGridPrecision, s.GridPrecision)
	assert.Equal(t, 50.0, s.Match.NearCertainMeters)
	assert.Equal(t, 0.5, s.Match.NameSimilarity)
	assert.Equal(t, string(validity.LandPolicyFlag), s.Validity.LandPolicy)
	assert.False(t, s.Enrichment.Enabled)
	assert.Equal(t, enhancer.DefaultWikimediaEndpoint, s.Enrichment.Endpoint)
	assert.Empty(t, s.Enhancers())
	assert.Len(t, s.ReconcilerOptions(), 6)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".stonemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid_precision: 3
match:
  name_similarity: 0.6
validity:
  land_policy: reject
  allowed_types: [tumulus]
enrichment:
  enabled: true
  delay: 2s
  concurrency: 2
`), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 3, s.GridPrecision)
	assert.Equal(t, 0.6, s.Match.NameSimilarity)
	assert.Equal(t, 50.0, s.Match.NearCertainMeters, "unset keys keep defaults")
	assert.Equal(t, "reject", s.Validity.LandPolicy)
	assert.Equal(t, []string{"tumulus"}, s.Validity.AllowedTypes)
	assert.Equal(t, 2*time.Second, s.Enrichment.Delay)
	require.Len(t, s.Enhancers(), 1)
	assert.Equal(t, enhancer.WikimediaName, s.Enhancers()[0].Name())

	f, err := s.Filter()
	require.NoError(t, err)
	assert.True(t, f.AllowedType("Bronze Age tumulus"))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STONEMAP_MATCH_NAME_SIMILARITY", "0.7")
	t.Setenv("STONEMAP_ENRICHMENT_ENABLED", "true")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 0.7, s.Match.NameSimilarity)
	assert.True(t, s.Enrichment.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"precision", func(s *Settings) { s.GridPrecision = 9 }},
		{"similarity", func(s *Settings) { s.Match.NameSimilarity = 2 }},
		{"land policy", func(s *Settings) { s.Validity.LandPolicy = "drop" }},
		{"concurrency", func(s *Settings) { s.Enrichment.Concurrency = 0 }},
		{"sources timeout", func(s *Settings) { s.Sources.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestTransportOptions(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://batches.example.org/osm.json",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("X-Api-Key") != "secret" {
				return httpmock.NewStringResponse(401, "unauthorized"), nil
			}
			return httpmock.NewStringResponse(200, `{"elements": []}`), nil
		})

	t.Setenv("STONEMAP_SOURCES_API_KEY", "secret")
	t.Setenv("STONEMAP_SOURCES_AUTH_HEADER", "X-Api-Key")
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultHTTPTimeout, s.Sources.Timeout)

	body, err := transport.New("batch", s.TransportOptions()...).GetBody(context.Background(), "https://batches.example.org/osm.json")
	require.NoError(t, err)
	assert.Contains(t, string(body), "elements")

	_, err = transport.New("batch", Default().TransportOptions()...).GetBody(context.Background(), "https://batches.example.org/osm.json")
	assert.Error(t, err, "no credentials without a key")
}
