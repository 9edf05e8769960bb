package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

func TestIsDatabase(t *testing.T) {
	assert.True(t, IsDatabase("out/catalog.db"))
	assert.True(t, IsDatabase("catalog.SQLITE"))
	assert.False(t, IsDatabase("catalog.json"))
	assert.False(t, IsDatabase("catalog.yaml"))
}

func TestSaveLoad(t *testing.T) {
	c, err := sites.FromSites([]*sites.CanonicalSite{{
		CanonicalID:         "avebury",
		Name:                "Avebury",
		Coordinates:         sites.Coordinates{Lat: 51.4286, Lon: -1.8542},
		ContributingSources: []sites.SourceRef{{Kind: sites.KindManual, ID: "m-1"}},
	}})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"catalog.json", "catalog.yaml", "catalog.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(context.Background(), path, c))

			got, err := Load(context.Background(), path)
			require.NoError(t, err)
			require.Equal(t, 1, got.Len())
			assert.Equal(t, "Avebury", got.Sites()[0].Name)
		})
	}

	_, err = Load(context.Background(), filepath.Join(dir, "missing.db"))
	assert.True(t, errors.IsNotFound(err))
}
