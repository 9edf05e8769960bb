// Package handlers provides HTTP request handlers for the catalog API.
package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/stonemap/internal/server/cache"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/spatial"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	catalog   *sites.Catalog
	index     *spatial.Index
	cache     *cache.Cache
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance. index must hold every site of catalog.
func New(catalog *sites.Catalog, index *spatial.Index, cache *cache.Cache, logger *zerolog.Logger, startTime time.Time) *Handlers {
	return &Handlers{
		catalog:   catalog,
		index:     index,
		cache:     cache,
		logger:    logger,
		startTime: startTime,
	}
}
