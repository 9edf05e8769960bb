// Package store exports a catalog to a SQLite database and reads it back.
package store

import (
	"context"
	"database/sql"
	"os"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
)

const driver = "sqlite"

var schema = []string{
	`CREATE TABLE sites (
		position INTEGER NOT NULL,
		canonical_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		summary TEXT,
		site_type TEXT,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		image_url TEXT,
		reference_url TEXT,
		country TEXT,
		quality_score INTEGER NOT NULL,
		flags TEXT
	)`,
	`CREATE TABLE site_sources (
		site_id TEXT NOT NULL REFERENCES sites(canonical_id),
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		source_id TEXT NOT NULL,
		PRIMARY KEY (kind, source_id)
	)`,
	`CREATE TABLE site_source_ids (
		site_id TEXT NOT NULL REFERENCES sites(canonical_id),
		kind TEXT NOT NULL,
		source_id TEXT NOT NULL,
		PRIMARY KEY (site_id, kind)
	)`,
	`CREATE INDEX idx_sites_name ON sites(name)`,
	`CREATE INDEX idx_sites_country ON sites(country)`,
	`CREATE INDEX idx_site_sources_site ON site_sources(site_id)`,
}

// Export writes the catalog to a fresh database at path, replacing any
// existing file. All rows are written in one transaction.
func Export(ctx context.Context, path string, c *sites.Catalog) (err error) {
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.WrapIO("remove", path, rmErr)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = errors.WrapIO("close", path, cerr)
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapIO("begin", path, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range schema {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return errors.WrapIO("create schema", path, err)
		}
	}

	if err = insertSites(ctx, tx, c); err != nil {
		return errors.WrapIO("insert", path, err)
	}
	if err = tx.Commit(); err != nil {
		return errors.WrapIO("commit", path, err)
	}

	logging.FromContext(ctx).Debug().
		Str("path", path).
		Int("sites", c.Len()).
		Msg("Exported catalog to SQLite")
	return nil
}

func insertSites(ctx context.Context, tx *sql.Tx, c *sites.Catalog) error {
	siteStmt, err := tx.PrepareContext(ctx, `INSERT INTO sites
		(position, canonical_id, name, summary, site_type, lat, lon, image_url, reference_url, country, quality_score, flags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer siteStmt.Close()

	srcStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO site_sources (site_id, position, kind, source_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer srcStmt.Close()

	idStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO site_source_ids (site_id, kind, source_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer idStmt.Close()

	for i, s := range c.Sites() {
		if _, err := siteStmt.ExecContext(ctx, i, s.CanonicalID, s.Name, s.Summary, s.SiteType,
			s.Coordinates.Lat, s.Coordinates.Lon, s.ImageURL, s.ReferenceURL, s.Country,
			s.QualityScore, strings.Join(s.Flags, ",")); err != nil {
			return err
		}
		for j, ref := range s.ContributingSources {
			if _, err := srcStmt.ExecContext(ctx, s.CanonicalID, j, string(ref.Kind), ref.ID); err != nil {
				return err
			}
		}
		for _, kind := range sites.Kinds {
			if id, ok := s.SourceIDs[kind]; ok {
				if _, err := idStmt.ExecContext(ctx, s.CanonicalID, string(kind), id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Import reads a catalog previously written by Export.
func Import(ctx context.Context, path string) (*sites.Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("database", path)
		}
		return nil, errors.WrapIO("stat", path, err)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer db.Close()

	list, byID, err := readSites(ctx, db)
	if err != nil {
		return nil, errors.WrapIO("read sites", path, err)
	}
	if err := readSources(ctx, db, byID); err != nil {
		return nil, errors.WrapIO("read sources", path, err)
	}
	if err := readSourceIDs(ctx, db, byID); err != nil {
		return nil, errors.WrapIO("read source ids", path, err)
	}
	return sites.FromSites(list)
}

func readSites(ctx context.Context, db *sql.DB) ([]*sites.CanonicalSite, map[string]*sites.CanonicalSite, error) {
	rows, err := db.QueryContext(ctx, `SELECT canonical_id, name, summary, site_type, lat, lon,
		image_url, reference_url, country, quality_score, flags FROM sites ORDER BY position`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var list []*sites.CanonicalSite
	byID := make(map[string]*sites.CanonicalSite)
	for rows.Next() {
		var (
			s                                          sites.CanonicalSite
			summary, siteType, image, ref, country, fl sql.NullString
		)
		if err := rows.Scan(&s.CanonicalID, &s.Name, &summary, &siteType, &s.Coordinates.Lat, &s.Coordinates.Lon,
			&image, &ref, &country, &s.QualityScore, &fl); err != nil {
			return nil, nil, err
		}
		s.Summary = summary.String
		s.SiteType = siteType.String
		s.ImageURL = image.String
		s.ReferenceURL = ref.String
		s.Country = country.String
		if fl.String != "" {
			s.Flags = strings.Split(fl.String, ",")
		}
		list = append(list, &s)
		byID[s.CanonicalID] = &s
	}
	return list, byID, rows.Err()
}

func readSources(ctx context.Context, db *sql.DB, byID map[string]*sites.CanonicalSite) error {
	rows, err := db.QueryContext(ctx, `SELECT site_id, kind, source_id FROM site_sources ORDER BY site_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var siteID, kind, sourceID string
		if err := rows.Scan(&siteID, &kind, &sourceID); err != nil {
			return err
		}
		if s, ok := byID[siteID]; ok {
			s.ContributingSources = append(s.ContributingSources,
				sites.SourceRef{Kind: sites.SourceKind(kind), ID: sourceID})
		}
	}
	return rows.Err()
}

func readSourceIDs(ctx context.Context, db *sql.DB, byID map[string]*sites.CanonicalSite) error {
	rows, err := db.QueryContext(ctx, `SELECT site_id, kind, source_id FROM site_source_ids`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var siteID, kind, sourceID string
		if err := rows.Scan(&siteID, &kind, &sourceID); err != nil {
			return err
		}
		if s, ok := byID[siteID]; ok {
			if s.SourceIDs == nil {
				s.SourceIDs = make(map[sites.SourceKind]string)
			}
			s.SourceIDs[sites.SourceKind(kind)] = sourceID
		}
	}
	return rows.Err()
}
