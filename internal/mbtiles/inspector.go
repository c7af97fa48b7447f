// Package mbtiles inspects downloaded tile archives and reports summary
// statistics plus sanity checks used by the admin debug surface.
//
// MBTiles archives are SQLite databases with a metadata key/value table
// and a tiles table indexed by zoom/column/row; very old exports carry a
// legacy map table instead.
package mbtiles

import (
	"database/sql"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"
)

// Report is the full diagnostic output for one archive. Sub-step
// failures degrade the affected section instead of aborting the whole
// inspection.
type Report struct {
	Metadata        map[string]string `json:"metadata"`
	Tables          []string          `json:"tables"`
	Stats           *TileStats        `json:"tileStats,omitempty"`
	StatsError      string            `json:"tileStatsError,omitempty"`
	Samples         []TileSample      `json:"sampleTiles"`
	Bounds          BoundsCheck       `json:"boundsCheck"`
	Recommendations []string          `json:"recommendations"`
}

// TileStats summarizes the tiles table.
type TileStats struct {
	Total   int64             `json:"total"`
	Zooms   []int             `json:"zooms"`
	PerZoom map[int]ZoomStats `json:"perZoom,omitempty"`
}

// ZoomStats is the tile count and coordinate bounding box at one zoom.
type ZoomStats struct {
	Count  int64 `json:"count"`
	MinCol int64 `json:"minCol"`
	MaxCol int64 `json:"maxCol"`
	MinRow int64 `json:"minRow"`
	MaxRow int64 `json:"maxRow"`
}

// TileSample is one spot-checked tile record.
type TileSample struct {
	Zoom   int64 `json:"zoom"`
	Column int64 `json:"column"`
	Row    int64 `json:"row"`
	Bytes  int64 `json:"bytes"`
}

// Inspect opens the archive at path read-only and builds a Report.
// Only a failed open returns an error; every analysis sub-step degrades
// its own section. The archive is never mutated.
func Inspect(path string) (*Report, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("mbtiles: open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	// sqlite opens lazily; force a schema read so a corrupt or
	// non-database file fails here rather than in a sub-step
	var tableCount int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master`).Scan(&tableCount); err != nil {
		return nil, fmt.Errorf("mbtiles: not a readable archive: %w", err)
	}

	rep := &Report{
		Metadata: readMetadata(db),
		Tables:   readTables(db),
		Samples:  readSamples(db),
	}
	rep.Stats, rep.StatsError = readStats(db)

	raw, present := rep.Metadata["bounds"]
	rep.Bounds = ClassifyBounds(raw, present)
	rep.Recommendations = recommendations(rep)
	return rep, nil
}

func readMetadata(db *sql.DB) map[string]string {
	meta := map[string]string{}
	rows, err := db.Query(`SELECT name, value FROM metadata`)
	if err != nil {
		return meta
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name, value string
		if rows.Scan(&name, &value) == nil {
			meta[name] = value
		}
	}
	return meta
}

func readTables(db *sql.DB) []string {
	var tables []string
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return tables
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if rows.Scan(&name) == nil {
			tables = append(tables, name)
		}
	}
	return tables
}

// readStats aggregates per-zoom counts and coordinate bounds from the
// tiles table, falling back to a bare count from the legacy map table.
// When neither is readable it returns an error marker instead.
func readStats(db *sql.DB) (*TileStats, string) {
	stats, err := statsFromTiles(db)
	if err == nil && stats.Total > 0 {
		return stats, ""
	}

	var total int64
	if merr := db.QueryRow(`SELECT count(*) FROM map`).Scan(&total); merr == nil {
		return &TileStats{Total: total}, ""
	}

	if err == nil {
		// tiles table readable but empty, and no usable map table
		return nil, "no tile rows in tiles and map table is unreadable"
	}
	return nil, fmt.Sprintf("tile statistics unavailable: %v", err)
}

func statsFromTiles(db *sql.DB) (*TileStats, error) {
	rows, err := db.Query(`
		SELECT zoom_level, count(*),
		       min(tile_column), max(tile_column),
		       min(tile_row), max(tile_row)
		FROM tiles GROUP BY zoom_level`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	stats := &TileStats{PerZoom: map[int]ZoomStats{}}
	for rows.Next() {
		var zoom int
		var zs ZoomStats
		if err := rows.Scan(&zoom, &zs.Count, &zs.MinCol, &zs.MaxCol, &zs.MinRow, &zs.MaxRow); err != nil {
			return nil, err
		}
		stats.PerZoom[zoom] = zs
		stats.Zooms = append(stats.Zooms, zoom)
		stats.Total += zs.Count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Ints(stats.Zooms)
	return stats, nil
}

const sampleLimit = 5

func readSamples(db *sql.DB) []TileSample {
	samples := samplesFromQuery(db, `
		SELECT zoom_level, tile_column, tile_row, length(tile_data)
		FROM tiles LIMIT ?`)
	if len(samples) > 0 {
		return samples
	}
	// legacy schema has no tile_data column on map
	return samplesFromQuery(db, `
		SELECT zoom_level, tile_column, tile_row, 0
		FROM map LIMIT ?`)
}

func samplesFromQuery(db *sql.DB, query string) []TileSample {
	rows, err := db.Query(query, sampleLimit)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var samples []TileSample
	for rows.Next() {
		var s TileSample
		if rows.Scan(&s.Zoom, &s.Column, &s.Row, &s.Bytes) == nil {
			samples = append(samples, s)
		}
	}
	return samples
}
