package mbtiles

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createArchive builds a throwaway sqlite file and runs the given
// statements against it.
func createArchive(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mbtiles")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

const (
	createMetadata = `CREATE TABLE metadata (name TEXT, value TEXT)`
	createTiles    = `CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)`
	createMap      = `CREATE TABLE map (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_id TEXT)`
)

func TestInspect_FullArchive(t *testing.T) {
	path := createArchive(t,
		createMetadata,
		createTiles,
		`INSERT INTO metadata VALUES ('name','flood_depth'), ('bounds','3.36,50.75,7.23,53.56'), ('maxzoom','14')`,
		`INSERT INTO tiles VALUES (8, 131, 85, x'89504e47'), (8, 132, 85, x'89504e47'), (12, 2100, 1360, x'89')`,
	)

	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if rep.Metadata["name"] != "flood_depth" {
		t.Errorf("metadata = %v", rep.Metadata)
	}
	if len(rep.Tables) != 2 {
		t.Errorf("tables = %v", rep.Tables)
	}
	if rep.StatsError != "" {
		t.Fatalf("unexpected stats error: %s", rep.StatsError)
	}
	if rep.Stats.Total != 3 {
		t.Errorf("total = %d", rep.Stats.Total)
	}
	if len(rep.Stats.Zooms) != 2 || rep.Stats.Zooms[0] != 8 || rep.Stats.Zooms[1] != 12 {
		t.Errorf("zooms = %v", rep.Stats.Zooms)
	}
	z8 := rep.Stats.PerZoom[8]
	if z8.Count != 2 || z8.MinCol != 131 || z8.MaxCol != 132 || z8.MinRow != 85 || z8.MaxRow != 85 {
		t.Errorf("zoom 8 stats = %+v", z8)
	}
	if len(rep.Samples) != 3 {
		t.Errorf("samples = %+v", rep.Samples)
	}
	if rep.Samples[0].Bytes != 4 {
		t.Errorf("sample bytes = %d", rep.Samples[0].Bytes)
	}
	if rep.Bounds.Status != "valid" {
		t.Errorf("bounds status = %q", rep.Bounds.Status)
	}
}

func TestInspect_LegacyMapFallback(t *testing.T) {
	path := createArchive(t,
		createMetadata,
		createMap,
		`INSERT INTO map VALUES (5, 16, 10, 'a'), (5, 17, 10, 'b')`,
	)

	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.StatsError != "" {
		t.Fatalf("stats error: %s", rep.StatsError)
	}
	if rep.Stats.Total != 2 || len(rep.Stats.Zooms) != 0 {
		t.Errorf("stats = %+v", rep.Stats)
	}
	if len(rep.Samples) != 2 || rep.Samples[0].Bytes != 0 {
		t.Errorf("samples = %+v", rep.Samples)
	}
}

func TestInspect_StatsErrorMarker(t *testing.T) {
	// empty tiles table, no map table: stats must degrade, not fault
	path := createArchive(t, createMetadata, createTiles)

	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Stats != nil {
		t.Errorf("stats = %+v, want nil", rep.Stats)
	}
	if rep.StatsError == "" {
		t.Error("expected a statistics error marker")
	}
}

func TestInspect_NoTablesAtAll(t *testing.T) {
	path := createArchive(t, `CREATE TABLE unrelated (x INTEGER)`)

	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(rep.Metadata) != 0 {
		t.Errorf("metadata = %v", rep.Metadata)
	}
	if rep.StatsError == "" {
		t.Error("expected a statistics error marker")
	}
	if rep.Bounds.Status != "no_bounds" {
		t.Errorf("bounds status = %q", rep.Bounds.Status)
	}
}

func TestInspect_OpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mbtiles")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(path); err == nil {
		t.Fatal("expected open failure for non-database file")
	}
}

func TestClassifyBounds(t *testing.T) {
	// exact reference box
	check := ClassifyBounds("3.36,50.75,7.23,53.56", true)
	if check.Status != "valid" || !check.Overlaps || !check.Contained {
		t.Fatalf("check = %+v", check)
	}
	if check.Width < 3.8 || check.Width > 3.9 {
		t.Errorf("width = %v", check.Width)
	}

	// default placeholder: overlaps but is far too large to be contained
	check = ClassifyBounds("-15,30,35,75", true)
	if check.Status != "suspicious" || !check.Overlaps || check.Contained {
		t.Fatalf("check = %+v", check)
	}

	// disjoint region
	check = ClassifyBounds("100,10,110,20", true)
	if check.Status != "suspicious" || check.Overlaps {
		t.Fatalf("check = %+v", check)
	}

	// missing key
	if got := ClassifyBounds("", false); got.Status != "no_bounds" {
		t.Fatalf("status = %q", got.Status)
	}

	// unparseable values
	check = ClassifyBounds("a,b,c,d", true)
	if check.Status != "invalid" || check.Error == "" {
		t.Fatalf("check = %+v", check)
	}
	if got := ClassifyBounds("1,2,3", true); got.Status != "invalid" {
		t.Fatalf("status = %q", got.Status)
	}
	if got := ClassifyBounds("7,50,3,53", true); got.Status != "invalid" {
		t.Fatalf("degenerate box status = %q", got.Status)
	}
}

func TestRecommendations(t *testing.T) {
	rep := &Report{
		Metadata: map[string]string{
			"bounds":  "-15,30,35,75",
			"maxzoom": "8",
		},
		Stats: &TileStats{
			Total: 12,
			Zooms: []int{4, 5, 6},
		},
	}
	recs := recommendations(rep)
	if len(recs) != 5 {
		t.Fatalf("got %d recommendations: %v", len(recs), recs)
	}
	joined := strings.Join(recs, "\n")
	for _, want := range []string{"incomplete", "placeholder", "maxzoom", "zoom 10", "zoom levels"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing recommendation containing %q in %v", want, recs)
		}
	}
}

func TestRecommendations_HealthyArchive(t *testing.T) {
	rep := &Report{
		Metadata: map[string]string{
			"bounds":  "3.36,50.75,7.23,53.56",
			"maxzoom": "14",
		},
		Stats: &TileStats{
			Total: 5000,
			Zooms: []int{6, 7, 8, 9, 10, 11, 12, 13, 14},
		},
	}
	if recs := recommendations(rep); len(recs) != 0 {
		t.Fatalf("unexpected recommendations: %v", recs)
	}
}
