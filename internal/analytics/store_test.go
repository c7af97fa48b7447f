package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndSummary(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	events := []Event{
		{Type: "page_view", Path: "/", TS: time.Now()},
		{Type: "page_view", Path: "/karte"},
		{Type: "layer_toggle", Path: "/karte", Referrer: "/"},
	}
	for _, e := range events {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record(%+v): %v", e, err)
		}
	}

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum["page_view"] != 2 || sum["layer_toggle"] != 1 {
		t.Fatalf("summary = %v", sum)
	}
}

func TestRecord_RequiresType(t *testing.T) {
	s := openStore(t)
	if err := s.Record(context.Background(), Event{Path: "/"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestSummary_Empty(t *testing.T) {
	s := openStore(t)
	sum, err := s.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum) != 0 {
		t.Fatalf("summary = %v", sum)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Record(context.Background(), Event{Type: "page_view"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()
	sum, err := s2.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum["page_view"] != 1 {
		t.Fatalf("summary = %v", sum)
	}
}
