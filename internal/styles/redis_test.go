package styles

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates a store connected to miniredis for testing
func newMini(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rs, err := NewRedisStore(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })
	return rs
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	rs := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cfg := Config{
		LayerID:     "flood_depth",
		Kind:        "raster",
		ColorScheme: "viridis",
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := rs.Set(ctx, cfg); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := rs.Get(ctx, "flood_depth")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ColorScheme != "viridis" || got.Kind != "raster" {
		t.Fatalf("got %+v", got)
	}

	if err := rs.Delete(ctx, "flood_depth"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := rs.Get(ctx, "flood_depth"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_MissingLayer(t *testing.T) {
	rs := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := rs.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
	if err := rs.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_LastWriteWins(t *testing.T) {
	rs := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first := Config{LayerID: "heat", ColorScheme: "magma"}
	second := Config{LayerID: "heat", ColorScheme: "inferno"}
	if err := rs.Set(ctx, first); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := rs.Set(ctx, second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := rs.Get(ctx, "heat")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ColorScheme != "inferno" {
		t.Fatalf("got %q, want the later write", got.ColorScheme)
	}
}

func TestRedisStore_ValidatesConfig(t *testing.T) {
	rs := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rs.Set(ctx, Config{}); err == nil {
		t.Fatal("expected error for missing layerId")
	}
	bad := 1.5
	if err := rs.Set(ctx, Config{LayerID: "x", Opacity: &bad}); err == nil {
		t.Fatal("expected error for out-of-range opacity")
	}
}

func TestMemoryStore(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := ms.Set(ctx, Config{LayerID: "x", Kind: "vector"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ms.Get(ctx, "x")
	if err != nil || got.Kind != "vector" {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if err := ms.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := ms.Delete(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
