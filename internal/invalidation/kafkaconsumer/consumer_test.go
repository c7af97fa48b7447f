package kafkaconsumer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/deltakaart/atlas/internal/styles"
)

type fakeInvalidator struct {
	evicted []string
}

func (f *fakeInvalidator) Invalidate(id string) {
	f.evicted = append(f.evicted, id)
}

func message(payload string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic: "layer-invalidation",
		Value: []byte(payload),
	}
}

func eventJSON(op, layer string) string {
	return fmt.Sprintf(`{"version":1,"op":%q,"layer":%q,"ts":%q}`,
		op, layer, time.Now().Format(time.RFC3339))
}

func TestProcessOne_EvictsLayer(t *testing.T) {
	inv := &fakeInvalidator{}
	c := New(NewConfig("localhost:9092", "", ""), nil, inv, nil)

	err := c.ProcessOne(context.Background(), message(eventJSON("upload", "flood_depth")))
	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(inv.evicted) != 1 || inv.evicted[0] != "flood_depth" {
		t.Fatalf("evicted = %v", inv.evicted)
	}
}

func TestProcessOne_DeleteCleansStyle(t *testing.T) {
	inv := &fakeInvalidator{}
	store := styles.NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, styles.Config{LayerID: "flood_depth", ColorScheme: "viridis"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c := New(NewConfig("localhost:9092", "", ""), nil, inv, store)
	if err := c.ProcessOne(ctx, message(eventJSON("delete", "flood_depth"))); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if _, err := store.Get(ctx, "flood_depth"); err != styles.ErrNotFound {
		t.Fatalf("style not removed: %v", err)
	}
}

func TestProcessOne_DeleteWithoutStyleIsFine(t *testing.T) {
	inv := &fakeInvalidator{}
	c := New(NewConfig("localhost:9092", "", ""), nil, inv, styles.NewMemoryStore())

	if err := c.ProcessOne(context.Background(), message(eventJSON("delete", "never_styled"))); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
}

func TestProcessOne_SkipsBadMessages(t *testing.T) {
	inv := &fakeInvalidator{}
	c := New(NewConfig("localhost:9092", "", ""), nil, inv, nil)
	ctx := context.Background()

	// decode failure and validation failure both drop the message
	if err := c.ProcessOne(ctx, message("{not json")); err != nil {
		t.Fatalf("decode failure must not propagate: %v", err)
	}
	if err := c.ProcessOne(ctx, message(`{"version":1,"op":"truncate","layer":"x","ts":"2026-01-01T00:00:00Z"}`)); err != nil {
		t.Fatalf("validation failure must not propagate: %v", err)
	}
	if len(inv.evicted) != 0 {
		t.Fatalf("evicted = %v, want none", inv.evicted)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig("b1:9092, b2:9092,", "", "")
	if len(cfg.Brokers) != 2 {
		t.Fatalf("brokers = %v", cfg.Brokers)
	}
	if cfg.Topic != "layer-invalidation" || cfg.GroupID != "atlas-layer-invalidator" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.InitialOffsetOldest {
		t.Fatal("expected oldest initial offset")
	}
}
