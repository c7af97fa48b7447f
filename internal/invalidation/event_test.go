package invalidation

import (
	"testing"
	"time"
)

func TestEventValidate(t *testing.T) {
	now := time.Now()
	valid := Event{Version: 1, Op: "upload", Layer: "flood_depth", TS: now}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	cases := []struct {
		name string
		ev   Event
	}{
		{"wrong version", Event{Version: 2, Op: "upload", Layer: "x", TS: now}},
		{"bad op", Event{Version: 1, Op: "truncate", Layer: "x", TS: now}},
		{"empty layer", Event{Version: 1, Op: "delete", Layer: "  ", TS: now}},
		{"zero ts", Event{Version: 1, Op: "refresh", Layer: "x"}},
	}
	for _, tc := range cases {
		if err := tc.ev.Validate(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
