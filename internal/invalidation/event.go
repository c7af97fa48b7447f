// Package invalidation defines the layer-invalidation event the geodata
// pipeline publishes after rewriting files in the layer bucket.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Event announces that a layer's stored file changed. Consumers evict
// the cached id -> filename resolution (and the style entry on delete).
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"` // upload | delete | refresh
	Layer   string    `json:"layer"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "upload", "delete", "refresh":
	default:
		return fmt.Errorf("op must be upload|delete|refresh")
	}
	if strings.TrimSpace(e.Layer) == "" {
		return fmt.Errorf("layer is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
