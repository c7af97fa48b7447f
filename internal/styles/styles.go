// Package styles stores per-layer style configuration (raster color
// schemes or vector paint rules) behind a pluggable persistence
// interface. The Redis store is the durable default; the memory store
// serves tests and local development.
package styles

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no configuration exists for a layer.
var ErrNotFound = errors.New("styles: no configuration for layer")

// Config is the style attached to one layer. Exactly which fields are
// set depends on the layer kind: rasters carry a color scheme, vectors
// carry paint rules.
type Config struct {
	LayerID     string          `json:"layerId"`
	Kind        string          `json:"kind,omitempty"` // raster | vector
	ColorScheme string          `json:"colorScheme,omitempty"`
	Opacity     *float64        `json:"opacity,omitempty"`
	Paint       json.RawMessage `json:"paint,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (c Config) Validate() error {
	if c.LayerID == "" {
		return errors.New("styles: layerId is required")
	}
	switch c.Kind {
	case "", "raster", "vector":
	default:
		return errors.New("styles: kind must be raster or vector")
	}
	if c.Opacity != nil && (*c.Opacity < 0 || *c.Opacity > 1) {
		return errors.New("styles: opacity must be in [0,1]")
	}
	return nil
}

// Store persists style configuration. Concurrent writes to the same
// layer are last-write-wins.
type Store interface {
	Get(ctx context.Context, layerID string) (Config, error)
	Set(ctx context.Context, cfg Config) error
	Delete(ctx context.Context, layerID string) error
}

// MemoryStore is a map-backed Store. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: map[string]Config{}}
}

func (m *MemoryStore) Get(_ context.Context, layerID string) (Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[layerID]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

func (m *MemoryStore) Set(_ context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.LayerID] = cfg
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, layerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[layerID]; !ok {
		return ErrNotFound
	}
	delete(m.configs, layerID)
	return nil
}
