package layers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/deltakaart/atlas/internal/observability"
	"github.com/deltakaart/atlas/internal/storage"
)

// Prefix is the folder under which all layer files live in the bucket.
const Prefix = "map-layers/"

const indexSize = 512

// ErrLayerNotFound distinguishes "no file matches this identifier" from
// transport failures.
var ErrLayerNotFound = errors.New("layers: no file matches identifier")

// Info describes one resolvable layer.
type Info struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	LastModified time.Time `json:"lastModified"`
}

// Service resolves layer identifiers against the bucket listing and
// serves downloads and deletes. An LRU index caches id -> filename so
// repeat lookups skip the listing; entries are evicted on delete and on
// invalidation events from the geodata pipeline.
type Service struct {
	store  storage.ObjectStore
	logger *slog.Logger
	index  *lru.TwoQueueCache[string, string]
}

func NewService(store storage.ObjectStore, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("layers: object store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	index, err := lru.New2Q[string, string](indexSize)
	if err != nil {
		return nil, fmt.Errorf("layers: build index: %w", err)
	}
	return &Service{store: store, logger: logger, index: index}, nil
}

// Resolve maps a layer identifier to its stored filename. The listing is
// scanned in order and the first matching filename wins; the index never
// changes that outcome because it is populated only from listings.
func (s *Service) Resolve(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("layers: identifier is required")
	}

	if filename, ok := s.index.Get(id); ok {
		observability.IncLayerResolution("index")
		return filename, nil
	}

	infos, err := s.store.List(ctx, Prefix)
	if err != nil {
		return "", fmt.Errorf("layers: list bucket: %w", err)
	}
	for _, info := range infos {
		filename := strings.TrimPrefix(info.Key, Prefix)
		if filename == "" {
			continue
		}
		if DeriveID(filename) == id {
			s.index.Add(id, filename)
			observability.IncLayerResolution("scan")
			return filename, nil
		}
	}
	observability.IncLayerResolution("miss")
	return "", ErrLayerNotFound
}

// ResolveDebug maps an identifier to a stored filename for archive
// inspection. Unlike Resolve it also matches files carrying a
// "<timestamp>_" prefix from re-uploads, and it bypasses the index so
// prefixed names never poison regular resolutions.
func (s *Service) ResolveDebug(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("layers: identifier is required")
	}
	infos, err := s.store.List(ctx, Prefix)
	if err != nil {
		return "", fmt.Errorf("layers: list bucket: %w", err)
	}
	for _, info := range infos {
		filename := strings.TrimPrefix(info.Key, Prefix)
		if filename == "" {
			continue
		}
		if DeriveDebugID(filename) == id {
			return filename, nil
		}
	}
	return "", ErrLayerNotFound
}

// DownloadDebug opens the stored file behind a layer identifier using
// the inspection resolution rules.
func (s *Service) DownloadDebug(ctx context.Context, id string) (io.ReadCloser, Info, error) {
	filename, err := s.ResolveDebug(ctx, id)
	if err != nil {
		return nil, Info{}, err
	}
	rc, size, err := s.store.Download(ctx, Prefix+filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, Info{}, ErrLayerNotFound
		}
		return nil, Info{}, err
	}
	return rc, Info{
		ID:          id,
		Filename:    filename,
		Size:        size,
		ContentType: ContentTypeFor(filename),
	}, nil
}

// Download opens the stored file behind a layer identifier.
func (s *Service) Download(ctx context.Context, id string) (io.ReadCloser, Info, error) {
	filename, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, Info{}, err
	}
	rc, size, err := s.store.Download(ctx, Prefix+filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// listing and bucket disagree; drop the stale index entry
			s.index.Remove(id)
			return nil, Info{}, ErrLayerNotFound
		}
		return nil, Info{}, err
	}
	return rc, Info{
		ID:          id,
		Filename:    filename,
		Size:        size,
		ContentType: ContentTypeFor(filename),
	}, nil
}

// Delete removes every stored file whose derived identifier matches.
// Multiple matches can exist after re-uploads; all are removed. The
// returned lists name the files that matched and those actually deleted.
func (s *Service) Delete(ctx context.Context, id string) (deleted, found []string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, errors.New("layers: identifier is required")
	}

	infos, err := s.store.List(ctx, Prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("layers: list bucket: %w", err)
	}
	for _, info := range infos {
		filename := strings.TrimPrefix(info.Key, Prefix)
		if filename == "" || DeriveID(filename) != id {
			continue
		}
		found = append(found, filename)
		if derr := s.store.Delete(ctx, info.Key); derr != nil {
			s.logger.Error("layer file delete failed", "file", filename, "err", derr)
			continue
		}
		deleted = append(deleted, filename)
	}
	if len(found) == 0 {
		return nil, nil, ErrLayerNotFound
	}
	s.index.Remove(id)
	return deleted, found, nil
}

// List enumerates all resolvable layers with their derived identifiers.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	infos, err := s.store.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("layers: list bucket: %w", err)
	}
	layers := make([]Info, 0, len(infos))
	for _, info := range infos {
		filename := strings.TrimPrefix(info.Key, Prefix)
		if filename == "" {
			continue
		}
		layers = append(layers, Info{
			ID:           DeriveID(filename),
			Filename:     filename,
			Size:         info.Size,
			ContentType:  ContentTypeFor(filename),
			LastModified: info.LastModified,
		})
	}
	return layers, nil
}

// Invalidate evicts a cached resolution, typically after the geodata
// pipeline rewrites a layer file.
func (s *Service) Invalidate(id string) {
	s.index.Remove(id)
}
