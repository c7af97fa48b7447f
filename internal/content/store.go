// Package content persists the narrative content document for the site.
// The document is a single JSON file keyed by locale; the admin UI reads
// and replaces it wholesale.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// requiredLocales are the top-level keys every saved document must carry.
var requiredLocales = []string{"de", "en"}

// defaultDocument seeds the content file on first load.
const defaultDocument = `{
  "de": {
    "hero": {"title": "", "subtitle": ""},
    "sections": []
  },
  "en": {
    "hero": {"title": "", "subtitle": ""},
    "sections": []
  }
}
`

// ValidationError reports a malformed document on save.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Store reads and writes the content document. Saves are serialized so
// concurrent admin edits cannot interleave partial writes.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("content: file path is required")
	}
	return &Store{path: path}, nil
}

// Load returns the raw document bytes and their ETag, creating the
// default document if the file does not exist yet.
func (s *Store) Load(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		raw = []byte(defaultDocument)
		if werr := s.writeLocked(raw); werr != nil {
			return nil, "", fmt.Errorf("content: seed default document: %w", werr)
		}
	} else if err != nil {
		return nil, "", fmt.Errorf("content: read %s: %w", s.path, err)
	}
	return raw, etag(raw), nil
}

// Save validates and replaces the document. The bytes are stored exactly
// as received so a subsequent Load round-trips them unchanged.
func (s *Store) Save(ctx context.Context, raw []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := Validate(raw); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(raw); err != nil {
		return "", fmt.Errorf("content: write %s: %w", s.path, err)
	}
	return etag(raw), nil
}

// writeLocked writes via a temp file and rename so a crash mid-save
// never leaves a truncated document.
func (s *Store) writeLocked(raw []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".content-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Validate checks the document shape: a JSON object carrying every
// required locale key, each holding an object.
func Validate(raw []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ValidationError{msg: "content must be a JSON object"}
	}
	for _, locale := range requiredLocales {
		v, ok := doc[locale]
		if !ok {
			return &ValidationError{msg: fmt.Sprintf("missing required property %q", locale)}
		}
		var section map[string]json.RawMessage
		if err := json.Unmarshal(v, &section); err != nil {
			return &ValidationError{msg: fmt.Sprintf("property %q must be an object", locale)}
		}
	}
	return nil
}

func etag(raw []byte) string {
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}
