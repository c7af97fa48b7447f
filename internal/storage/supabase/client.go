// Package supabase is a thin client for the Supabase Storage REST API.
// The image buckets live here; map layers live in R2.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deltakaart/atlas/internal/observability"
	"github.com/deltakaart/atlas/internal/storage"
)

const listLimit = 1000

type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

func New(baseURL, serviceKey string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase: base URL is required")
	}
	if serviceKey == "" {
		return nil, errors.New("supabase: service key is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, serviceKey: serviceKey, http: httpClient}, nil
}

// listEntry mirrors the storage API's object listing response.
type listEntry struct {
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  struct {
		Size     int64  `json:"size"`
		MimeType string `json:"mimetype"`
	} `json:"metadata"`
}

// List enumerates objects in a bucket under the given folder prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	body, err := json.Marshal(map[string]any{
		"prefix": prefix,
		"limit":  listLimit,
		"sortBy": map[string]string{"column": "name", "order": "asc"},
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: encode list request: %w", err)
	}

	endpoint := c.baseURL + "/storage/v1/object/list/" + url.PathEscape(bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("supabase: build list request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveStorageOp("supabase", "list", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("supabase: list %s/%s: %w", bucket, prefix, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list", resp)
	}

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("supabase: decode list response: %w", err)
	}

	infos := make([]storage.ObjectInfo, 0, len(entries))
	for _, e := range entries {
		// folder placeholders come back without an object id
		if e.ID == "" {
			continue
		}
		key := e.Name
		if prefix != "" {
			key = strings.TrimRight(prefix, "/") + "/" + e.Name
		}
		infos = append(infos, storage.ObjectInfo{
			Key:          key,
			Size:         e.Metadata.Size,
			LastModified: e.UpdatedAt,
		})
	}
	return infos, nil
}

func (c *Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(bucket, key), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("supabase: build download request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveStorageOp("supabase", "get", err, time.Since(start).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("supabase: download %s/%s: %w", bucket, key, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, 0, storage.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, 0, statusError("download", resp)
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(bucket, key), r)
	if err != nil {
		return fmt.Errorf("supabase: build upload request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveStorageOp("supabase", "put", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("supabase: upload %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return statusError("upload", resp)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(bucket, key), nil)
	if err != nil {
		return fmt.Errorf("supabase: build delete request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveStorageOp("supabase", "delete", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("supabase: delete %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return storage.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return statusError("delete", resp)
	}
	return nil
}

// PublicURL builds the unauthenticated URL for objects in public buckets.
func (c *Client) PublicURL(bucket, key string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

func (c *Client) objectURL(bucket, key string) string {
	return c.baseURL + "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}

// escapeKey escapes each path segment while keeping separators intact.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("supabase: %s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(b)))
}

// Bucket binds the client to one bucket so it satisfies
// storage.ObjectStore.
type Bucket struct {
	client *Client
	name   string
}

func (c *Client) Bucket(name string) *Bucket {
	return &Bucket{client: c, name: name}
}

func (b *Bucket) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return b.client.List(ctx, b.name, prefix)
}

func (b *Bucket) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return b.client.Download(ctx, b.name, key)
}

func (b *Bucket) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	return b.client.Upload(ctx, b.name, key, r, contentType)
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	return b.client.Delete(ctx, b.name, key)
}
