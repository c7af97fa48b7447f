// Package s3store implements storage.ObjectStore against an
// S3-compatible backend. The production deployment points it at
// Cloudflare R2; MinIO works for local development.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/deltakaart/atlas/internal/observability"
	"github.com/deltakaart/atlas/internal/storage"
)

// listPageSize bounds a single listing request. Layer buckets hold tens
// to low hundreds of objects, so one page is sufficient.
const listPageSize = 1000

// API is the subset of the S3 client used by the store, split out so
// tests can substitute a mock.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Store struct {
	client API
	bucket string
}

func New(client API, bucket string) (*Store, error) {
	if client == nil {
		return nil, errors.New("s3store: client is required")
	}
	if bucket == "" {
		return nil, errors.New("s3store: bucket is required")
	}
	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	start := time.Now()
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(listPageSize),
	})
	observability.ObserveStorageOp("r2", "list", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("s3store: list %q: %w", prefix, err)
	}

	infos := make([]storage.ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		info := storage.ObjectInfo{Key: aws.ToString(obj.Key)}
		if obj.Size != nil {
			info.Size = *obj.Size
		}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	observability.ObserveStorageOp("r2", "get", err, time.Since(start).Seconds())
	if err != nil {
		if isNotFound(err) {
			return nil, 0, storage.ErrNotFound
		}
		return nil, 0, fmt.Errorf("s3store: get %q: %w", key, err)
	}
	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

func (s *Store) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	observability.ObserveStorageOp("r2", "put", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("s3store: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	observability.ObserveStorageOp("r2", "delete", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("s3store: delete %q: %w", key, err)
	}
	return nil
}

// isNotFound maps S3 API error codes to the store's sentinel.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || strings.Contains(code, "NoSuchKey")
	}
	return false
}
