package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/deltakaart/atlas/internal/storage"
)

type mockAPI struct {
	listFn   func(*s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	getFn    func(*s3.GetObjectInput) (*s3.GetObjectOutput, error)
	putFn    func(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
	deleteFn func(*s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
}

func (m *mockAPI) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return m.listFn(in)
}

func (m *mockAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.getFn(in)
}

func (m *mockAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.putFn(in)
}

func (m *mockAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return m.deleteFn(in)
}

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, "b"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := New(&mockAPI{}, ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestList_MapsObjects(t *testing.T) {
	now := time.Now().UTC()
	api := &mockAPI{
		listFn: func(in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			if aws.ToString(in.Prefix) != "map-layers/" {
				t.Errorf("prefix = %q", aws.ToString(in.Prefix))
			}
			if aws.ToInt32(in.MaxKeys) != 1000 {
				t.Errorf("max keys = %d", aws.ToInt32(in.MaxKeys))
			}
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("map-layers/a.tif"), Size: aws.Int64(42), LastModified: &now},
					{Key: aws.String("map-layers/b.mbtiles"), Size: aws.Int64(7)},
				},
			}, nil
		},
	}
	s, err := New(api, "atlas")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	infos, err := s.List(context.Background(), "map-layers/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len=%d want 2", len(infos))
	}
	if infos[0].Key != "map-layers/a.tif" || infos[0].Size != 42 {
		t.Fatalf("unexpected first object: %+v", infos[0])
	}
}

func TestDownload_NotFound(t *testing.T) {
	api := &mockAPI{
		getFn: func(*s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, &apiError{code: "NoSuchKey"}
		},
	}
	s, _ := New(api, "atlas")

	_, _, err := s.Download(context.Background(), "map-layers/missing.tif")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDownload_TransportErrorIsNotNotFound(t *testing.T) {
	api := &mockAPI{
		getFn: func(*s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, errors.New("connection refused")
		},
	}
	s, _ := New(api, "atlas")

	_, _, err := s.Download(context.Background(), "map-layers/a.tif")
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestDownload_Body(t *testing.T) {
	api := &mockAPI{
		getFn: func(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(strings.NewReader("tile bytes")),
				ContentLength: aws.Int64(10),
			}, nil
		},
	}
	s, _ := New(api, "atlas")

	rc, size, err := s.Download(context.Background(), "map-layers/a.tif")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	if size != 10 {
		t.Fatalf("size=%d want 10", size)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "tile bytes" {
		t.Fatalf("body=%q", got)
	}
}

func TestUploadAndDelete(t *testing.T) {
	var putKey, putType, delKey string
	api := &mockAPI{
		putFn: func(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			putKey = aws.ToString(in.Key)
			putType = aws.ToString(in.ContentType)
			return &s3.PutObjectOutput{}, nil
		},
		deleteFn: func(in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
			delKey = aws.ToString(in.Key)
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	s, _ := New(api, "atlas")

	err := s.Upload(context.Background(), "map-layers/new.tif", bytes.NewReader([]byte("x")), "image/tiff")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if putKey != "map-layers/new.tif" || putType != "image/tiff" {
		t.Fatalf("put key=%q type=%q", putKey, putType)
	}

	if err := s.Delete(context.Background(), "map-layers/old.tif"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if delKey != "map-layers/old.tif" {
		t.Fatalf("delete key=%q", delKey)
	}
}
