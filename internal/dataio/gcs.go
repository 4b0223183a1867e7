package dataio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// GCSStore reads and writes objects addressed as gs://bucket/key.
type GCSStore struct {
	client  *storage.Client
	timeout time.Duration
}

// NewGCSStore creates a storage client. An empty credentialsFile falls back
// to application default credentials.
func NewGCSStore(ctx context.Context, credentialsFile string) (*GCSStore, error) {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, timeout: 2 * time.Minute}, nil
}

// Close releases the underlying client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}

// Read downloads the object at path.
func (g *GCSStore) Read(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := SplitGCSPath(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, &StoreError{Op: "read", Path: path, Cause: fmt.Errorf("object does not exist: %w", err)}
		}
		return nil, &StoreError{Op: "read", Path: path, Cause: err}
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &StoreError{Op: "read", Path: path, Cause: err}
	}
	return data, nil
}

// Write uploads data to path, replacing any existing object.
func (g *GCSStore) Write(ctx context.Context, path string, data []byte) error {
	bucket, key, err := SplitGCSPath(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForPath(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return &StoreError{Op: "write", Path: path, Cause: fmt.Errorf("failed to write data to GCS: %w", err)}
	}
	if err := w.Close(); err != nil {
		return &StoreError{Op: "write", Path: path, Cause: fmt.Errorf("failed to close GCS writer: %w", err)}
	}
	return nil
}

// Rename copies from over to inside Cloud Storage and deletes from.
func (g *GCSStore) Rename(ctx context.Context, from, to string) error {
	srcBucket, srcKey, err := SplitGCSPath(from)
	if err != nil {
		return err
	}
	dstBucket, dstKey, err := SplitGCSPath(to)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	src := g.client.Bucket(srcBucket).Object(srcKey)
	if _, err := g.client.Bucket(dstBucket).Object(dstKey).CopierFrom(src).Run(ctx); err != nil {
		return &StoreError{Op: "rename", Path: to, Cause: fmt.Errorf("failed to copy %s: %w", from, err)}
	}
	if err := src.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return &StoreError{Op: "rename", Path: to, Cause: fmt.Errorf("failed to delete %s: %w", from, err)}
	}
	return nil
}

// Remove deletes the object at path.
func (g *GCSStore) Remove(ctx context.Context, path string) error {
	bucket, key, err := SplitGCSPath(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.client.Bucket(bucket).Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return &StoreError{Op: "remove", Path: path, Cause: err}
	}
	return nil
}

// IsNotExist reports whether err means the local file or remote object is
// missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrObjectNotExist)
}

// SplitGCSPath splits gs://bucket/key into its bucket and object key.
func SplitGCSPath(path string) (bucket, key string, err error) {
	if !strings.HasPrefix(path, gcsScheme) {
		return "", "", fmt.Errorf("not a gs:// path: %q", path)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(path, gcsScheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("gs:// path must name a bucket and an object: %q", path)
	}
	return bucket, key, nil
}

func contentTypeForPath(key string) string {
	switch formatOf(key) {
	case FormatJSON:
		return "application/json"
	case FormatJSONL:
		return "application/x-ndjson"
	case FormatCSV:
		return "text/csv"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return ""
	}
}
