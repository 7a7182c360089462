package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"
)

// GridFSStore keeps uploaded files in a MongoDB GridFS bucket. Files are
// served back by the API under baseURL/files/<key>.
type GridFSStore struct {
	bucket  *gridfs.Bucket
	baseURL string
}

// NewGridFSStore opens the named GridFS bucket.
func NewGridFSStore(database *mongo.Database, name, baseURL string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %s: %w", name, err)
	}
	return &GridFSStore{bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload stores content under key.
func (s *GridFSStore) Upload(ctx context.Context, key string, content io.Reader, contentType string) error {
	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	if _, err := s.bucket.UploadFromStream(key, content, opts); err != nil {
		return fmt.Errorf("gridfs upload %s: %w", key, err)
	}
	return nil
}

// Open returns a reader for the file stored under key.
func (s *GridFSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("file %s: %w", key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("gridfs open %s: %w", key, err)
	}
	return stream, nil
}

// PublicURL returns the API download URL for key.
func (s *GridFSStore) PublicURL(key string) string {
	return s.baseURL + "/files/" + escapeKey(key)
}

// GCSStore keeps uploaded files in a Google Cloud Storage bucket.
type GCSStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// NewGCSStore creates a storage client using the ambient Google credentials.
func NewGCSStore(ctx context.Context, bucket, cdnDomain string, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, cdnDomain: cdnDomain}, nil
}

// Upload stores content under key.
func (s *GCSStore) Upload(ctx context.Context, key string, content io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// Open returns a reader for the object stored under key.
func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("file %s: %w", key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return r, nil
}

// PublicURL returns the CDN or storage.googleapis.com URL for key.
func (s *GCSStore) PublicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, escapeKey(key))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, escapeKey(key))
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
