// Package bucket reads seed objects from and uploads result files to a
// Google Cloud Storage bucket.
package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"seo-keywords/pkg/logger"
)

// ErrObjectNotFound is returned when the requested object does not exist
var ErrObjectNotFound = errors.New("bucket object not found")

// Store is a single-bucket view over a GCS client
type Store struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

// Open connects to GCS. An empty credentialsFile falls back to application
// default credentials.
func Open(ctx context.Context, bucketName, credentialsFile string) (*Store, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucketName,
		log:    logger.GetLogger().WithField("component", "bucket"),
	}, nil
}

// Bucket returns the bucket name
func (s *Store) Bucket() string {
	return s.bucket
}

// ReadObject returns the full contents of an object
func (s *Store) ReadObject(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, s.bucket, name)
		}
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", s.bucket, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, name, err)
	}
	return data, nil
}

// UploadFile copies a local file to the object key, replacing any existing
// object.
func (s *Store) UploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	start := time.Now()
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "text/csv"

	n, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.bucket, key, err)
	}

	s.log.WithFields(map[string]interface{}{
		"object":   key,
		"bytes":    n,
		"duration": time.Since(start).String(),
	}).Info("Uploaded results file")
	return nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
