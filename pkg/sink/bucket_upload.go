package sink

import (
	"context"
	"fmt"
	"path/filepath"

	"seo-keywords/pkg/keyword"
)

// UploadName is the sink name reported for the bucket copy
const UploadName = "bucket"

// Uploader copies a local file to a remote object key
type Uploader interface {
	UploadFile(ctx context.Context, localPath, key string) error
}

// BucketUploadSink uploads the whole local results file to a fixed key,
// overwriting the previous copy. It must run after the CSV sink. An empty
// Key uploads under the file's base name.
type BucketUploadSink struct {
	Uploader  Uploader
	LocalPath string
	Key       string
}

func (s *BucketUploadSink) Name() string {
	return UploadName
}

func (s *BucketUploadSink) Write(ctx context.Context, _ []keyword.Idea) error {
	if s.Uploader == nil {
		return fmt.Errorf("no uploader configured")
	}
	key := s.Key
	if key == "" {
		key = filepath.Base(s.LocalPath)
	}
	return s.Uploader.UploadFile(ctx, s.LocalPath, key)
}
