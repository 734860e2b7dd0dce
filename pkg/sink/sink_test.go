package sink

import (
	"context"
	"errors"
	"testing"

	"seo-keywords/pkg/keyword"
)

type fakeSink struct {
	name  string
	err   error
	calls int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(ctx context.Context, ideas []keyword.Idea) error {
	f.calls++
	return f.err
}

func TestMulti_FailuresAreIndependent(t *testing.T) {
	first := &fakeSink{name: "csv", err: errors.New("disk full")}
	second := &fakeSink{name: "bucket"}
	third := &fakeSink{name: "sheets", err: errors.New("permission denied")}

	results := NewMulti(first, nil, second, third).Write(context.Background(), sampleIdeas())

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, s := range []*fakeSink{first, second, third} {
		if s.calls != 1 {
			t.Errorf("Expected sink %s to run once, got %d", s.name, s.calls)
		}
	}

	if !results.Failed("csv") || results.Failed("bucket") || !results.Failed("sheets") {
		t.Errorf("Unexpected failure flags: %+v", results)
	}

	err := results.Err()
	if err == nil {
		t.Fatal("Expected joined error, got nil")
	}
	if !errors.Is(err, first.err) || !errors.Is(err, third.err) {
		t.Errorf("Expected joined error to wrap both failures, got %v", err)
	}
}

func TestMulti_AllSucceed(t *testing.T) {
	m := NewMulti(&fakeSink{name: "a"}, &fakeSink{name: "b"})
	if names := m.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Unexpected names: %v", names)
	}
	if err := m.Write(context.Background(), nil).Err(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

type fakeUploader struct {
	localPath string
	key       string
	err       error
}

func (f *fakeUploader) UploadFile(ctx context.Context, localPath, key string) error {
	f.localPath = localPath
	f.key = key
	return f.err
}

func TestBucketUploadSink(t *testing.T) {
	up := &fakeUploader{}
	sink := &BucketUploadSink{Uploader: up, LocalPath: "/tmp/out/results.csv"}

	if err := sink.Write(context.Background(), nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if up.key != "results.csv" || up.localPath != "/tmp/out/results.csv" {
		t.Errorf("Unexpected upload call: %+v", up)
	}

	sink.Key = "exports/latest.csv"
	_ = sink.Write(context.Background(), nil)
	if up.key != "exports/latest.csv" {
		t.Errorf("Expected explicit key, got %q", up.key)
	}

	up.err = errors.New("forbidden")
	if err := sink.Write(context.Background(), nil); !errors.Is(err, up.err) {
		t.Errorf("Expected upload error, got %v", err)
	}
}
