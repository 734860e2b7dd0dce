// Package seeds loads seed phrases from local files, theme templates and
// bucket objects.
package seeds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ThemePlaceholder is replaced by the theme in template lines
const ThemePlaceholder = "{theme}"

var (
	// ErrSeedFileNotFound is returned when a phrases or template file is missing
	ErrSeedFileNotFound = errors.New("seed file not found")
	// ErrEmptyTheme is returned when a template source has no theme
	ErrEmptyTheme = errors.New("theme cannot be empty")
)

// Source produces the full, ordered list of candidate seed phrases
type Source interface {
	Phrases(ctx context.Context) ([]string, error)
	Describe() string
}

// ObjectReader reads a named object from a remote store
type ObjectReader interface {
	ReadObject(ctx context.Context, name string) ([]byte, error)
}

// FileSource reads one phrase per line from a local text file
type FileSource struct {
	Path string
}

func (s FileSource) Phrases(ctx context.Context) ([]string, error) {
	data, err := readSeedFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ParseLines(string(data)), nil
}

func (s FileSource) Describe() string {
	return "file:" + s.Path
}

// TemplateSource expands every template line containing {theme}. Lines
// without the placeholder are ignored.
type TemplateSource struct {
	Path  string
	Theme string
}

func (s TemplateSource) Phrases(ctx context.Context) ([]string, error) {
	theme := Normalize(s.Theme)
	if theme == "" {
		return nil, ErrEmptyTheme
	}

	data, err := readSeedFile(s.Path)
	if err != nil {
		return nil, err
	}

	var phrases []string
	for _, line := range strings.Split(strings.TrimPrefix(string(data), "\ufeff"), "\n") {
		if !strings.Contains(line, ThemePlaceholder) {
			continue
		}
		if phrase := Normalize(strings.ReplaceAll(line, ThemePlaceholder, theme)); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases, nil
}

func (s TemplateSource) Describe() string {
	return fmt.Sprintf("template:%s theme=%q", s.Path, s.Theme)
}

// BucketSource reads phrases from a remote object decoded as UTF-8 text
type BucketSource struct {
	Store  ObjectReader
	Bucket string
	Object string
}

func (s BucketSource) Phrases(ctx context.Context) ([]string, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("bucket source %s has no object store", s.Describe())
	}
	data, err := s.Store.ReadObject(ctx, s.Object)
	if err != nil {
		return nil, fmt.Errorf("read seed object %s: %w", s.Describe(), err)
	}
	return ParseLines(string(data)), nil
}

func (s BucketSource) Describe() string {
	return fmt.Sprintf("gs://%s/%s", s.Bucket, s.Object)
}

func readSeedFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSeedFileNotFound, path)
		}
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return data, nil
}
