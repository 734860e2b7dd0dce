package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"seo-keywords/pkg/keyword"
)

// CSVName is the sink name reported for the local results file
const CSVName = "csv"

// CSVSink appends ideas to a local CSV file. The header row is written only
// when the file is missing or empty, so repeated runs never duplicate it.
type CSVSink struct {
	Path   string
	Layout Layout
}

// NewCSVSink creates a CSV sink
func NewCSVSink(path string, layout Layout) *CSVSink {
	return &CSVSink{Path: path, Layout: layout}
}

func (s *CSVSink) Name() string {
	return CSVName
}

func (s *CSVSink) Write(ctx context.Context, ideas []keyword.Idea) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	needHeader, err := isMissingOrEmpty(s.Path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results file %s: %w", s.Path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(s.Layout.Header()); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, idea := range ideas {
		if err := w.Write(s.Layout.Record(idea)); err != nil {
			return fmt.Errorf("write csv row %q: %w", idea.Text, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush results file %s: %w", s.Path, err)
	}
	return f.Sync()
}

func isMissingOrEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat results file %s: %w", path, err)
	}
	return info.Size() == 0, nil
}
