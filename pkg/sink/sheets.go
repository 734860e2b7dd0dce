package sink

import (
	"context"
	"fmt"

	"seo-keywords/pkg/keyword"
)

// SheetsName is the sink name reported for the spreadsheet
const SheetsName = "sheets"

// SheetWriter is the narrow spreadsheet surface the sink needs
type SheetWriter interface {
	// IsEmpty reports whether the worksheet has no data in its first row
	IsEmpty(ctx context.Context) (bool, error)
	AppendRows(ctx context.Context, rows [][]interface{}) error
	// FormatHeader styles the first row across the given number of columns
	FormatHeader(ctx context.Context, columns int) error
}

// SheetsSink appends ideas to a worksheet. On an empty worksheet the header
// row goes first and is formatted bold on a grey background.
type SheetsSink struct {
	Sheet  SheetWriter
	Layout Layout
}

func (s *SheetsSink) Name() string {
	return SheetsName
}

func (s *SheetsSink) Write(ctx context.Context, ideas []keyword.Idea) error {
	if s.Sheet == nil {
		return fmt.Errorf("no spreadsheet configured")
	}

	empty, err := s.Sheet.IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("inspect worksheet: %w", err)
	}

	header := s.Layout.Header()
	rows := make([][]interface{}, 0, len(ideas)+1)
	if empty {
		cells := make([]interface{}, len(header))
		for i, h := range header {
			cells[i] = h
		}
		rows = append(rows, cells)
	}
	for _, idea := range ideas {
		rows = append(rows, s.Layout.Values(idea))
	}

	if len(rows) == 0 {
		return nil
	}
	if err := s.Sheet.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("append rows: %w", err)
	}

	if empty {
		if err := s.Sheet.FormatHeader(ctx, len(header)); err != nil {
			return fmt.Errorf("format header: %w", err)
		}
	}
	return nil
}
