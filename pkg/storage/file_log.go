package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileLog keeps the processed log as newline-delimited text, one phrase per
// line. This is the format the original last_run.log used.
type FileLog struct {
	path string
}

// NewFileLog creates a file-backed processed log. The file is created lazily
// on the first Append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the log file location
func (l *FileLog) Path() string {
	return l.path
}

func (l *FileLog) Load(ctx context.Context) (PhraseSet, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PhraseSet{}, nil
		}
		return nil, fmt.Errorf("open processed log %s: %w", l.path, err)
	}
	defer f.Close()

	set := PhraseSet{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		set.Add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read processed log %s: %w", l.path, err)
	}
	return set, nil
}

func (l *FileLog) Append(ctx context.Context, phrases []string) error {
	if len(phrases) == 0 {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create processed log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open processed log %s: %w", l.path, err)
	}
	defer f.Close()

	var b strings.Builder
	// a hand-edited log may lack the trailing newline
	if missing, err := missingTrailingNewline(f); err != nil {
		return err
	} else if missing {
		b.WriteByte('\n')
	}
	for _, phrase := range phrases {
		b.WriteString(phrase)
		b.WriteByte('\n')
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append processed log %s: %w", l.path, err)
	}
	return f.Sync()
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat processed log: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read processed log tail: %w", err)
	}
	return last[0] != '\n', nil
}

func (l *FileLog) Close() error {
	return nil
}

func (l *FileLog) Describe() string {
	return "file:" + l.path
}
