package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Invalid log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestProgressReporter_CompleteReportsEarlyStop(t *testing.T) {
	var buf bytes.Buffer
	pr := NewProgressReporter(5, "Fetching", time.Hour)
	pr.logger = New(Config{Level: "info", Writer: &buf})

	pr.Update(1)
	pr.Update(1)
	if buf.Len() != 0 {
		t.Fatalf("Expected no report before the interval elapses, got %s", buf.String())
	}

	pr.Complete()
	pr.Complete()

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one final report, got %d", len(entries))
	}
	if entries[0]["current"] != float64(2) || entries[0]["total"] != float64(5) {
		t.Errorf("Expected 2/5 in final report, got %v", entries[0])
	}
	if msg, _ := entries[0]["message"].(string); strings.Contains(msg, "ETA") {
		t.Errorf("Final report must not carry an ETA, got %q", msg)
	}
}

func TestProgressReporter_FullBatchReportsOnce(t *testing.T) {
	var buf bytes.Buffer
	pr := NewProgressReporter(2, "Fetching", 0)
	pr.logger = New(Config{Level: "info", Writer: &buf})

	pr.Update(1)
	pr.Update(1)
	pr.Complete()

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected one interim and one final report, got %d", len(entries))
	}
	if entries[1]["progress"] != "100.0%" {
		t.Errorf("Expected final report at 100%%, got %v", entries[1])
	}
}
