package storage

import (
	"context"
	"sync"
)

// MemoryLog is an in-process processed log, used by tests and dry runs that
// must leave the durable log untouched
type MemoryLog struct {
	mu      sync.RWMutex
	entries []string
}

// NewMemoryLog creates a memory log seeded with existing entries
func NewMemoryLog(entries ...string) *MemoryLog {
	return &MemoryLog{entries: append([]string(nil), entries...)}
}

func (m *MemoryLog) Load(ctx context.Context) (PhraseSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewPhraseSet(m.entries...), nil
}

func (m *MemoryLog) Append(ctx context.Context, phrases []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, phrases...)
	return nil
}

// Entries returns a copy of the raw, possibly duplicated, entries
func (m *MemoryLog) Entries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.entries...)
}

func (m *MemoryLog) Close() error {
	return nil
}

func (m *MemoryLog) Describe() string {
	return "memory"
}
