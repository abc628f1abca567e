package ledger

import (
	"context"
	"sync"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

// Memory is the in-memory ledger and the default backend. Records live for
// the lifetime of the server process and are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	records map[string]toll.PlateRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]toll.PlateRecord)}
}

func (m *Memory) Get(_ context.Context, plate string) (toll.PlateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[plate]
	if !ok {
		return toll.PlateRecord{}, toll.ErrPlateNotFound
	}
	return rec, nil
}

func (m *Memory) Upsert(_ context.Context, rec toll.PlateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Plate] = rec
	return nil
}

func (m *Memory) Close() error { return nil }
