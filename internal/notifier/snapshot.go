package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bookbliss/internal/types"
)

// FileSnapshotStore persists the schedule shadow as a JSON file. Writes are
// atomic (temp file + rename) so a crash mid-write never leaves a corrupt
// shadow; the previous snapshot simply survives. A missing file reads as an
// empty snapshot, which is the normal first-boot case.
type FileSnapshotStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSnapshotStore creates a FileSnapshotStore writing to the given path.
// Parent directories are created on first write.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Read loads the persisted schedule records. Returns an empty slice when the
// snapshot file does not exist yet.
func (f *FileSnapshotStore) Read(_ context.Context) ([]types.ScheduleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []types.ScheduleRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schedule snapshot: %w", err)
	}

	var records []types.ScheduleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing schedule snapshot: %w", err)
	}
	return records, nil
}

// Write replaces the persisted snapshot with the given records.
func (f *FileSnapshotStore) Write(_ context.Context, records []types.ScheduleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if records == nil {
		records = []types.ScheduleRecord{}
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling schedule snapshot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing schedule snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing schedule snapshot: %w", err)
	}
	return nil
}

// Compile-time assertion that FileSnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*FileSnapshotStore)(nil)

// MemorySnapshotStore keeps the shadow in memory only. Used in tests and for
// running without durability.
type MemorySnapshotStore struct {
	mu      sync.Mutex
	records []types.ScheduleRecord
}

// Read returns the last written snapshot.
func (m *MemorySnapshotStore) Read(_ context.Context) ([]types.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.ScheduleRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Write replaces the in-memory snapshot.
func (m *MemorySnapshotStore) Write(_ context.Context, records []types.ScheduleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]types.ScheduleRecord, len(records))
	copy(m.records, records)
	return nil
}

// Compile-time assertion that MemorySnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*MemorySnapshotStore)(nil)
