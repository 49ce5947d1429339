package device

import (
	"context"
	"sync"
)

// Snapshot is the full persisted registry: every device plus the declared room list.
type Snapshot struct {
	Devices []Device `json:"devices"`
	Rooms   []string `json:"rooms,omitempty"`
}

// Store is the persistence collaborator. The registry treats it as an opaque
// load/save boundary; the store is the system of record.
type Store interface {
	// Load reads the latest snapshot
	Load(ctx context.Context) (*Snapshot, error)

	// Save writes the snapshot, replacing what was there
	Save(ctx context.Context, snap *Snapshot) error
}

// MemoryStore keeps a snapshot in memory. It is used when no document is configured
// and by tests.
type MemoryStore struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewMemoryStore creates a MemoryStore seeded with the given devices.
func NewMemoryStore(devices ...Device) *MemoryStore {
	s := &MemoryStore{}
	for i := range devices {
		s.snap.Devices = append(s.snap.Devices, devices[i].Clone())
	}
	return s
}

func (s *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Snapshot{Rooms: append([]string(nil), s.snap.Rooms...)}
	for i := range s.snap.Devices {
		out.Devices = append(out.Devices, s.snap.Devices[i].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	next := Snapshot{Rooms: append([]string(nil), snap.Rooms...)}
	for i := range snap.Devices {
		next.Devices = append(next.Devices, snap.Devices[i].Clone())
	}
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}
