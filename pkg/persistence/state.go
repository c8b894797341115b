package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// BusState contains the persisted state of a simulated bus.
type BusState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Nodes are the nodes on the bus, in id order.
	Nodes []NodeRecord `json:"nodes,omitempty"`
}

// NodeRecord is the non-volatile state of one node.
type NodeRecord struct {
	// ID is the node's current bus id.
	ID string `json:"id"`

	// Serial is the factory serial number.
	Serial string `json:"serial,omitempty"`

	// Flash holds the burned parameters by key.
	Flash map[uint16]float64 `json:"flash,omitempty"`
}

// BusStateStore manages persistence of bus state to a JSON file.
type BusStateStore struct {
	mu   sync.Mutex
	path string
}

// NewBusStateStore creates a new bus state store.
func NewBusStateStore(path string) *BusStateStore {
	return &BusStateStore{path: path}
}

// Path returns the state file path.
func (s *BusStateStore) Path() string {
	return s.path
}

// Save persists the bus state to disk. The file is replaced atomically so
// a crash never leaves a truncated state behind.
func (s *BusStateStore) Save(state *BusState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load reads the bus state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *BusStateStore) Load() (*BusState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &BusState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Version != StateVersion {
		return nil, fmt.Errorf("unsupported state version %d", state.Version)
	}
	return state, nil
}

// Clear removes the state file.
func (s *BusStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
