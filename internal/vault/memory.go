package vault

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"punch-go/internal/punch"
)

// MemoryVault is an in-memory implementation of the Vault interface, useful
// for testing. It is safe for concurrent use.
type MemoryVault struct {
	name            string
	exports         map[string][]byte // export name -> rendered timesheet
	metadata        map[string][]byte // "deviceID/name" -> metadata
	metadataVersion map[string]int64  // "deviceID/name" -> version
	mu              sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:            name,
		exports:         make(map[string][]byte),
		metadata:        make(map[string][]byte),
		metadataVersion: make(map[string]int64),
	}
}

func metadataKey(deviceID, name string) string {
	return deviceID + "/" + name
}

func readSized(r io.Reader, size int64) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}
	return data, nil
}

func (m *MemoryVault) PutExport(name string, r io.Reader, size int64) error {
	if err := validateName("export", name); err != nil {
		return err
	}
	data, err := readSized(r, size)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports[name] = data
	return nil
}

func (m *MemoryVault) GetExport(name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.exports[name]
	if !ok {
		return fmt.Errorf("export %q: %w", name, ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func (m *MemoryVault) ListExports() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *MemoryVault) PutMetadata(deviceID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateName("metadata", name); err != nil {
		return err
	}
	data, err := readSized(r, size)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := metadataKey(deviceID, name)
	m.metadata[key] = data
	m.metadataVersion[key] = version
	return nil
}

// GetMetadataVersion returns 0 if nothing has been stored for deviceID/name.
func (m *MemoryVault) GetMetadataVersion(deviceID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.metadataVersion[metadataKey(deviceID, name)], nil
}

func (m *MemoryVault) GetMetadata(deviceID string, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.metadata[metadataKey(deviceID, name)]
	if !ok {
		return fmt.Errorf("metadata %q for device %s: %w", name, deviceID, ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ punch.Vault = (*MemoryVault)(nil)
