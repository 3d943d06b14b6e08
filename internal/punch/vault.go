package punch

import "io"

// Vault is off-device storage for exported timesheets and database snapshots.
// All operations stream through io.Reader/io.Writer.
type Vault interface {
	// PutExport stores a rendered export under name, replacing any existing
	// export with that name. size is the number of bytes that will be read
	// from r.
	PutExport(name string, r io.Reader, size int64) error

	// GetExport retrieves an export by name and writes it to w.
	GetExport(name string, w io.Writer) error

	// ListExports returns the names of all stored exports, sorted.
	ListExports() ([]string, error)

	// PutMetadata stores a named metadata item for a device. version is
	// stored alongside for consistency checks. Known names: "db".
	PutMetadata(deviceID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named metadata item for a device and writes it to w.
	GetMetadata(deviceID string, name string, w io.Writer) error

	// GetMetadataVersion returns the stored version, or 0 if the item has
	// never been stored.
	GetMetadataVersion(deviceID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and configured.
	ValidateSetup() error
}
