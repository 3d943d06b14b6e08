package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"punch-go/internal/punch"
)

// FileSystemVault stores exports and metadata as files under a root
// directory:
//
//	<root>/
//	  exports/
//	    <name>                 (rendered timesheets)
//	  metadata/
//	    <deviceID>/<name>      (database snapshots)
//	    <deviceID>/<name>.version
type FileSystemVault struct {
	name        string
	root        string
	exportDir   string
	metadataDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	exportDir := filepath.Join(root, "exports")
	metadataDir := filepath.Join(root, "metadata")

	for _, dir := range []string{exportDir, metadataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create vault directory: %w", err)
		}
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		exportDir:   exportDir,
		metadataDir: metadataDir,
	}, nil
}

func (v *FileSystemVault) PutExport(name string, r io.Reader, size int64) error {
	if err := validateName("export", name); err != nil {
		return err
	}
	return writeFile(filepath.Join(v.exportDir, name), r, size)
}

func (v *FileSystemVault) GetExport(name string, w io.Writer) error {
	if err := validateName("export", name); err != nil {
		return err
	}
	return readFile(filepath.Join(v.exportDir, name), w, fmt.Sprintf("export %q", name))
}

func (v *FileSystemVault) ListExports() ([]string, error) {
	entries, err := os.ReadDir(v.exportDir)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (v *FileSystemVault) deviceDir(deviceID string) (string, error) {
	if err := validateName("device", deviceID); err != nil {
		return "", err
	}
	return filepath.Join(v.metadataDir, deviceID), nil
}

// PutMetadata writes the item and then its version marker. A reader that
// sees the new version is therefore guaranteed to see the new item.
func (v *FileSystemVault) PutMetadata(deviceID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateName("metadata", name); err != nil {
		return err
	}
	dir, err := v.deviceDir(deviceID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	if err := writeFile(filepath.Join(dir, name), r, size); err != nil {
		return err
	}
	data := strconv.FormatInt(version, 10)
	return writeFile(filepath.Join(dir, name+".version"), strings.NewReader(data), int64(len(data)))
}

// GetMetadataVersion returns 0 if no version file exists.
func (v *FileSystemVault) GetMetadataVersion(deviceID string, name string) (int64, error) {
	dir, err := v.deviceDir(deviceID)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".version"))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

func (v *FileSystemVault) GetMetadata(deviceID string, name string, w io.Writer) error {
	dir, err := v.deviceDir(deviceID)
	if err != nil {
		return err
	}
	return readFile(filepath.Join(dir, name), w, fmt.Sprintf("metadata %q for device %s", name, deviceID))
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.exportDir, v.metadataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes r to destPath atomically (temp file + rename).
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

func readFile(srcPath string, w io.Writer, what string) error {
	f, err := os.Open(srcPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

var _ punch.Vault = (*FileSystemVault)(nil)
