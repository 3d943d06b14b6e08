// Package vault implements punch.Vault backends: in-memory, a local
// directory, and an S3 bucket.
package vault

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound is wrapped by Get* methods when the requested item does not exist.
var ErrNotFound = errors.New("not found in vault")

// validateName rejects export and metadata names that could escape their
// directory or prefix.
func validateName(kind, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}
