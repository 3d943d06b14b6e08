package testutil

import (
	"punch-go/internal/punch"
	"punch-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() punch.Vault {
	return vault.NewMemoryVault("test-vault")
}
