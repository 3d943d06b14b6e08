package testutil

import (
	"punch-go/internal/encryption"
	"punch-go/internal/punch"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() punch.Encryptor {
	return encryption.NewTestEncryptor()
}
