package testutil

import (
	"sitereports/internal/encryption"
	"sitereports/internal/sitereports"
	"sitereports/internal/vault"
)

// NewTestEncryptor creates the header-only encryptor used in tests.
func NewTestEncryptor() sitereports.Encryptor {
	return encryption.NewTestEncryptor()
}

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}
