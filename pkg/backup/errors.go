package backup

import "errors"

// Sentinel errors for backup operations.
var (
	// ErrInvalidFormat indicates the backup file is not structurally
	// valid. Raised before any key derivation or decryption.
	ErrInvalidFormat = errors.New("backup: invalid backup format")

	// ErrWrongPIN indicates the supplied PIN cannot decrypt the
	// imported container. The local vault is untouched.
	ErrWrongPIN = errors.New("backup: PIN does not match backup")

	// ErrNoData indicates there is no container to export.
	ErrNoData = errors.New("backup: vault is not initialized")
)
