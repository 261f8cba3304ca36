package vault

import "errors"

// Sentinel errors returned by the session manager.
var (
	// ErrAlreadyInitialized indicates Setup was called on a vault
	// that already has a container.
	ErrAlreadyInitialized = errors.New("vault: already initialized")

	// ErrNotInitialized indicates Login was called before any Setup.
	ErrNotInitialized = errors.New("vault: not initialized")

	// ErrInvalidPIN indicates PIN verification failed. The underlying
	// crypto error never escapes; wrong PIN and corrupted container
	// look identical to callers.
	ErrInvalidPIN = errors.New("vault: incorrect PIN")

	// ErrLockedOut indicates the vault refused the attempt because
	// the brute-force lockout is active. The attempt is not counted.
	ErrLockedOut = errors.New("vault: locked out after too many failed attempts")

	// ErrNotAuthenticated indicates a data operation was attempted
	// without a live session key.
	ErrNotAuthenticated = errors.New("vault: not authenticated")
)
