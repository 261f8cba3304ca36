// Package vault implements the session lifecycle around the encrypted
// container: setup, login, PIN change, logout, and all dataset reads
// and writes while a session key is live.
//
// The Session is the only component that ever holds the derived key
// and its paired salt. Every state transition and every dataset
// mutation serializes on one mutex, so a PIN change can never
// interleave with a write.
package vault

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/crypto"
	"github.com/koasset/koasset/pkg/lockout"
	"github.com/koasset/koasset/pkg/model"
	"github.com/koasset/koasset/pkg/security"
	"github.com/koasset/koasset/pkg/store"
)

// Session is the vault session manager. It moves through three
// states: uninitialized (no container), locked (container exists, no
// key), and authenticated (key held, cache hydrated).
type Session struct {
	mu    sync.Mutex
	store *store.Store
	audit *audit.Logger

	key   []byte
	salt  []byte
	cache *cache
}

// NewSession creates a session manager over the given store. The
// audit logger may be nil; auditing is best-effort either way.
func NewSession(st *store.Store, logger *audit.Logger) *Session {
	return &Session{store: st, audit: logger}
}

// IsSetup reports whether a container exists.
func (s *Session) IsSetup() (bool, error) {
	c, err := s.store.GetEncryptedData()
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// IsAuthenticated reports whether a session key is live.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil
}

// LockoutStatus returns the current lockout state.
func (s *Session) LockoutStatus() (lockout.Status, error) {
	m, err := s.store.GetAuthMetadata()
	if err != nil {
		return lockout.Status{}, err
	}
	return m.Status(time.Now()), nil
}

// FailedAttempts returns the current consecutive-failure count.
func (s *Session) FailedAttempts() (int, error) {
	m, err := s.store.GetAuthMetadata()
	if err != nil {
		return 0, err
	}
	return m.FailedAttempts, nil
}

// Setup initializes a fresh vault with the given PIN: it encrypts an
// empty dataset and leaves the session authenticated.
func (s *Session) Setup(pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Validate PIN format
	if err := security.ValidatePIN(pin); err != nil {
		return err
	}

	// 2. Refuse if a container already exists
	existing, err := s.store.GetEncryptedData()
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyInitialized
	}

	// 3. Fresh salt, derive key
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	key := crypto.DeriveKey([]byte(pin), salt)

	// 4. Encrypt the empty dataset and persist it
	dataset := model.NewDataset()
	raw, err := dataset.Marshal()
	if err != nil {
		crypto.SecureWipe(key)
		return err
	}
	container, err := crypto.Encrypt(raw, key, salt)
	crypto.SecureWipe(raw)
	if err != nil {
		crypto.SecureWipe(key)
		return err
	}
	if err := s.store.SaveEncryptedData(container); err != nil {
		crypto.SecureWipe(key)
		return err
	}
	if err := s.store.SaveAuthMetadata(lockout.RecordSuccess()); err != nil {
		crypto.SecureWipe(key)
		return err
	}

	// 5. Hold key material and hydrate
	s.key = key
	s.salt = salt
	s.cache = &cache{data: dataset}

	s.auditKey()
	s.logSuccess(audit.OpVaultSetup)
	return nil
}

// Login verifies the PIN against the stored container and hydrates
// the cache on success. While the lockout is active the attempt is
// refused outright and not counted; a wrong PIN on an open vault
// records one failure.
func (s *Session) Login(pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. A malformed PIN can never be correct; reject it without
	// consuming an attempt.
	if err := security.ValidatePIN(pin); err != nil {
		return ErrInvalidPIN
	}

	// 2. Need a container to verify against
	container, err := s.store.GetEncryptedData()
	if err != nil {
		return err
	}
	if container == nil {
		return ErrNotInitialized
	}

	// 3. Refuse while locked, before any KDF work
	meta, err := s.store.GetAuthMetadata()
	if err != nil {
		return err
	}
	now := time.Now()
	if meta.Status(now).IsLocked {
		return ErrLockedOut
	}

	// 4. Derive with the container's stored salt and test-decrypt.
	// Decryption is the PIN check: only the right key authenticates.
	salt, err := container.SaltBytes()
	if err != nil {
		return err
	}
	key := crypto.DeriveKey([]byte(pin), salt)
	raw, err := crypto.Decrypt(container, key)
	if err != nil {
		crypto.SecureWipe(key)
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			// 5a. Record the failure; arming the lockout at the
			// threshold happens inside the policy.
			if saveErr := s.store.SaveAuthMetadata(lockout.RecordFailure(meta, now)); saveErr != nil {
				return saveErr
			}
			s.logError(audit.OpVaultUnlockFailed, "invalid_pin", "PIN verification failed")
			return ErrInvalidPIN
		}
		return err
	}

	// 5b. Hydrate; invalid records are quarantined, not fatal
	dataset, report, err := model.ParseDataset(raw)
	crypto.SecureWipe(raw)
	if err != nil {
		crypto.SecureWipe(key)
		return err
	}

	// 6. Success: clear lockout state, hold key material
	if err := s.store.SaveAuthMetadata(lockout.RecordSuccess()); err != nil {
		crypto.SecureWipe(key)
		return err
	}
	s.key = key
	s.salt = salt
	s.cache = &cache{data: dataset, report: report}

	s.auditKey()
	s.logSuccess(audit.OpVaultUnlock)
	return nil
}

// ChangePIN rotates the PIN: the whole dataset is re-encrypted under a
// new key derived from a new salt. The old key is wiped only after the
// new container is durably saved; any failure leaves the vault exactly
// as it was.
func (s *Session) ChangePIN(oldPIN, newPIN string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return ErrNotAuthenticated
	}
	if err := security.ValidatePIN(newPIN); err != nil {
		return err
	}

	// 1. Verify the old PIN against the held key. Constant-time
	// comparison; PIN-change failures do not feed the lockout counter.
	candidate := crypto.DeriveKey([]byte(oldPIN), s.salt)
	ok := hmac.Equal(candidate, s.key)
	crypto.SecureWipe(candidate)
	if !ok {
		return ErrInvalidPIN
	}

	// 2. New salt, new key
	newSalt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	newKey := crypto.DeriveKey([]byte(newPIN), newSalt)

	// 3. Re-encrypt the current dataset under the new key
	raw, err := s.cache.data.Marshal()
	if err != nil {
		crypto.SecureWipe(newKey)
		return err
	}
	container, err := crypto.Encrypt(raw, newKey, newSalt)
	crypto.SecureWipe(raw)
	if err != nil {
		crypto.SecureWipe(newKey)
		return err
	}

	// 4. Persist, then swap. Order matters: a crash before the save
	// leaves the old container and old PIN fully intact.
	if err := s.store.SaveEncryptedData(container); err != nil {
		crypto.SecureWipe(newKey)
		return fmt.Errorf("pin change aborted: %w", err)
	}
	crypto.SecureWipe(s.key)
	s.key = newKey
	s.salt = newSalt

	s.auditKey()
	s.logSuccess(audit.OpVaultPINChange)
	return nil
}

// Logout wipes the session key and drops the plaintext cache. The
// persisted container and lockout metadata are untouched.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return
	}
	s.logSuccess(audit.OpVaultLock)
	crypto.SecureWipe(s.key)
	s.key = nil
	s.salt = nil
	s.cache = nil
}

// Reset destroys the vault: container, lockout metadata, and any live
// session. The encrypted data is unrecoverable afterwards.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logSuccess(audit.OpVaultReset)
	if err := s.store.ClearAll(); err != nil {
		return err
	}
	if s.key != nil {
		crypto.SecureWipe(s.key)
	}
	s.key = nil
	s.salt = nil
	s.cache = nil
	return nil
}

func (s *Session) auditKey() {
	if s.audit == nil {
		return
	}
	if err := s.audit.SetHMACKey(s.key); err != nil {
		// Best-effort: a vault operation never fails on audit trouble.
		_ = err
	}
}

func (s *Session) logSuccess(op string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogSuccess(op, audit.SourceCLI)
}

func (s *Session) logError(op, code, msg string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogError(op, audit.SourceCLI, code, msg)
}
