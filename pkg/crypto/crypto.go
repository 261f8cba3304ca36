// Package crypto provides the cryptographic core for koasset.
//
// This package implements AES-256-GCM authenticated encryption and
// PBKDF2-HMAC-SHA256 key derivation for turning a short numeric PIN
// into a usable encryption key.
//
// # Security Features
//
//   - AES-256-GCM authenticated encryption (confidentiality + integrity)
//   - PBKDF2-HMAC-SHA256 key derivation (600,000 iterations, salted)
//   - Cryptographically secure random IV per encryption
//   - Secure memory wiping for key material
//
// # Example Usage
//
//	salt, _ := crypto.GenerateSalt()
//	key := crypto.DeriveKey([]byte("1234"), salt)
//
//	container, err := crypto.Encrypt(plaintext, key, salt)
//
//	plaintext, err := crypto.Decrypt(container, key)
//
//	crypto.SecureWipe(key)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation and cipher parameters. The PBKDF2 iteration count is
// deliberately high because the PIN has very little entropy; an
// attacker with the container must pay the full derivation cost per
// guess.
const (
	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations = 600_000

	// KeyLength is the length of encryption keys in bytes (256 bits).
	KeyLength = 32

	// SaltLength is the length of KDF salts in bytes (128 bits).
	SaltLength = 16

	// IVLength is the length of GCM IVs in bytes (96 bits).
	IVLength = 12

	// ContainerVersion is the current container format version.
	ContainerVersion = 1
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrDecryptionFailed indicates decryption or authentication tag
	// verification failed. Wrong key and corrupted/tampered data are
	// deliberately indistinguishable.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag verification failed")

	// ErrInvalidContainer indicates the container is structurally
	// malformed (missing fields, bad base64, wrong IV/salt size).
	ErrInvalidContainer = errors.New("crypto: invalid encrypted container")
)

// Container is one complete encrypted snapshot of the dataset.
// Binary fields are base64 (std) encoded for storage and transport.
// A container is immutable once created; a mutation produces a new
// container, never a partial update.
type Container struct {
	V    int    `json:"v"`
	IV   string `json:"iv"`
	Salt string `json:"salt"`
	CT   string `json:"ct"`
}

// Validate checks the container for structural integrity without
// touching any key material: field presence, base64 shape, and
// IV/salt sizes. It does NOT verify authenticity; only Decrypt can.
func (c *Container) Validate() error {
	if c == nil {
		return ErrInvalidContainer
	}
	if c.V != ContainerVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidContainer, c.V)
	}
	iv, err := base64.StdEncoding.DecodeString(c.IV)
	if err != nil || len(iv) != IVLength {
		return fmt.Errorf("%w: bad iv", ErrInvalidContainer)
	}
	salt, err := base64.StdEncoding.DecodeString(c.Salt)
	if err != nil || len(salt) != SaltLength {
		return fmt.Errorf("%w: bad salt", ErrInvalidContainer)
	}
	if c.CT == "" {
		return fmt.Errorf("%w: missing ciphertext", ErrInvalidContainer)
	}
	if _, err := base64.StdEncoding.DecodeString(c.CT); err != nil {
		return fmt.Errorf("%w: bad ciphertext encoding", ErrInvalidContainer)
	}
	return nil
}

// SaltBytes returns the decoded KDF salt stored in the container.
func (c *Container) SaltBytes() ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(c.Salt)
	if err != nil || len(salt) != SaltLength {
		return nil, fmt.Errorf("%w: bad salt", ErrInvalidContainer)
	}
	return salt, nil
}

// GenerateSalt generates a cryptographically secure random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 256-bit encryption key from a PIN using
// PBKDF2-HMAC-SHA256 with 600,000 iterations.
//
// The same (pin, salt) pair always yields the same key; different
// salts yield unrelated keys even for the same PIN. The salt must be
// SaltLength bytes of cryptographically secure random data.
func DeriveKey(pin, salt []byte) []byte {
	return pbkdf2.Key(pin, salt, KDFIterations, KeyLength, sha256.New)
}

// Encrypt encrypts plaintext using AES-256-GCM and packages the result
// as a Container.
//
// A fresh random 12-byte IV is generated per call; IVs are never
// reused for a given key. The salt recorded in the container must be
// the one the key was derived from. If salt is nil, a fresh salt is
// generated (new-data-under-existing-key cases and tests); callers
// holding a session salt always pass it explicitly.
func Encrypt(plaintext, key, salt []byte) (*Container, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	if len(salt) == 0 {
		var err error
		salt, err = GenerateSalt()
		if err != nil {
			return nil, err
		}
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("crypto: invalid salt length %d, must be %d", len(salt), SaltLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate iv: %w", err)
	}

	// The authentication tag is appended to the ciphertext by Seal.
	ct := gcm.Seal(nil, iv, plaintext, nil)

	return &Container{
		V:    ContainerVersion,
		IV:   base64.StdEncoding.EncodeToString(iv),
		Salt: base64.StdEncoding.EncodeToString(salt),
		CT:   base64.StdEncoding.EncodeToString(ct),
	}, nil
}

// Decrypt decrypts a container using AES-256-GCM.
//
// The authentication tag is verified before any plaintext is returned.
// If verification fails (wrong key, or tampered/corrupted IV or
// ciphertext), ErrDecryptionFailed is returned and no output is
// produced. Callers must not distinguish the two causes.
func Decrypt(c *Container, key []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	iv, _ := base64.StdEncoding.DecodeString(c.IV)
	ct, _ := base64.StdEncoding.DecodeString(c.CT)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	if len(ct) < gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrInvalidContainer)
	}

	plaintext, err := gcm.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// ReEncrypt decrypts a container with oldKey and re-encrypts the
// plaintext under newKey with a freshly generated salt and IV.
//
// The salt always rotates on re-encryption: newKey must have been
// derived from newSalt by the caller. Fails with ErrDecryptionFailed
// if oldKey cannot authenticate the container; the input container is
// never mutated.
func ReEncrypt(c *Container, oldKey, newKey, newSalt []byte) (*Container, error) {
	plaintext, err := Decrypt(c, oldKey)
	if err != nil {
		return nil, err
	}
	defer SecureWipe(plaintext)

	return Encrypt(plaintext, newKey, newSalt)
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation. Used to destroy
// session keys and decrypted payloads.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the writes are not optimized away
	// since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}
