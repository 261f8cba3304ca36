package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
)

// testSalt returns a fresh random salt or fails the test.
func testSalt(t *testing.T) []byte {
	t.Helper()
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	return salt
}

// TestDeriveKey tests the PBKDF2 key derivation function.
func TestDeriveKey(t *testing.T) {
	pin := []byte("1234")
	salt := testSalt(t)

	key := DeriveKey(pin, salt)
	if len(key) != KeyLength {
		t.Errorf("DeriveKey() returned key of length %d, want %d", len(key), KeyLength)
	}

	// Same PIN + salt produces same key (deterministic).
	key2 := DeriveKey(pin, salt)
	if !bytes.Equal(key, key2) {
		t.Error("DeriveKey() with same inputs should produce identical keys")
	}

	// Different PIN produces different key.
	if bytes.Equal(key, DeriveKey([]byte("9999"), salt)) {
		t.Error("DeriveKey() with different PIN should produce different key")
	}

	// Different salt produces different key even for the same PIN.
	if bytes.Equal(key, DeriveKey(pin, testSalt(t))) {
		t.Error("DeriveKey() with different salt should produce different key")
	}
}

// TestDeriveKeyCrossDecrypt verifies two independent derivations of
// the same (pin, salt) pair produce interchangeable keys.
func TestDeriveKeyCrossDecrypt(t *testing.T) {
	salt := testSalt(t)
	keyA := DeriveKey([]byte("4711"), salt)
	keyB := DeriveKey([]byte("4711"), salt)

	plaintext := []byte(`{"assets":[]}`)
	container, err := Encrypt(plaintext, keyA, salt)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	got, err := Decrypt(container, keyB)
	if err != nil {
		t.Fatalf("Decrypt() with re-derived key error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

// TestEncryptDecryptRoundTrip tests encrypt/decrypt cycles over a
// range of payload shapes.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	salt := testSalt(t)
	key := DeriveKey([]byte("1234"), salt)

	testCases := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"small", []byte("x")},
		{"dataset", []byte(`{"assets":[],"beneficiaries":[],"history":[],"settings":{}}`)},
		{"large", make([]byte, 10000)},
		{"binary", []byte{0x00, 0xFF, 0x01, 0xFE, 0x02, 0xFD}},
	}
	if _, err := rand.Read(testCases[3].plaintext); err != nil {
		t.Fatalf("failed to generate random data: %v", err)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			container, err := Encrypt(tc.plaintext, key, salt)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			if container.V != ContainerVersion {
				t.Errorf("container version = %d, want %d", container.V, ContainerVersion)
			}
			gotSalt, err := container.SaltBytes()
			if err != nil {
				t.Fatalf("SaltBytes() error = %v", err)
			}
			if !bytes.Equal(gotSalt, salt) {
				t.Error("container salt does not match the supplied salt")
			}

			decrypted, err := Decrypt(container, key)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted, tc.plaintext) {
				t.Errorf("round trip failed: got length %d, want length %d", len(decrypted), len(tc.plaintext))
			}
		})
	}
}

// TestEncryptGeneratesSalt tests that Encrypt without a salt makes one.
func TestEncryptGeneratesSalt(t *testing.T) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	container, err := Encrypt([]byte("data"), key, nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	salt, err := container.SaltBytes()
	if err != nil {
		t.Fatalf("SaltBytes() error = %v", err)
	}
	if len(salt) != SaltLength {
		t.Errorf("generated salt length = %d, want %d", len(salt), SaltLength)
	}
}

// TestEncryptInvalidKeyLength tests that Encrypt rejects bad keys.
func TestEncryptInvalidKeyLength(t *testing.T) {
	tests := []struct {
		name   string
		keyLen int
	}{
		{"too short (16 bytes)", 16},
		{"too short (24 bytes)", 24},
		{"too long (48 bytes)", 48},
		{"empty key", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encrypt([]byte("test"), make([]byte, tt.keyLen), nil)
			if !errors.Is(err, ErrInvalidKeyLength) {
				t.Errorf("Encrypt() error = %v, want %v", err, ErrInvalidKeyLength)
			}
		})
	}
}

// TestDecryptWrongKey tests the wrong-PIN rejection property.
func TestDecryptWrongKey(t *testing.T) {
	salt := testSalt(t)
	key := DeriveKey([]byte("1234"), salt)
	wrongKey := DeriveKey([]byte("9999"), salt)

	container, err := Encrypt([]byte("secret data"), key, salt)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(container, wrongKey); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong key error = %v, want %v", err, ErrDecryptionFailed)
	}
}

// TestDecryptTampered tests that any flipped bit in ciphertext or IV
// is detected, never returning corrupted plaintext.
func TestDecryptTampered(t *testing.T) {
	salt := testSalt(t)
	key := DeriveKey([]byte("1234"), salt)

	container, err := Encrypt([]byte("secret data that should be protected"), key, salt)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	tamper := func(field string, mutate func(b []byte)) *Container {
		c := *container
		var raw []byte
		switch field {
		case "ct":
			raw, _ = base64.StdEncoding.DecodeString(c.CT)
		case "iv":
			raw, _ = base64.StdEncoding.DecodeString(c.IV)
		}
		mutate(raw)
		enc := base64.StdEncoding.EncodeToString(raw)
		if field == "ct" {
			c.CT = enc
		} else {
			c.IV = enc
		}
		return &c
	}

	tests := []struct {
		name string
		c    *Container
	}{
		{"first ciphertext bit", tamper("ct", func(b []byte) { b[0] ^= 0x01 })},
		{"last ciphertext bit (tag)", tamper("ct", func(b []byte) { b[len(b)-1] ^= 0x80 })},
		{"iv bit", tamper("iv", func(b []byte) { b[5] ^= 0x04 })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decrypt(tt.c, key)
			if !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("Decrypt() error = %v, want %v", err, ErrDecryptionFailed)
			}
			if out != nil {
				t.Error("Decrypt() returned output on integrity failure")
			}
		})
	}
}

// TestDecryptMalformedContainer tests structural validation.
func TestDecryptMalformedContainer(t *testing.T) {
	key := make([]byte, KeyLength)

	tests := []struct {
		name string
		c    *Container
	}{
		{"nil container", nil},
		{"wrong version", &Container{V: 2, IV: b64(make([]byte, IVLength)), Salt: b64(make([]byte, SaltLength)), CT: b64([]byte("x"))}},
		{"missing iv", &Container{V: 1, Salt: b64(make([]byte, SaltLength)), CT: b64([]byte("x"))}},
		{"short iv", &Container{V: 1, IV: b64(make([]byte, 8)), Salt: b64(make([]byte, SaltLength)), CT: b64([]byte("x"))}},
		{"missing salt", &Container{V: 1, IV: b64(make([]byte, IVLength)), CT: b64([]byte("x"))}},
		{"missing ct", &Container{V: 1, IV: b64(make([]byte, IVLength)), Salt: b64(make([]byte, SaltLength))}},
		{"invalid base64 ct", &Container{V: 1, IV: b64(make([]byte, IVLength)), Salt: b64(make([]byte, SaltLength)), CT: "!!!not base64!!!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.c, key)
			if !errors.Is(err, ErrInvalidContainer) {
				t.Errorf("Decrypt() error = %v, want %v", err, ErrInvalidContainer)
			}
		})
	}
}

// TestReEncrypt tests the PIN-change primitive.
func TestReEncrypt(t *testing.T) {
	oldSalt := testSalt(t)
	oldKey := DeriveKey([]byte("1234"), oldSalt)
	plaintext := []byte(`{"assets":[{"id":"a1"}]}`)

	container, err := Encrypt(plaintext, oldKey, oldSalt)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	newSalt := testSalt(t)
	newKey := DeriveKey([]byte("5678"), newSalt)

	newContainer, err := ReEncrypt(container, oldKey, newKey, newSalt)
	if err != nil {
		t.Fatalf("ReEncrypt() error = %v", err)
	}

	// Salt rotated.
	if newContainer.Salt == container.Salt {
		t.Error("ReEncrypt() must rotate the salt")
	}
	if newContainer.IV == container.IV {
		t.Error("ReEncrypt() must use a fresh IV")
	}

	// Old key no longer decrypts; new key yields the same plaintext.
	if _, err := Decrypt(newContainer, oldKey); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt(new container, old key) error = %v, want %v", err, ErrDecryptionFailed)
	}
	got, err := Decrypt(newContainer, newKey)
	if err != nil {
		t.Fatalf("Decrypt(new container, new key) error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("ReEncrypt() changed plaintext: got %q, want %q", got, plaintext)
	}

	// Input container untouched and still valid under the old key.
	if _, err := Decrypt(container, oldKey); err != nil {
		t.Errorf("original container no longer decrypts: %v", err)
	}
}

// TestReEncryptWrongOldKey tests that re-encryption refuses a bad key.
func TestReEncryptWrongOldKey(t *testing.T) {
	salt := testSalt(t)
	key := DeriveKey([]byte("1234"), salt)
	container, err := Encrypt([]byte("data"), key, salt)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	wrongKey := DeriveKey([]byte("0000"), salt)
	newSalt := testSalt(t)
	newKey := DeriveKey([]byte("5678"), newSalt)

	if _, err := ReEncrypt(container, wrongKey, newKey, newSalt); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("ReEncrypt() with wrong old key error = %v, want %v", err, ErrDecryptionFailed)
	}
}

// TestEncryptProducesUniqueIV tests that each encryption produces a
// unique IV under the same key.
func TestEncryptProducesUniqueIV(t *testing.T) {
	salt := testSalt(t)
	key := DeriveKey([]byte("1234"), salt)

	ivs := make(map[string]bool)
	for i := 0; i < 100; i++ {
		container, err := Encrypt([]byte("test data"), key, salt)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if ivs[container.IV] {
			t.Errorf("Encrypt() produced duplicate IV on iteration %d", i)
		}
		ivs[container.IV] = true
	}
}

// TestSecureWipe tests that SecureWipe zeros out memory.
func TestSecureWipe(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	SecureWipe(data)
	for i, b := range data {
		if b != 0 {
			t.Errorf("SecureWipe() byte[%d] = %d, want 0", i, b)
		}
	}

	// Must not panic on empty or nil slices.
	SecureWipe([]byte{})
	SecureWipe(nil)
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// BenchmarkDeriveKey benchmarks the deliberately slow KDF.
func BenchmarkDeriveKey(b *testing.B) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		b.Fatalf("failed to generate salt: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DeriveKey([]byte("1234"), salt)
	}
}

// BenchmarkEncrypt benchmarks container encryption of a 1KB payload.
func BenchmarkEncrypt(b *testing.B) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		b.Fatalf("failed to generate key: %v", err)
	}
	salt := make([]byte, SaltLength)
	plaintext := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encrypt(plaintext, key, salt)
	}
}
