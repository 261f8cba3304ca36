// Package lockout implements the brute-force lockout policy for the
// vault: three consecutive failed PIN attempts arm a 30-day lockout.
//
// The package is pure: every function derives its result from a
// Metadata value and an explicit clock reading. Persistence of the
// metadata is the store's job; enforcement is the session manager's.
package lockout

import "time"

const (
	// MaxAttempts is the number of consecutive failures before the
	// lockout arms.
	MaxAttempts = 3

	// Duration is how long the vault stays locked once armed.
	Duration = 30 * 24 * time.Hour
)

// Metadata is the persisted lockout state. Timestamps are Unix epoch
// milliseconds; zero means unset. It lives in the store's auth slot as
// plaintext JSON: it must be readable before any key exists, and it
// protects nothing secret.
type Metadata struct {
	FailedAttempts       int   `json:"failedAttempts"`
	LastAttemptTimestamp int64 `json:"lastAttemptTimestamp"`
	LockoutUntil         int64 `json:"lockoutUntil,omitempty"`
}

// Status is the derived lockout state at a point in time.
type Status struct {
	IsLocked  bool
	Remaining time.Duration
}

// Status derives the lockout state from metadata at the given time.
// It never mutates counters: an expired lockout reads as unlocked even
// though the stored metadata still carries the old deadline. The next
// successful login clears it.
func (m Metadata) Status(now time.Time) Status {
	if m.LockoutUntil == 0 {
		return Status{}
	}
	remaining := time.Duration(m.LockoutUntil-now.UnixMilli()) * time.Millisecond
	if remaining <= 0 {
		return Status{}
	}
	return Status{IsLocked: true, Remaining: remaining}
}

// RecordFailure returns the metadata after one more failed attempt.
// The counter increments and the attempt is stamped; reaching
// MaxAttempts arms LockoutUntil. Callers must not invoke this while
// Status reports locked: refused attempts are not recorded.
func RecordFailure(m Metadata, now time.Time) Metadata {
	m.FailedAttempts++
	m.LastAttemptTimestamp = now.UnixMilli()
	if m.FailedAttempts >= MaxAttempts {
		m.LockoutUntil = now.Add(Duration).UnixMilli()
	}
	return m
}

// RecordSuccess returns the cleared metadata: counter, stamp, and any
// armed or expired lockout all reset.
func RecordSuccess() Metadata {
	return Metadata{}
}
