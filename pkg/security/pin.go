// Package security provides PIN validation and weak-PIN detection.
package security

import (
	"errors"
	"fmt"
)

// ErrInvalidPINFormat indicates the PIN is not exactly four digits.
var ErrInvalidPINFormat = errors.New("security: PIN must be exactly 4 digits")

// commonPINs are the most frequently chosen 4-digit PINs; flagged as
// weak in addition to the structural checks below.
var commonPINs = map[string]bool{
	"1234": true, "0000": true, "2580": true, "1111": true,
	"5555": true, "5683": true, "0852": true, "2222": true,
	"1212": true, "1998": true,
}

// ValidatePIN checks that the PIN is exactly four ASCII digits.
// This is the only blocking check; weakness is advisory.
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return ErrInvalidPINFormat
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return ErrInvalidPINFormat
		}
	}
	return nil
}

// IsWeakPIN reports whether a valid PIN is easily guessable, with a
// human-readable reason. Weak PINs are warned about at setup and
// change but never rejected; the lockout policy is the real defense.
func IsWeakPIN(pin string) (bool, string) {
	if ValidatePIN(pin) != nil {
		return false, ""
	}

	if commonPINs[pin] {
		return true, fmt.Sprintf("%q is one of the most common PINs", pin)
	}

	// All digits identical.
	if pin[0] == pin[1] && pin[1] == pin[2] && pin[2] == pin[3] {
		return true, "all digits are identical"
	}

	// Ascending or descending run (e.g. 3456, 9876).
	asc, desc := true, true
	for i := 1; i < 4; i++ {
		if pin[i] != pin[i-1]+1 {
			asc = false
		}
		if pin[i] != pin[i-1]-1 {
			desc = false
		}
	}
	if asc || desc {
		return true, "digits form a sequential run"
	}

	// Repeated pair (e.g. 1212, 4747).
	if pin[0] == pin[2] && pin[1] == pin[3] {
		return true, "digits are a repeated pair"
	}

	return false, ""
}
