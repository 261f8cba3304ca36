package lockout

import (
	"testing"
	"time"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// TestStatusZeroMetadata tests that fresh metadata reads as unlocked.
func TestStatusZeroMetadata(t *testing.T) {
	var m Metadata
	s := m.Status(baseTime)
	if s.IsLocked {
		t.Error("zero metadata should not be locked")
	}
	if s.Remaining != 0 {
		t.Errorf("Remaining = %v, want 0", s.Remaining)
	}
}

// TestRecordFailureProgression tests the counter up to and past the
// lockout threshold.
func TestRecordFailureProgression(t *testing.T) {
	var m Metadata

	// Failures 1 and 2 count but do not arm the lockout.
	for i := 1; i < MaxAttempts; i++ {
		m = RecordFailure(m, baseTime)
		if m.FailedAttempts != i {
			t.Fatalf("after failure %d: FailedAttempts = %d", i, m.FailedAttempts)
		}
		if m.LastAttemptTimestamp != baseTime.UnixMilli() {
			t.Errorf("after failure %d: LastAttemptTimestamp = %d, want %d", i, m.LastAttemptTimestamp, baseTime.UnixMilli())
		}
		if m.LockoutUntil != 0 {
			t.Errorf("after failure %d: lockout armed early (LockoutUntil = %d)", i, m.LockoutUntil)
		}
		if m.Status(baseTime).IsLocked {
			t.Errorf("after failure %d: Status reports locked", i)
		}
	}

	// Third failure arms the 30-day lockout.
	m = RecordFailure(m, baseTime)
	if m.FailedAttempts != MaxAttempts {
		t.Fatalf("FailedAttempts = %d, want %d", m.FailedAttempts, MaxAttempts)
	}
	wantUntil := baseTime.Add(Duration).UnixMilli()
	if m.LockoutUntil != wantUntil {
		t.Errorf("LockoutUntil = %d, want %d", m.LockoutUntil, wantUntil)
	}

	s := m.Status(baseTime)
	if !s.IsLocked {
		t.Fatal("Status should report locked at the threshold")
	}
	if s.Remaining != Duration {
		t.Errorf("Remaining = %v, want %v", s.Remaining, Duration)
	}
}

// TestStatusExpiry tests that the lockout lapses by the passage of
// time alone, without any metadata mutation.
func TestStatusExpiry(t *testing.T) {
	var m Metadata
	for i := 0; i < MaxAttempts; i++ {
		m = RecordFailure(m, baseTime)
	}

	tests := []struct {
		name       string
		now        time.Time
		wantLocked bool
	}{
		{"immediately after", baseTime, true},
		{"one day in", baseTime.Add(24 * time.Hour), true},
		{"one millisecond before expiry", baseTime.Add(Duration - time.Millisecond), true},
		{"at expiry", baseTime.Add(Duration), false},
		{"after expiry", baseTime.Add(Duration + time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := m.Status(tt.now)
			if s.IsLocked != tt.wantLocked {
				t.Errorf("IsLocked = %v, want %v", s.IsLocked, tt.wantLocked)
			}
			if !tt.wantLocked && s.Remaining != 0 {
				t.Errorf("Remaining = %v, want 0 when unlocked", s.Remaining)
			}
		})
	}

	// Expired lockout leaves the stored metadata untouched.
	if m.LockoutUntil == 0 || m.FailedAttempts != MaxAttempts {
		t.Error("Status must not mutate stored metadata on expiry")
	}
}

// TestStatusRemainingCountdown tests that Remaining shrinks as time
// advances.
func TestStatusRemainingCountdown(t *testing.T) {
	var m Metadata
	for i := 0; i < MaxAttempts; i++ {
		m = RecordFailure(m, baseTime)
	}

	later := baseTime.Add(10 * 24 * time.Hour)
	s := m.Status(later)
	want := Duration - 10*24*time.Hour
	if s.Remaining != want {
		t.Errorf("Remaining = %v, want %v", s.Remaining, want)
	}
}

// TestRecordSuccess tests the full reset, including after an armed
// lockout has expired.
func TestRecordSuccess(t *testing.T) {
	var m Metadata
	for i := 0; i < MaxAttempts; i++ {
		m = RecordFailure(m, baseTime)
	}

	m = RecordSuccess()
	if m.FailedAttempts != 0 || m.LastAttemptTimestamp != 0 || m.LockoutUntil != 0 {
		t.Errorf("RecordSuccess() = %+v, want zero value", m)
	}
	if m.Status(baseTime).IsLocked {
		t.Error("metadata should be unlocked after success")
	}
}

// TestFailuresAccumulateAcrossTime tests that the counter is
// consecutive-failure based, not windowed: two failures a week apart
// still leave only one attempt remaining.
func TestFailuresAccumulateAcrossTime(t *testing.T) {
	m := RecordFailure(Metadata{}, baseTime)
	m = RecordFailure(m, baseTime.Add(7*24*time.Hour))
	if m.FailedAttempts != 2 {
		t.Errorf("FailedAttempts = %d, want 2", m.FailedAttempts)
	}
	if m.LockoutUntil != 0 {
		t.Error("lockout should not be armed at two failures")
	}

	m = RecordFailure(m, baseTime.Add(14*24*time.Hour))
	if m.Status(baseTime.Add(14*24*time.Hour)).IsLocked == false {
		t.Error("third failure should arm the lockout regardless of spacing")
	}
}
