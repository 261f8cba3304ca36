package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := NewLogger(filepath.Join(t.TempDir(), "audit"))
	key := make([]byte, 32)
	copy(key, "test-session-key-0123456789abcdef")
	if err := l.SetHMACKey(key); err != nil {
		t.Fatalf("SetHMACKey() error = %v", err)
	}
	return l
}

// TestLogRequiresKey tests that logging is refused before a key is set.
func TestLogRequiresKey(t *testing.T) {
	l := NewLogger(t.TempDir())
	if err := l.LogSuccess(OpVaultUnlock, SourceCLI); err == nil {
		t.Error("Log() should fail before SetHMACKey()")
	}
}

// TestLogAndVerify tests that a sequence of events forms a valid chain.
func TestLogAndVerify(t *testing.T) {
	l := newTestLogger(t)

	if err := l.LogSuccess(OpVaultSetup, SourceCLI); err != nil {
		t.Fatalf("LogSuccess() error = %v", err)
	}
	if err := l.LogError(OpVaultUnlockFailed, SourceCLI, "invalid_pin", "incorrect PIN"); err != nil {
		t.Fatalf("LogError() error = %v", err)
	}
	if err := l.LogDenied(OpMCPDenied, SourceMCP, "tool not allowed"); err != nil {
		t.Fatalf("LogDenied() error = %v", err)
	}
	if err := l.Log(OpDataWrite, SourceCLI, ResultSuccess, nil, map[string]any{"collection": "assets"}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	result, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("Verify().Valid = false, errors: %v", result.Errors)
	}
	if result.RecordsTotal != 4 {
		t.Errorf("RecordsTotal = %d, want 4", result.RecordsTotal)
	}
}

// TestVerifyDetectsTampering tests that editing a record breaks the
// chain.
func TestVerifyDetectsTampering(t *testing.T) {
	l := newTestLogger(t)

	for i := 0; i < 3; i++ {
		if err := l.LogSuccess(OpVaultUnlock, SourceCLI); err != nil {
			t.Fatalf("LogSuccess() error = %v", err)
		}
	}

	// Flip the result of the middle record on disk.
	logFile := filepath.Join(l.Path(), time.Now().UTC().Format("2006-01")+".jsonl")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3", len(lines))
	}

	var event Event
	if err := json.Unmarshal([]byte(lines[1]), &event); err != nil {
		t.Fatalf("parse line: %v", err)
	}
	event.Result = ResultDenied
	tampered, _ := json.Marshal(event)
	lines[1] = string(tampered)
	if err := os.WriteFile(logFile, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("rewrite log: %v", err)
	}

	result, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Valid {
		t.Error("Verify() should detect a tampered record")
	}
}

// TestVerifyDetectsDeletion tests that removing a record breaks
// sequence continuity.
func TestVerifyDetectsDeletion(t *testing.T) {
	l := newTestLogger(t)

	for i := 0; i < 3; i++ {
		if err := l.LogSuccess(OpVaultUnlock, SourceCLI); err != nil {
			t.Fatalf("LogSuccess() error = %v", err)
		}
	}

	logFile := filepath.Join(l.Path(), time.Now().UTC().Format("2006-01")+".jsonl")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Drop the middle record.
	kept := []string{lines[0], lines[2]}
	if err := os.WriteFile(logFile, []byte(strings.Join(kept, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("rewrite log: %v", err)
	}

	result, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Valid {
		t.Error("Verify() should detect a deleted record")
	}
}

// TestChainSurvivesRestart tests that a new logger continues the chain
// instead of restarting from genesis.
func TestChainSurvivesRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	key := make([]byte, 32)
	copy(key, "restart-key")

	l1 := NewLogger(dir)
	if err := l1.SetHMACKey(key); err != nil {
		t.Fatalf("SetHMACKey() error = %v", err)
	}
	if err := l1.LogSuccess(OpVaultSetup, SourceCLI); err != nil {
		t.Fatalf("LogSuccess() error = %v", err)
	}

	l2 := NewLogger(dir)
	if err := l2.SetHMACKey(key); err != nil {
		t.Fatalf("SetHMACKey() error = %v", err)
	}
	if err := l2.LogSuccess(OpVaultUnlock, SourceCLI); err != nil {
		t.Fatalf("LogSuccess() error = %v", err)
	}

	result, err := l2.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("chain should remain valid across restarts, errors: %v", result.Errors)
	}
	if result.RecordsTotal != 2 {
		t.Errorf("RecordsTotal = %d, want 2", result.RecordsTotal)
	}
}

// TestListEvents tests the limit behavior.
func TestListEvents(t *testing.T) {
	l := newTestLogger(t)
	for i := 0; i < 5; i++ {
		if err := l.LogSuccess(OpDataWrite, SourceCLI); err != nil {
			t.Fatalf("LogSuccess() error = %v", err)
		}
	}

	all, err := l.ListEvents(0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListEvents(0) = %d events, want 5", len(all))
	}

	last2, err := l.ListEvents(2)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(last2) != 2 {
		t.Errorf("ListEvents(2) = %d events, want 2", len(last2))
	}
	if last2[1].Chain.Sequence != 5 {
		t.Errorf("last event sequence = %d, want 5", last2[1].Chain.Sequence)
	}
}
