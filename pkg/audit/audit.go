// Package audit provides append-only audit logging of vault operations
// with an HMAC chain for tamper detection.
//
// Events are JSONL records in monthly files under the audit directory.
// Each record carries a sequence number, the previous record's HMAC,
// and its own HMAC under a key derived from the session key; breaking,
// reordering, or editing any record invalidates the chain from that
// point on. Logging is best-effort: callers never fail a vault
// operation because the audit write failed.
package audit

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// Operation types.
const (
	OpVaultSetup        = "vault.setup"
	OpVaultUnlock       = "vault.unlock"
	OpVaultUnlockFailed = "vault.unlock_failed"
	OpVaultLock         = "vault.lock"
	OpVaultPINChange    = "vault.pin_change"
	OpVaultReset        = "vault.reset"

	OpDataWrite = "data.write"

	OpBackupExport = "backup.export"
	OpBackupImport = "backup.import"

	OpMCPAssetList       = "mcp.asset_list"
	OpMCPEstateSummary   = "mcp.estate_summary"
	OpMCPBeneficiaryList = "mcp.beneficiary_list"
	OpMCPDenied          = "mcp.denied"
)

// Source identifies where the operation originated.
const (
	SourceCLI = "cli"
	SourceMCP = "mcp"
)

// Result indicates the outcome of an operation.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
)

const genesisHash = "genesis"

// Event is a single audit record.
type Event struct {
	Version   int    `json:"v"`
	ID        string `json:"id"`
	Timestamp string `json:"ts"`

	Operation string `json:"op"`
	Source    string `json:"source"`
	SessionID string `json:"session_id"`

	Result string     `json:"result"`
	Error  *ErrorInfo `json:"error,omitempty"`

	Context map[string]any `json:"ctx,omitempty"`

	Chain Chain `json:"chain"`
}

// ErrorInfo carries error details for failed operations.
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Chain links a record to its predecessor.
type Chain struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
	HMAC     string `json:"hmac"`
}

// Logger writes HMAC-chained audit events.
type Logger struct {
	path       string
	hmacKey    []byte
	mu         sync.Mutex
	sequence   int64
	prevHash   string
	sessionID  string
	hmacKeySet bool
}

// NewLogger creates an audit logger writing to the given directory.
// Events cannot be written until SetHMACKey is called with a live
// session key.
func NewLogger(path string) *Logger {
	return &Logger{
		path:      path,
		prevHash:  genesisHash,
		sessionID: newSessionID(),
	}
}

// SetHMACKey derives the audit HMAC key from the session key via
// HKDF-SHA256 and loads the persisted chain state. The session key
// itself is never used directly for logging.
func (l *Logger) SetHMACKey(sessionKey []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := hkdf.New(sha256.New, sessionKey, nil, []byte("koasset-audit-v1"))
	l.hmacKey = make([]byte, 32)
	if _, err := r.Read(l.hmacKey); err != nil {
		return fmt.Errorf("audit: failed to derive HMAC key: %w", err)
	}
	l.hmacKeySet = true

	if err := l.loadChainState(); err != nil {
		// First run or missing meta file: start a fresh chain.
		l.sequence = 0
		l.prevHash = genesisHash
	}
	return nil
}

// Log records one audit event.
func (l *Logger) Log(op, source, result string, errInfo *ErrorInfo, ctx map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hmacKeySet {
		return fmt.Errorf("audit: HMAC key not set")
	}
	if err := os.MkdirAll(l.path, 0700); err != nil {
		return fmt.Errorf("audit: failed to create directory: %w", err)
	}

	event := Event{
		Version:   1,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Operation: op,
		Source:    source,
		SessionID: l.sessionID,
		Result:    result,
		Error:     errInfo,
		Context:   ctx,
	}

	l.sequence++
	event.Chain.Sequence = l.sequence
	event.Chain.PrevHash = l.prevHash
	event.Chain.HMAC = l.recordHMAC(&event)
	l.prevHash = event.Chain.HMAC

	if err := l.writeEvent(&event); err != nil {
		return err
	}
	return l.saveChainState()
}

// LogSuccess records a successful operation.
func (l *Logger) LogSuccess(op, source string) error {
	return l.Log(op, source, ResultSuccess, nil, nil)
}

// LogError records a failed operation.
func (l *Logger) LogError(op, source, errCode, errMsg string) error {
	return l.Log(op, source, ResultError, &ErrorInfo{Code: errCode, Message: errMsg}, nil)
}

// LogDenied records a policy-denied operation.
func (l *Logger) LogDenied(op, source, reason string) error {
	return l.Log(op, source, ResultDenied, nil, map[string]any{"reason": reason})
}

// recordHMAC computes the HMAC over every significant field of the
// event, with context keys sorted for determinism.
func (l *Logger) recordHMAC(event *Event) string {
	errorData := ""
	if event.Error != nil {
		errorData = fmt.Sprintf("%s|%s", event.Error.Code, event.Error.Message)
	}

	contextData := ""
	if event.Context != nil {
		keys := make([]string, 0, len(event.Context))
		for k := range event.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			contextData += fmt.Sprintf("%s=%v|", k, event.Context[k])
		}
	}

	data := fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s|%s|%s|%d|%s",
		event.Version,
		event.ID,
		event.Timestamp,
		event.Operation,
		event.Source,
		event.SessionID,
		event.Result,
		errorData,
		contextData,
		event.Chain.Sequence,
		event.Chain.PrevHash,
	)

	mac := hmac.New(sha256.New, l.hmacKey)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// writeEvent appends the event to the current month's log file.
func (l *Logger) writeEvent(event *Event) error {
	filename := time.Now().UTC().Format("2006-01") + ".jsonl"
	logPath := filepath.Join(l.path, filename)

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("audit: failed to open log file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal event: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: failed to write event: %w", err)
	}
	return nil
}

type chainState struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
}

func (l *Logger) loadChainState() error {
	data, err := os.ReadFile(filepath.Join(l.path, "audit.meta"))
	if err != nil {
		return err
	}
	var state chainState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	l.sequence = state.Sequence
	l.prevHash = state.PrevHash
	return nil
}

func (l *Logger) saveChainState() error {
	data, err := json.Marshal(chainState{Sequence: l.sequence, PrevHash: l.prevHash})
	if err != nil {
		return fmt.Errorf("audit: failed to marshal chain state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.path, "audit.meta"), data, 0600); err != nil {
		return fmt.Errorf("audit: failed to save chain state: %w", err)
	}
	return nil
}

// VerifyResult reports the outcome of chain verification.
type VerifyResult struct {
	Valid        bool     `json:"valid"`
	RecordsTotal int      `json:"records_total"`
	Errors       []string `json:"errors,omitempty"`
}

// Verify walks every log file in chronological order and checks
// sequence continuity, prev-hash linkage, and each record's HMAC.
func (l *Logger) Verify() (*VerifyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hmacKeySet {
		return nil, fmt.Errorf("audit: HMAC key not set")
	}

	files, err := filepath.Glob(filepath.Join(l.path, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("audit: failed to list log files: %w", err)
	}
	// YYYY-MM.jsonl names sort chronologically.
	sort.Strings(files)

	result := &VerifyResult{Valid: true}
	expectedPrev := genesisHash
	var expectedSeq int64 = 1

	for _, file := range files {
		events, err := readLogFile(file)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to read %s: %w", file, err)
		}

		for i := range events {
			event := &events[i]
			result.RecordsTotal++

			if event.Chain.Sequence != expectedSeq {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf(
					"sequence gap at record %s: expected %d, got %d",
					event.ID, expectedSeq, event.Chain.Sequence))
			}
			if event.Chain.PrevHash != expectedPrev {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf(
					"chain broken at record %s", event.ID))
			}
			if event.Chain.HMAC != l.recordHMAC(event) {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf(
					"HMAC mismatch at record %s: possible tampering", event.ID))
			}

			expectedPrev = event.Chain.HMAC
			expectedSeq++
		}
	}
	return result, nil
}

// ListEvents returns the most recent events, newest last. limit 0
// means all.
func (l *Logger) ListEvents(limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(l.path, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("audit: failed to list log files: %w", err)
	}
	sort.Strings(files)

	var all []Event
	for _, file := range files {
		events, err := readLogFile(file)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to read %s: %w", file, err)
		}
		all = append(all, events...)
	}

	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// Path returns the audit log directory.
func (l *Logger) Path() string {
	return l.path
}

func readLogFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []Event
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			if i > start {
				var event Event
				if err := json.Unmarshal(data[start:i], &event); err != nil {
					return nil, fmt.Errorf("failed to parse line: %w", err)
				}
				events = append(events, event)
			}
			start = i + 1
		}
	}
	return events, nil
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
