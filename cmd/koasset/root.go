package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/koasset/koasset/internal/config"
	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/estate"
	"github.com/koasset/koasset/pkg/store"
	"github.com/koasset/koasset/pkg/vault"
)

var (
	cfg      *config.Config
	st       *store.Store
	session  *vault.Session
	est      *estate.Service
	auditLog *audit.Logger
)

var rootCmd = &cobra.Command{
	Use:   "koasset",
	Short: "koasset is a PIN-protected local estate and asset tracker",
	Long: `Track assets, beneficiaries, and value history in a single
AES-256-GCM encrypted vault on this machine, unlocked by a 4-digit PIN.`,
	SilenceUsage: true,
	// PersistentPreRunE wires the vault stack before any subcommand.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}

		st, err = store.New(cfg.VaultDir)
		if err != nil {
			return err
		}
		auditLog = audit.NewLogger(filepath.Join(cfg.VaultDir, "audit"))
		session = vault.NewSession(st, auditLog)
		est = estate.NewService(session)
		return nil
	},
}

func closeStore() {
	if session != nil {
		session.Logout()
	}
	if st != nil {
		st.Close()
	}
}

// readPIN prompts for a PIN without echoing it.
func readPIN(prompt string) (string, error) {
	fmt.Print(prompt)
	pinBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	return string(pinBytes), nil
}

// ensureUnlocked prompts for the PIN and logs in, translating vault
// errors into user-facing messages. Lockout prints the remaining time
// and the data-is-safe notice; a wrong PIN says only "incorrect PIN".
func ensureUnlocked() error {
	if session.IsAuthenticated() {
		return nil
	}

	ok, err := session.IsSetup()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("vault not initialized: run 'koasset init' first")
	}

	status, err := session.LockoutStatus()
	if err != nil {
		return err
	}
	if status.IsLocked {
		return lockoutMessage(status.Remaining)
	}

	pin, err := readPIN("Enter PIN: ")
	if err != nil {
		return err
	}
	if err := session.Login(pin); err != nil {
		switch {
		case errors.Is(err, vault.ErrInvalidPIN):
			n, _ := session.FailedAttempts()
			return fmt.Errorf("incorrect PIN (%d failed attempt(s))", n)
		case errors.Is(err, vault.ErrLockedOut):
			status, _ := session.LockoutStatus()
			return lockoutMessage(status.Remaining)
		default:
			return err
		}
	}

	report, err := session.QuarantineReport()
	if err == nil && report.Total() > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d record(s) failed validation and were skipped\n", report.Total())
	}
	return nil
}

func lockoutMessage(remaining time.Duration) error {
	days := int(remaining.Hours()) / 24
	hours := int(remaining.Hours()) % 24
	return fmt.Errorf("vault is locked for %dd %dh after too many failed attempts\nyour data remains encrypted and is not deleted", days, hours)
}

// formatMoney renders a cent amount in the configured currency.
func formatMoney(cents int64) string {
	return money.New(cents, cfg.Currency).Display()
}

// parseAmount converts a decimal amount like "1234.56" to cents
// without going through floating point.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("amount cannot be negative")
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	centsPart, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return dollars*100 + centsPart, nil
}

// writeSecureFile writes data with owner-only permissions, refusing to
// overwrite an existing file.
func writeSecureFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("file already exists: %s", path)
		}
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
