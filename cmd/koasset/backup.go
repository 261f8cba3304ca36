package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/backup"
)

var (
	exportPlain  bool
	exportOutput string
	importPlain  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a backup (encrypted by default)",
	Long: `Export the vault. The default encrypted backup is the container
as stored on disk and is safe to keep anywhere; --plain writes the
decrypted records as JSON and should be handled accordingly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()

		var (
			data []byte
			err  error
			path string
		)
		if exportPlain {
			if err := ensureUnlocked(); err != nil {
				return err
			}
			data, err = backup.ExportPlain(session)
			path = backup.PlainFilename(now)
		} else {
			data, err = backup.ExportEncrypted(st)
			path = backup.EncryptedFilename(now)
		}
		if err != nil {
			return err
		}
		if exportOutput != "" {
			path = exportOutput
		}

		if err := writeSecureFile(path, data); err != nil {
			return err
		}
		_ = auditLog.LogSuccess(audit.OpBackupExport, audit.SourceCLI)

		if exportPlain {
			fmt.Printf("Plaintext backup written to %s — it is NOT encrypted\n", path)
		} else {
			fmt.Printf("Encrypted backup written to %s\n", path)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a backup, replacing current data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		if importPlain {
			if err := ensureUnlocked(); err != nil {
				return err
			}
			if !confirm("Replace ALL current records with the backup's?") {
				return fmt.Errorf("aborted")
			}
			if err := backup.ImportPlain(session, data); err != nil {
				return err
			}
			_ = auditLog.LogSuccess(audit.OpBackupImport, audit.SourceCLI)
			fmt.Println("Records restored from plaintext backup.")
			return nil
		}

		fmt.Println("Importing an encrypted backup replaces the entire vault,")
		fmt.Println("including the PIN it opens with.")
		if !confirm("Continue?") {
			return fmt.Errorf("aborted")
		}
		pin, err := readPIN("PIN of the backup: ")
		if err != nil {
			return err
		}

		if err := backup.ImportEncrypted(st, data, pin); err != nil {
			if errors.Is(err, backup.ErrWrongPIN) {
				return fmt.Errorf("that PIN does not open this backup; nothing was changed")
			}
			return err
		}
		session.Logout()
		_ = auditLog.LogSuccess(audit.OpBackupImport, audit.SourceCLI)
		fmt.Println("Vault restored. Log in with the backup's PIN.")
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportPlain, "plain", false, "export decrypted records as JSON")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: koasset-backup-<date>)")
	importCmd.Flags().BoolVar(&importPlain, "plain", false, "import a plaintext JSON backup")

	rootCmd.AddCommand(exportCmd, importCmd)
}
