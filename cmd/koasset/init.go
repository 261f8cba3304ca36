package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koasset/koasset/pkg/security"
	"github.com/koasset/koasset/pkg/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault with a 4-digit PIN",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := session.IsSetup()
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("vault already initialized at %s", cfg.VaultDir)
		}

		fmt.Println("Choose a 4-digit PIN. Three wrong attempts lock the vault for 30 days.")
		pin, err := readPIN("New PIN: ")
		if err != nil {
			return err
		}
		if err := security.ValidatePIN(pin); err != nil {
			return err
		}
		if weak, reason := security.IsWeakPIN(pin); weak {
			fmt.Printf("warning: weak PIN (%s)\n", reason)
			if !confirm("Use it anyway?") {
				return fmt.Errorf("aborted")
			}
		}

		pin2, err := readPIN("Confirm PIN: ")
		if err != nil {
			return err
		}
		if pin != pin2 {
			return fmt.Errorf("PINs do not match")
		}

		if err := session.Setup(pin); err != nil {
			if errors.Is(err, vault.ErrAlreadyInitialized) {
				return fmt.Errorf("vault already initialized at %s", cfg.VaultDir)
			}
			return err
		}

		fmt.Printf("Vault created at %s\n", cfg.VaultDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
