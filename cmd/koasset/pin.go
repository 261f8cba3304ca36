package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koasset/koasset/pkg/security"
	"github.com/koasset/koasset/pkg/vault"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "PIN management",
}

var pinChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the vault PIN (re-encrypts all data)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		oldPIN, err := readPIN("Current PIN: ")
		if err != nil {
			return err
		}
		newPIN, err := readPIN("New PIN: ")
		if err != nil {
			return err
		}
		if err := security.ValidatePIN(newPIN); err != nil {
			return err
		}
		if weak, reason := security.IsWeakPIN(newPIN); weak {
			fmt.Printf("warning: weak PIN (%s)\n", reason)
			if !confirm("Use it anyway?") {
				return fmt.Errorf("aborted")
			}
		}
		newPIN2, err := readPIN("Confirm new PIN: ")
		if err != nil {
			return err
		}
		if newPIN != newPIN2 {
			return fmt.Errorf("PINs do not match")
		}

		if err := session.ChangePIN(oldPIN, newPIN); err != nil {
			if errors.Is(err, vault.ErrInvalidPIN) {
				return fmt.Errorf("incorrect current PIN")
			}
			return err
		}
		fmt.Println("PIN changed. All data re-encrypted under the new PIN.")
		return nil
	},
}

func init() {
	pinCmd.AddCommand(pinChangeCmd)
	rootCmd.AddCommand(pinCmd)
}
