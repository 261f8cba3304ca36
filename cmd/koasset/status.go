package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault state and lockout status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := session.IsSetup()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Vault: not initialized (run 'koasset init')")
			return nil
		}

		fmt.Printf("Vault: %s\n", cfg.VaultDir)

		status, err := session.LockoutStatus()
		if err != nil {
			return err
		}
		if status.IsLocked {
			days := int(status.Remaining.Hours()) / 24
			hours := int(status.Remaining.Hours()) % 24
			fmt.Printf("Status: LOCKED for %dd %dh\n", days, hours)
			fmt.Println("Your data remains encrypted and is not deleted.")
			return nil
		}

		n, err := session.FailedAttempts()
		if err != nil {
			return err
		}
		fmt.Println("Status: ready")
		if n > 0 {
			fmt.Printf("Failed attempts: %d of 3\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
