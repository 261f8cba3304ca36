package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy the vault and all encrypted data",
	Long: `Delete the encrypted container and lockout state. This is the only
way past a forgotten PIN, and it is unrecoverable: without the PIN the
data cannot be decrypted by anyone, including you.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := session.IsSetup()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Nothing to reset.")
			return nil
		}

		fmt.Println("This permanently destroys all data in the vault.")
		if !confirm("Type y to confirm") {
			return fmt.Errorf("aborted")
		}
		if !confirm("Really destroy the vault?") {
			return fmt.Errorf("aborted")
		}

		if err := session.Reset(); err != nil {
			return err
		}
		fmt.Println("Vault destroyed. Run 'koasset init' to start over.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
