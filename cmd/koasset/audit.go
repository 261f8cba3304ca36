package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := auditLog.ListEvents(auditLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No audit events.")
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-22s %s", e.Timestamp, e.Operation, e.Result)
			if e.Error != nil {
				line += "  (" + e.Error.Message + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log's tamper-detection chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The chain HMAC key derives from the session key.
		if err := ensureUnlocked(); err != nil {
			return err
		}

		result, err := auditLog.Verify()
		if err != nil {
			return err
		}
		if result.Valid {
			fmt.Printf("Audit chain valid: %d record(s)\n", result.RecordsTotal)
			return nil
		}
		fmt.Printf("Audit chain INVALID (%d record(s) checked):\n", result.RecordsTotal)
		for _, e := range result.Errors {
			fmt.Println("  " + e)
		}
		return fmt.Errorf("audit log verification failed")
	},
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum events to show (0 = all)")
	auditCmd.AddCommand(auditListCmd, auditVerifyCmd)
	rootCmd.AddCommand(auditCmd)
}
