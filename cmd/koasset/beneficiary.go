package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koasset/koasset/pkg/model"
)

var (
	benAddRelationship string
	benAddEmail        string
	benAddPhone        string
	benAddGuardian     string
	benAddMinor        bool
)

var beneficiaryCmd = &cobra.Command{
	Use:     "beneficiary",
	Aliases: []string{"ben"},
	Short:   "Manage beneficiaries",
}

var beneficiaryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a beneficiary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		b := model.Beneficiary{
			Name:         args[0],
			Relationship: model.Relationship(benAddRelationship),
			Email:        benAddEmail,
			PhoneNumber:  benAddPhone,
			IsMinor:      benAddMinor,
			GuardianName: benAddGuardian,
		}
		created, err := est.CreateBeneficiary(b)
		if err != nil {
			return err
		}
		fmt.Printf("Added beneficiary %s (%s)\n", created.Name, created.Relationship)
		return nil
	},
}

var beneficiaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List beneficiaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		bens, err := est.ListBeneficiaries()
		if err != nil {
			return err
		}
		if len(bens) == 0 {
			fmt.Println("No beneficiaries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tRELATIONSHIP\tASSETS\tNOTES")
		for _, b := range bens {
			linked, err := est.AssetsByBeneficiary(b.ID)
			if err != nil {
				return err
			}
			note := ""
			if b.IsMinor {
				note = "minor"
				if b.GuardianName != "" {
					note = "minor, guardian: " + b.GuardianName
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.Name, b.Relationship, len(linked), note)
		}
		return w.Flush()
	},
}

var beneficiaryDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a beneficiary (must not be referenced by assets)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		b, err := findBeneficiaryByName(args[0])
		if err != nil {
			return err
		}
		if err := est.DeleteBeneficiary(b.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", b.Name)
		return nil
	},
}

func init() {
	beneficiaryAddCmd.Flags().StringVar(&benAddRelationship, "relationship", string(model.RelationshipOther), "relationship to you")
	beneficiaryAddCmd.Flags().StringVar(&benAddEmail, "email", "", "email address")
	beneficiaryAddCmd.Flags().StringVar(&benAddPhone, "phone", "", "phone number")
	beneficiaryAddCmd.Flags().BoolVar(&benAddMinor, "minor", false, "beneficiary is a minor")
	beneficiaryAddCmd.Flags().StringVar(&benAddGuardian, "guardian", "", "guardian name for a minor")

	beneficiaryCmd.AddCommand(beneficiaryAddCmd, beneficiaryListCmd, beneficiaryDeleteCmd)
	rootCmd.AddCommand(beneficiaryCmd)
}
