package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koasset/koasset/internal/cli"
	"github.com/koasset/koasset/pkg/estate"
	"github.com/koasset/koasset/pkg/model"
)

var (
	assetAddCategory    string
	assetAddValue       string
	assetAddInstitution string
	assetAddAccount     string
	assetAddBeneficiary string
	assetAddNotes       string

	assetListCategory string

	assetValueNote string
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage assets",
}

var assetAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		cents, err := parseAmount(assetAddValue)
		if err != nil {
			return err
		}

		a := model.Asset{
			Name:          args[0],
			Category:      model.Category(assetAddCategory),
			Value:         cents,
			Institution:   assetAddInstitution,
			AccountNumber: assetAddAccount,
			Notes:         assetAddNotes,
		}
		if assetAddBeneficiary != "" {
			ben, err := findBeneficiaryByName(assetAddBeneficiary)
			if err != nil {
				return err
			}
			a.PrimaryBeneficiaryID = ben.ID
		}

		created, err := est.CreateAsset(a)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s) worth %s\n", created.Name, created.Category, formatMoney(created.Value))
		return nil
	},
}

var assetListCmd = &cobra.Command{
	Use:   "list [pattern]",
	Short: "List assets, optionally filtered by a name glob",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		var (
			assets []model.Asset
			err    error
		)
		if assetListCategory != "" {
			c := model.Category(assetListCategory)
			if !model.ValidCategory(c) {
				return fmt.Errorf("unknown category %q", assetListCategory)
			}
			assets, err = est.AssetsByCategory(c)
		} else {
			assets, err = est.ListAssets()
		}
		if err != nil {
			return err
		}

		if len(args) == 1 {
			names := make([]string, len(assets))
			for i, a := range assets {
				names[i] = a.Name
			}
			matched, err := cli.MatchNames(args[0], names)
			if err != nil {
				return err
			}
			keep := make(map[string]bool, len(matched))
			for _, n := range matched {
				keep[n] = true
			}
			filtered := assets[:0]
			for _, a := range assets {
				if keep[a.Name] {
					filtered = append(filtered, a)
				}
			}
			assets = filtered
		}

		if len(assets) == 0 {
			fmt.Println("No assets.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCATEGORY\tVALUE\tINSTITUTION")
		var total int64
		for _, a := range assets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, a.Category, formatMoney(a.Value), a.Institution)
			total += a.Value
		}
		fmt.Fprintf(w, "\tTOTAL\t%s\t\n", formatMoney(total))
		return w.Flush()
	},
}

var assetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one asset in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		a, err := findAssetByName(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Name:         %s\n", a.Name)
		fmt.Printf("Category:     %s\n", a.Category)
		fmt.Printf("Value:        %s\n", formatMoney(a.Value))
		if a.Institution != "" {
			fmt.Printf("Institution:  %s\n", a.Institution)
		}
		if a.AccountNumber != "" {
			fmt.Printf("Account:      %s\n", a.MaskedAccountNumber())
		}
		if a.PhoneNumber != "" {
			fmt.Printf("Phone:        %s\n", a.PhoneNumber)
		}
		if a.URL != "" {
			fmt.Printf("URL:          %s\n", a.URL)
		}
		if a.PrimaryBeneficiaryID != "" {
			if ben, err := est.FindBeneficiary(a.PrimaryBeneficiaryID); err == nil {
				fmt.Printf("Beneficiary:  %s (%s)\n", ben.Name, ben.Relationship)
			}
		}
		if a.Notes != "" {
			fmt.Printf("Notes:        %s\n", a.Notes)
		}
		fmt.Printf("Updated:      %s\n", a.UpdatedAt.Local().Format("2006-01-02 15:04"))
		if a.LastReviewed != nil {
			fmt.Printf("Reviewed:     %s\n", a.LastReviewed.Local().Format("2006-01-02"))
		}
		return nil
	},
}

var assetSetValueCmd = &cobra.Command{
	Use:   "set-value <name> <amount>",
	Short: "Update an asset's value and record it in the history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		a, err := findAssetByName(args[0])
		if err != nil {
			return err
		}
		cents, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		if err := est.SetAssetValue(a.ID, cents, assetValueNote); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", a.Name, formatMoney(cents))
		return nil
	},
}

var assetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an asset and its value history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		a, err := findAssetByName(args[0])
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Delete %q and its history?", a.Name)) {
			return fmt.Errorf("aborted")
		}
		if err := est.DeleteAsset(a.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", a.Name)
		return nil
	},
}

var assetReviewCmd = &cobra.Command{
	Use:   "review [name]",
	Short: "List assets due for review, or mark one reviewed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		if len(args) == 1 {
			a, err := findAssetByName(args[0])
			if err != nil {
				return err
			}
			if err := est.MarkReviewed(a.ID); err != nil {
				return err
			}
			fmt.Printf("Marked %s as reviewed\n", a.Name)
			return nil
		}

		due, err := est.AssetsNeedingReview(cfg.ReviewDays)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Printf("All assets reviewed within the last %d days.\n", cfg.ReviewDays)
			return nil
		}
		fmt.Printf("Assets not reviewed in %d days:\n", cfg.ReviewDays)
		for _, a := range due {
			fmt.Printf("  %s (%s)\n", a.Name, a.Category)
		}
		return nil
	},
}

// findAssetByName resolves a unique asset by exact, case-insensitive
// name.
func findAssetByName(name string) (model.Asset, error) {
	assets, err := est.ListAssets()
	if err != nil {
		return model.Asset{}, err
	}
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	matched, err := cli.MatchNames(name, names)
	if err != nil {
		return model.Asset{}, err
	}
	if len(matched) > 1 {
		return model.Asset{}, fmt.Errorf("%q matches %d assets, be more specific", name, len(matched))
	}
	for _, a := range assets {
		if a.Name == matched[0] {
			return a, nil
		}
	}
	return model.Asset{}, estate.ErrAssetNotFound
}

func findBeneficiaryByName(name string) (model.Beneficiary, error) {
	bens, err := est.ListBeneficiaries()
	if err != nil {
		return model.Beneficiary{}, err
	}
	names := make([]string, len(bens))
	for i, b := range bens {
		names[i] = b.Name
	}
	matched, err := cli.MatchNames(name, names)
	if err != nil {
		return model.Beneficiary{}, err
	}
	if len(matched) > 1 {
		return model.Beneficiary{}, fmt.Errorf("%q matches %d beneficiaries, be more specific", name, len(matched))
	}
	for _, b := range bens {
		if b.Name == matched[0] {
			return b, nil
		}
	}
	return model.Beneficiary{}, estate.ErrBeneficiaryNotFound
}

func init() {
	assetAddCmd.Flags().StringVar(&assetAddCategory, "category", string(model.CategoryOther), "asset category")
	assetAddCmd.Flags().StringVar(&assetAddValue, "value", "0", "current value, e.g. 1234.56")
	assetAddCmd.Flags().StringVar(&assetAddInstitution, "institution", "", "bank or provider name")
	assetAddCmd.Flags().StringVar(&assetAddAccount, "account", "", "account or policy number")
	assetAddCmd.Flags().StringVar(&assetAddBeneficiary, "beneficiary", "", "primary beneficiary name")
	assetAddCmd.Flags().StringVar(&assetAddNotes, "notes", "", "free-form notes")

	assetListCmd.Flags().StringVar(&assetListCategory, "category", "", "filter by category")

	assetSetValueCmd.Flags().StringVar(&assetValueNote, "note", "", "note on the history entry")

	assetCmd.AddCommand(assetAddCmd, assetListCmd, assetShowCmd, assetSetValueCmd, assetDeleteCmd, assetReviewCmd)
	rootCmd.AddCommand(assetCmd)
}
