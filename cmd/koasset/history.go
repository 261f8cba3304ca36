package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koasset/koasset/pkg/model"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [asset-name]",
	Short: "Show value history, for one asset or across the estate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}

		var (
			records []model.HistoryRecord
			err     error
		)
		if len(args) == 1 {
			a, findErr := findAssetByName(args[0])
			if findErr != nil {
				return findErr
			}
			records, err = est.HistoryForAsset(a.ID)
		} else {
			records, err = est.AllHistory()
		}
		if err != nil {
			return err
		}

		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}
		if len(records) == 0 {
			fmt.Println("No history.")
			return nil
		}

		// Asset names for display; deleted assets cannot appear since
		// history cascades with the asset.
		assets, err := est.ListAssets()
		if err != nil {
			return err
		}
		nameByID := make(map[string]string, len(assets))
		for _, a := range assets {
			nameByID[a.ID] = a.Name
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tASSET\tVALUE\tNOTE")
		for _, h := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				h.Timestamp.Local().Format("2006-01-02"),
				nameByID[h.AssetID],
				formatMoney(h.Value),
				h.Note)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
