package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge duplicate catalog records",
	Long: `Reconcile sweeps the record store for groups of external-catalog
records that share a merchant product ID, merges each group into its most
recently updated member, and deletes the rest.

Without --org the sweep covers every organization.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, cleanup, err := buildBeam()
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := b.Reconcile(cmd.Context(), orgID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
