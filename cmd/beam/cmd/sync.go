package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noodle630/beam/pkg/errors"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the full Shopify catalog",
	Long: `Sync fetches every product from the configured Shopify shop, page by
page, and upserts each one. Products that have not changed since the last
sync are detected by content hash and skipped.

Requires shopify.shop and shopify.access_token in the config file or the
BEAM_SHOPIFY_SHOP and BEAM_SHOPIFY_ACCESS_TOKEN environment variables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if orgID == "" {
			return errors.NewValidationError("org", orgID, "--org is required")
		}

		b, cleanup, err := buildBeam()
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := b.SyncShopify(cmd.Context(), orgID)
		if summary != nil {
			// The partial summary is still worth reporting when a page
			// fetch fails mid-sync.
			if printErr := printSummary(summary); printErr != nil && err == nil {
				err = printErr
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
