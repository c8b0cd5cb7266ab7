package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/upsert"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Ingest a CSV catalog feed",
	Long: `Ingest reads a CSV file whose first row is the header, maps each row
through the organization's mapping rules, and upserts the results.

The batch summary is printed as JSON on stdout. Rows that fail to map are
counted as errors and do not stop the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if orgID == "" {
			return errors.NewValidationError("org", orgID, "--org is required")
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck // read-only file

		b, cleanup, err := buildBeam()
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := b.IngestCSV(cmd.Context(), orgID, f)
		if err != nil {
			return err
		}
		return printSummary(summary)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// printSummary writes the batch summary as indented JSON on stdout.
func printSummary(summary *upsert.BatchSummary) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
