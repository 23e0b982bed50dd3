package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/loamdb/loam/cmd/loam/output"
)

// tablesCmd lists the discovered tables
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the discovered tables",
	Long: `Connect, discover the schema, and list every table found.

Examples:
  loam tables --driver sqlite --dsn blog.db
  loam tables --config loam.yaml --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTables()
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables() error {
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	names := db.Tables()
	if len(names) == 0 {
		output.Warning("No tables found in database")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	output.Section("Tables")
	for _, name := range names {
		output.Muted("  %s", name)
	}
	output.Success("%d tables", len(names))
	return nil
}
