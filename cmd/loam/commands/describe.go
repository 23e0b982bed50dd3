package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loamdb/loam/cmd/loam/output"
	"github.com/loamdb/loam/pkg/schema"
)

// describeCmd prints one table's fields
var describeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Show a table's fields",
	Long: `Show the fields of one discovered table, with their parsed kind,
nullability and default.

Examples:
  loam describe post --driver sqlite --dsn blog.db
  loam describe post --config loam.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDescribe(args[0])
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(name string) error {
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tbl, err := db.Table(name)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tbl.Meta())
	}

	output.Section(fmt.Sprintf("Table: %s", tbl.Name()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tKIND\tNULLABLE\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t--------\t-------")
	for _, f := range tbl.Meta().Fields {
		nullable := "NO"
		if f.Nullable {
			nullable = "YES"
		}
		def := ""
		if f.Default != nil {
			def = fmt.Sprint(f.Default)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Type, f.Kind, nullable, def)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if id := tbl.Meta().Identity(); id == nil {
		output.Warning("table has no %q field, rows cannot be saved back", schema.IdentityField)
	}
	return nil
}
