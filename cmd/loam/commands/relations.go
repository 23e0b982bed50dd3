package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loamdb/loam/cmd/loam/output"
	"github.com/loamdb/loam/pkg/record"
	"github.com/loamdb/loam/pkg/runtime"
)

// relationInfo is the JSON shape of one inferred relation.
type relationInfo struct {
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	JoinField string `json:"join_field,omitempty"`
	JoinTable string `json:"join_table,omitempty"`
}

// relationsCmd shows the relations inferred for a table
var relationsCmd = &cobra.Command{
	Use:   "relations <table>",
	Short: "Show the relations inferred for a table",
	Long: `Resolve the relation from one table to every other discovered table
and print what the naming convention infers.

Examples:
  loam relations post --driver sqlite --dsn blog.db
  loam relations post --config loam.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelations(args[0])
	},
}

func init() {
	rootCmd.AddCommand(relationsCmd)
}

func runRelations(name string) error {
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := db.Table(name)
	if err != nil {
		return err
	}

	var infos []relationInfo
	for _, other := range db.Tables() {
		if other == name {
			continue
		}
		target, err := db.Table(other)
		if err != nil {
			return err
		}
		rel, err := db.Resolver().Resolve(source.Meta(), target.Meta())
		if errors.Is(err, runtime.ErrNotRelated) {
			continue
		}
		if err != nil {
			return err
		}
		info := relationInfo{Target: other, Kind: rel.Kind.String()}
		switch rel.Kind {
		case record.HasOne, record.HasMany:
			info.JoinField = rel.JoinField.Name
		case record.ManyToMany:
			info.JoinTable = rel.JoinTable.Name
		}
		infos = append(infos, info)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		output.Warning("No relations inferred for %q", name)
		return nil
	}

	output.Section(fmt.Sprintf("Relations of %s", name))
	for _, info := range infos {
		via := info.JoinField
		if info.JoinTable != "" {
			via = "via " + info.JoinTable
		}
		fmt.Printf("  %s %-14s %-20s %s\n", output.RelationIcon(info.Kind), info.Kind, info.Target, via)
	}
	return nil
}
