package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loamdb/loam/cmd/loam/output"
	"github.com/loamdb/loam/pkg/record"
)

var (
	// Fetch flags
	fetchWhere   []string
	fetchOrderBy string
	fetchDesc    bool
	fetchLimit   int
	fetchOffset  int
	fetchRelated string
)

// fetchCmd fetches rows from a table
var fetchCmd = &cobra.Command{
	Use:   "fetch <table> [args...]",
	Short: "Fetch rows from a table",
	Long: `Fetch rows from a table, with optional conditions. Positional
arguments after the table bind to the ? placeholders of --where fragments
in order.

Examples:
  loam fetch post --driver sqlite --dsn blog.db
  loam fetch post --where "category_id = ?" 3 --limit 10
  loam fetch post --where "id = ?" 1 --related comments`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringArrayVarP(&fetchWhere, "where", "w", nil, "Condition fragment, repeatable, AND-ed together")
	fetchCmd.Flags().StringVar(&fetchOrderBy, "order-by", "", "Field to order by")
	fetchCmd.Flags().BoolVar(&fetchDesc, "desc", false, "Order descending")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "Maximum rows to fetch")
	fetchCmd.Flags().IntVar(&fetchOffset, "offset", 0, "Rows to skip")
	fetchCmd.Flags().StringVar(&fetchRelated, "related", "", "Also fetch this relation of every row")
}

func runFetch(name string, args []string) error {
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

	q := tbl.Select()
	bound := 0
	for _, fragment := range fetchWhere {
		n := placeholderCount(fragment)
		if bound+n > len(args) {
			return fmt.Errorf("fragment %q needs %d values, only %d left", fragment, n, len(args)-bound)
		}
		q.Where(fragment, stringsToAny(args[bound:bound+n])...)
		bound += n
	}
	if bound < len(args) {
		return fmt.Errorf("%d positional values bound to no placeholder", len(args)-bound)
	}
	if fetchOrderBy != "" {
		if fetchDesc {
			q.OrderByDesc(fetchOrderBy)
		} else {
			q.OrderByAsc(fetchOrderBy)
		}
	}
	if fetchLimit > 0 {
		q.Limit(fetchLimit)
	}
	if fetchOffset > 0 {
		q.Offset(fetchOffset)
	}

	rows, err := q.All(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		output.Warning("No rows matched")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
		if fetchRelated == "" {
			continue
		}
		related, err := row.Related(ctx, fetchRelated)
		if err != nil {
			return err
		}
		output.Muted("  %s:", fetchRelated)
		if err := encodeRelated(enc, related); err != nil {
			return err
		}
	}
	output.Success("%d rows", len(rows))
	return nil
}

func encodeRelated(enc *json.Encoder, related any) error {
	switch v := related.(type) {
	case nil:
		return enc.Encode(nil)
	case *record.Row:
		return enc.Encode(v)
	case []*record.Row:
		return enc.Encode(v)
	default:
		return enc.Encode(v)
	}
}

func placeholderCount(fragment string) int {
	n := 0
	for _, r := range fragment {
		if r == '?' {
			n++
		}
	}
	// A fragment like "age > " binds one appended placeholder.
	if n == 0 {
		return 1
	}
	return n
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
