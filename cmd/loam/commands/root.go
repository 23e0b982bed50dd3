package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loamdb/loam/pkg/record"
	"github.com/loamdb/loam/pkg/runtime"
)

var (
	// Global flags
	configPath string
	driver     string
	dsn        string
	locale     string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "loam",
	Short: "Loam - schema-discovering database access for Go",
	Long: `Loam connects to PostgreSQL, MySQL or SQLite, discovers the schema at
runtime, and works with tables and rows without generated code.

Relations are inferred from naming convention: a field named {table}_id
links to that table, and a join table named after two tables links them
many-to-many.`,
	Version: "0.3.1",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a loam.yaml config file")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Database driver: postgres, mysql or sqlite")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Driver-specific data source name")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Locale suffix for field fallback, e.g. en")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// openDB resolves flags plus the optional config file into a connected,
// schema-discovered DB. Flags win over config values.
func openDB(ctx context.Context) (*record.DB, error) {
	cfg := &runtime.Config{}
	if configPath != "" {
		loaded, err := runtime.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if driver != "" {
		cfg.Driver = driver
	}
	if dsn != "" {
		cfg.DSN = dsn
	}
	if locale != "" {
		cfg.Locale = locale
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("no database configured, pass --dsn and --driver or --config")
	}
	return record.Open(ctx, cfg)
}
