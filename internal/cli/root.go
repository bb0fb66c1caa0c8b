// Package cli implements the products-parser command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pranayb2773/products-parser/internal/config"
	"github.com/pranayb2773/products-parser/internal/logctx"
)

var rootCmd = &cobra.Command{
	Use:   "products-parser",
	Short: "Parse supplier product catalogs into unique-combination counts",
	Long: `products-parser reads supplier catalog files (CSV, TSV, JSON, NDJSON,
or XML), normalizes field names, and counts the unique product combinations.
Large files can be partitioned across isolated workers and the aggregate can
be exported back to CSV, JSON, or XML.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree. The caller decides what a returned error
// means for the process exit status.
func Execute() error {
	return rootCmd.Execute()
}

// loadRuntime resolves config and attaches a configured logger to the
// context. Every subcommand starts here.
func loadRuntime(ctx context.Context) (context.Context, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, nil, err
	}
	logger := logctx.NewConfiguredLogger(cfg.Debug, cfg.HumanLog)
	return logctx.WithLogger(ctx, logger), cfg, nil
}
