package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pranayb2773/products-parser/pkg/formats"
	"github.com/pranayb2773/products-parser/pkg/humanfmt"
	"github.com/pranayb2773/products-parser/pkg/pipeline"
)

var (
	parseOut     string
	parseWorkers int
	parseChunk   int
	parseFormat  string
)

var parseCmd = &cobra.Command{
	Use:   "parse <input>",
	Short: "Parse a catalog file and count unique product combinations",
	Long: `Parse reads one catalog file, counts its unique product combinations,
and prints a summary. With --out the aggregate is exported; the export format
is inferred from the output extension unless --format overrides it.

Examples:
  # Count unique combinations in a CSV feed
  products-parser parse catalog.csv

  # Parse with 8 workers and export the aggregate as JSON
  products-parser parse catalog.xml --workers 8 --out combos.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseOut, "out", "", "export path for the aggregate (.csv, .json, .xml)")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "worker count, <=1 parses serially (default from config)")
	parseCmd.Flags().IntVar(&parseChunk, "chunk-size", 0, "in-memory entries before spilling to disk (default scaled to RAM)")
	parseCmd.Flags().StringVar(&parseFormat, "format", "", "export format override: csv, tsv, json, ndjson, or xml")
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := loadRuntime(cmd.Context())
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = parseWorkers
	}
	chunkSize := cfg.ChunkSize
	if cmd.Flags().Changed("chunk-size") {
		chunkSize = parseChunk
	}

	exportFormat := formats.ExportFormat(parseOut)
	if parseFormat != "" {
		exportFormat, err = formats.Parse(parseFormat)
		if err != nil {
			return err
		}
	}

	coord := pipeline.New(pipeline.Config{
		TempDir:        cfg.TempDir,
		Workers:        workers,
		ChunkSize:      chunkSize,
		CompressSpills: cfg.CompressSpills,
	})
	agg, stats, err := coord.Process(ctx, args[0])
	if err != nil {
		return err
	}
	defer agg.Discard()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Input size:          %s\n", humanfmt.Bytes(stats.InputBytes))
	fmt.Fprintf(out, "Total records:       %s\n", humanfmt.Count(stats.Records))
	fmt.Fprintf(out, "Unique combinations: %s\n", humanfmt.Count(int64(stats.Unique)))
	fmt.Fprintf(out, "Elapsed:             %s\n", humanfmt.Duration(stats.Elapsed))

	if parseOut == "" {
		return nil
	}
	if err := agg.Export(parseOut, exportFormat); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %s unique combinations to %s (%s)\n",
		humanfmt.Count(int64(stats.Unique)), parseOut, exportFormat)
	return nil
}
