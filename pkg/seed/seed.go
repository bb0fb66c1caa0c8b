// Package seed generates synthetic product catalogs in every supported
// format, for demos and load testing. Generation is deterministic for a
// given seed.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pranayb2773/products-parser/internal/logctx"
	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/formats"
	"github.com/pranayb2773/products-parser/pkg/partition"
)

// Pools of plausible field values. Model pools are keyed by make so the
// output looks like a real supplier feed.
var (
	makes = []string{"Apple", "Samsung", "Google", "OnePlus", "Xiaomi", "Nokia"}

	models = map[string][]string{
		"Apple":   {"iPhone 11", "iPhone 12", "iPhone 13", "iPhone 14", "iPhone 14 Pro"},
		"Samsung": {"Galaxy S21", "Galaxy S22", "Galaxy S23", "Galaxy A54", "Galaxy Z Flip 4"},
		"Google":  {"Pixel 5", "Pixel 6", "Pixel 6a", "Pixel 7", "Pixel 7 Pro"},
		"OnePlus": {"8T", "9", "9 Pro", "10 Pro", "Nord 2"},
		"Xiaomi":  {"Mi 11", "Redmi Note 10", "Redmi Note 11", "12 Pro", "Poco F4"},
		"Nokia":   {"G21", "X20", "XR20", "8.3", "C32"},
	}

	colours    = []string{"Black", "White", "Blue", "Red", "Green", "Silver", "Gold"}
	capacities = []string{"64GB", "128GB", "256GB", "512GB"}
	networks   = []string{"Unlocked", "Vodafone", "O2", "EE", "Three"}
	grades     = []string{"A", "B", "C"}
	conditions = []string{"New", "Working", "Damaged"}
)

// Config controls catalog generation.
type Config struct {
	// Count is the number of records to generate.
	Count int

	// Workers generates in parallel chunks that are merged into the final
	// file. Values <= 1 write directly.
	Workers int

	// Seed makes output reproducible. 0 means 1.
	Seed int64

	// TempDir holds intermediate chunk files. Empty means os.TempDir().
	TempDir string
}

// Generate writes a synthetic catalog of cfg.Count records to path in the
// given format.
func Generate(ctx context.Context, format formats.Format, path string, cfg Config) error {
	if cfg.Count < 0 {
		return fmt.Errorf("record count must not be negative, got %d", cfg.Count)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	w, err := writerFor(format)
	if err != nil {
		return err
	}

	log := logctx.FromContext(ctx)
	if cfg.Workers <= 1 {
		log.Debug().Str("format", string(format)).Int("records_count", cfg.Count).Msg("seeding serially")
		return writeChunkFile(path, w, newChunk(cfg.Seed, 0, cfg.Count))
	}

	merger, err := partition.MergerFor(format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	n := cfg.Workers
	chunks := make([]string, n)
	for i := range chunks {
		chunks[i] = filepath.Join(cfg.TempDir, "seed-"+uuid.NewString()+format.Ext())
	}
	defer func() {
		for _, p := range chunks {
			os.Remove(p)
		}
	}()

	log.Debug().
		Str("format", string(format)).
		Int("records_count", cfg.Count).
		Int("workers_count", n).
		Msg("seeding in parallel")

	base, extra := cfg.Count/n, cfg.Count%n
	var g errgroup.Group
	for i := 0; i < n; i++ {
		count := base
		if i < extra {
			count++
		}
		g.Go(func() error {
			return writeChunkFile(chunks[i], w, newChunk(cfg.Seed, i, count))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return merger.Merge(path, chunks)
}

// chunk is one worker's slice of the catalog, with its own rng stream.
type chunk struct {
	rng   *rand.Rand
	count int
}

func newChunk(seed int64, worker, count int) *chunk {
	return &chunk{
		rng:   rand.New(rand.NewSource(seed + int64(worker))),
		count: count,
	}
}

// next produces one record. Optional fields are present most of the time but
// each goes missing occasionally, like real supplier feeds.
func (c *chunk) next() *catalog.Record {
	mk := makes[c.rng.Intn(len(makes))]
	rec := &catalog.Record{
		Make:  mk,
		Model: models[mk][c.rng.Intn(len(models[mk]))],
	}
	if c.rng.Intn(10) > 0 {
		rec.Colour = colours[c.rng.Intn(len(colours))]
	}
	if c.rng.Intn(10) > 0 {
		rec.Capacity = capacities[c.rng.Intn(len(capacities))]
	}
	if c.rng.Intn(10) > 1 {
		rec.Network = networks[c.rng.Intn(len(networks))]
	}
	if c.rng.Intn(10) > 1 {
		rec.Grade = grades[c.rng.Intn(len(grades))]
	}
	if c.rng.Intn(10) > 1 {
		rec.Condition = conditions[c.rng.Intn(len(conditions))]
	}
	return rec
}
