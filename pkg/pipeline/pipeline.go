// Package pipeline coordinates parsing a catalog file into a final aggregate,
// either serially or by fanning partitions out to isolated workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pranayb2773/products-parser/internal/logctx"
	"github.com/pranayb2773/products-parser/pkg/aggregate"
	"github.com/pranayb2773/products-parser/pkg/dispatch"
)

// Config controls a Coordinator run.
type Config struct {
	// TempDir holds partition, spill, and result files. Empty means
	// os.TempDir(). The directory is shared across concurrent runs, so every
	// file created under it gets a collision-resistant name.
	TempDir string

	// Workers is the number of isolated execution units. Values <= 1 disable
	// partitioning and process the input serially.
	Workers int

	// ChunkSize is the per-aggregator in-memory entry threshold before a
	// spill. 0 disables spilling.
	ChunkSize int

	// CompressSpills writes zstd-compressed spill and result files.
	CompressSpills bool
}

// Stats summarizes one completed run.
type Stats struct {
	Records    int64
	Unique     int
	Partitions int
	InputBytes int64
	Elapsed    time.Duration
}

// ConcurrencyError reports a worker that terminated abnormally or a result
// file that was missing after the join barrier.
type ConcurrencyError struct {
	Worker int
	Err    error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("worker %d: %v", e.Worker, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// Coordinator runs the partition/parse/merge state machine.
type Coordinator struct {
	cfg Config
}

// New creates a Coordinator. Zero-value fields get defaults.
func New(cfg Config) *Coordinator {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Coordinator{cfg: cfg}
}

// Process parses inputPath and returns the merged aggregate. With more than
// one worker the input is partitioned, each partition is aggregated by its
// own worker with no shared state, and the per-worker results are folded
// together after every worker has exited.
func (c *Coordinator) Process(ctx context.Context, inputPath string) (*aggregate.Aggregator, *Stats, error) {
	start := time.Now()

	entry, err := dispatch.ForPath(inputPath)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat input: %w", err)
	}
	if err := os.MkdirAll(c.cfg.TempDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}

	var agg *aggregate.Aggregator
	partitions := 0
	if c.cfg.Workers <= 1 {
		agg, err = c.processSerial(entry, inputPath)
	} else {
		partitions = c.cfg.Workers
		agg, err = c.processParallel(ctx, entry, inputPath)
	}
	if err != nil {
		return nil, nil, err
	}

	unique, err := agg.Count()
	if err != nil {
		agg.Discard()
		return nil, nil, err
	}

	stats := &Stats{
		Records:    agg.Total(),
		Unique:     unique,
		Partitions: partitions,
		InputBytes: info.Size(),
		Elapsed:    time.Since(start),
	}
	logger := logctx.FromContext(ctx)
	logger.Info().
		Str("input", inputPath).
		Int64("input_bytes", stats.InputBytes).
		Int64("records_count", stats.Records).
		Int("unique_count", stats.Unique).
		Int("partitions_count", stats.Partitions).
		Dur("elapsed_ms", stats.Elapsed).
		Msg("processing complete")
	return agg, stats, nil
}

func (c *Coordinator) processSerial(entry *dispatch.Entry, inputPath string) (*aggregate.Aggregator, error) {
	agg := c.newAggregator()
	if err := c.consumeFile(entry, inputPath, agg); err != nil {
		agg.Discard()
		return nil, err
	}
	return agg, nil
}

func (c *Coordinator) processParallel(ctx context.Context, entry *dispatch.Entry, inputPath string) (*aggregate.Aggregator, error) {
	n := c.cfg.Workers
	log := logctx.FromContext(ctx)

	parts, err := entry.Splitter.Split(inputPath, c.cfg.TempDir, n)
	if err != nil {
		return nil, fmt.Errorf("partition input: %w", err)
	}

	results := make([]string, n)
	for i := range results {
		results[i] = filepath.Join(c.cfg.TempDir, "result-"+uuid.NewString()+snapshotExt(c.cfg.CompressSpills))
	}

	// Partition and result files are removed on every exit path. A file that
	// was never written (a worker failed before its snapshot) is fine to
	// miss here.
	defer func() {
		for _, p := range parts {
			os.Remove(p)
		}
		for _, p := range results {
			os.Remove(p)
		}
	}()

	log.Debug().
		Str("input", inputPath).
		Int("workers_count", n).
		Msg("starting workers")

	// Plain Group, not WithContext: one worker failing must not interrupt
	// the others. Wait is the join barrier; no result file is read before
	// every worker has exited.
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := c.runWorker(ctx, entry, parts[i], results[i], i); err != nil {
				return &ConcurrencyError{Worker: i, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	final := c.newAggregator()
	for i, p := range results {
		if err := final.LoadSnapshot(p); err != nil {
			final.Discard()
			if errors.Is(err, os.ErrNotExist) {
				return nil, &ConcurrencyError{Worker: i, Err: fmt.Errorf("result file missing: %w", err)}
			}
			return nil, fmt.Errorf("merge worker %d result: %w", i, err)
		}
	}
	return final, nil
}

// runWorker is one isolated execution unit: it owns one partition file, one
// fresh aggregator, and one result slot, and communicates only through the
// result file.
func (c *Coordinator) runWorker(ctx context.Context, entry *dispatch.Entry, partPath, resultPath string, id int) error {
	log := logctx.FromContext(ctx).With().Int("worker", id).Logger()

	agg := c.newAggregator()
	defer agg.Discard()

	if err := c.consumeFile(entry, partPath, agg); err != nil {
		log.Debug().Err(err).Msg("worker failed")
		return err
	}
	if err := agg.WriteSnapshot(resultPath, c.cfg.CompressSpills); err != nil {
		return err
	}
	log.Debug().Int64("records_count", agg.Total()).Msg("worker done")
	return nil
}

func (c *Coordinator) consumeFile(entry *dispatch.Entry, path string, agg *aggregate.Aggregator) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := entry.NewReader(f)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := agg.Add(rec); err != nil {
			return err
		}
	}
}

func (c *Coordinator) newAggregator() *aggregate.Aggregator {
	return aggregate.New(aggregate.Config{
		TempDir:   c.cfg.TempDir,
		ChunkSize: c.cfg.ChunkSize,
		Compress:  c.cfg.CompressSpills,
	})
}

func snapshotExt(compressed bool) string {
	if compressed {
		return ".ndjson.zst"
	}
	return ".ndjson"
}
