// Package aggregate counts unique field combinations in bounded memory.
//
// The aggregator keys entries by record fingerprint. When the in-memory entry
// count reaches a configured chunk threshold the whole map is serialized to a
// spill file and cleared; spill files are folded back in (and deleted) the
// first time a caller asks for counts or entries. Merging two aggregators is
// count addition per fingerprint, so merge order never changes the result.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pranayb2773/products-parser/pkg/catalog"
)

// Entry is one unique combination: a representative record and how many times
// it was observed.
type Entry struct {
	Record *catalog.Record
	Count  int64
}

// Config controls spill behavior.
type Config struct {
	// TempDir is the directory for spill files. Empty means os.TempDir().
	TempDir string

	// ChunkSize is the in-memory entry count that triggers a spill.
	// 0 disables spilling.
	ChunkSize int

	// Compress writes spill files zstd-compressed.
	Compress bool
}

// Aggregator accumulates fingerprint -> (record, count) entries.
//
// It is not safe for concurrent use; the coordinator gives each worker its
// own instance.
type Aggregator struct {
	cfg     Config
	entries map[catalog.Fingerprint]*Entry
	spills  []string
	total   int64
}

// New creates an aggregator with the given spill configuration.
func New(cfg Config) *Aggregator {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Aggregator{
		cfg:     cfg,
		entries: make(map[catalog.Fingerprint]*Entry),
	}
}

// Add records one observation. It may spill the in-memory map to disk when
// the chunk threshold is reached.
func (a *Aggregator) Add(rec *catalog.Record) error {
	a.total++
	a.bump(rec.Fingerprint(), rec, 1)

	if a.cfg.ChunkSize > 0 && len(a.entries) >= a.cfg.ChunkSize {
		if err := a.spill(); err != nil {
			return fmt.Errorf("spill aggregate: %w", err)
		}
	}
	return nil
}

// bump adds n observations for fp, inserting a new entry when absent. The
// representative record of an existing entry is kept; all records sharing a
// fingerprint are field-wise identical up to case.
func (a *Aggregator) bump(fp catalog.Fingerprint, rec *catalog.Record, n int64) {
	if e, ok := a.entries[fp]; ok {
		e.Count += n
		return
	}
	a.entries[fp] = &Entry{Record: rec, Count: n}
}

// Count returns the number of distinct fingerprints across memory and spills.
// The first call after a spill folds all spill files back into memory and
// deletes them.
func (a *Aggregator) Count() (int, error) {
	if err := a.collect(); err != nil {
		return 0, err
	}
	return len(a.entries), nil
}

// Entries returns the full fingerprint -> entry view, collecting spills
// first. The returned map is the aggregator's own; callers must not mutate
// it.
func (a *Aggregator) Entries() (map[catalog.Fingerprint]*Entry, error) {
	if err := a.collect(); err != nil {
		return nil, err
	}
	return a.entries, nil
}

// Total returns the number of record observations, including spilled ones.
func (a *Aggregator) Total() int64 {
	return a.total
}

// SpillCount returns how many spill files are currently on disk.
func (a *Aggregator) SpillCount() int {
	return len(a.spills)
}

// Merge folds every entry of src into a, adding counts per fingerprint. Both
// aggregators collect their spills first. src is left collected but
// unchanged.
func (a *Aggregator) Merge(src *Aggregator) error {
	srcEntries, err := src.Entries()
	if err != nil {
		return err
	}
	if err := a.collect(); err != nil {
		return err
	}
	for fp, e := range srcEntries {
		a.bump(fp, e.Record, e.Count)
	}
	a.total += src.total
	return nil
}

// spill serializes the whole in-memory map to a fresh spill file and clears
// it. Spill paths use a collision-resistant name so concurrent workers
// sharing a temp dir never collide.
func (a *Aggregator) spill() error {
	if len(a.entries) == 0 {
		return nil
	}

	ext := ".ndjson"
	if a.cfg.Compress {
		ext = ".ndjson.zst"
	}
	path := filepath.Join(a.cfg.TempDir, "agg-spill-"+uuid.NewString()+ext)

	if err := writeEntryFile(path, a.entries, a.cfg.Compress); err != nil {
		return err
	}

	a.spills = append(a.spills, path)
	a.entries = make(map[catalog.Fingerprint]*Entry)
	return nil
}

// collect folds every spill file back into the in-memory map, deleting each
// file as it is consumed. Spills are read exactly once.
func (a *Aggregator) collect() error {
	if len(a.spills) == 0 {
		return nil
	}

	for _, path := range a.spills {
		err := readEntryFile(path, func(fp catalog.Fingerprint, rec *catalog.Record, count int64) {
			a.bump(fp, rec, count)
		})
		if err != nil {
			return fmt.Errorf("collect spill %s: %w", filepath.Base(path), err)
		}
		os.Remove(path)
	}
	a.spills = nil
	return nil
}

// WriteSnapshot collects and serializes the full aggregate to path. Workers
// use this for the result-file handoff to the coordinator.
func (a *Aggregator) WriteSnapshot(path string, compress bool) error {
	if err := a.collect(); err != nil {
		return err
	}
	if err := writeEntryFile(path, a.entries, compress); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot folds a snapshot file written by WriteSnapshot into a. Counts
// add per fingerprint and the observation total grows by the sum of loaded
// counts.
func (a *Aggregator) LoadSnapshot(path string) error {
	if err := a.collect(); err != nil {
		return err
	}
	err := readEntryFile(path, func(fp catalog.Fingerprint, rec *catalog.Record, count int64) {
		a.bump(fp, rec, count)
		a.total += count
	})
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Discard removes any spill files still on disk. It is safe to call on every
// exit path; already-missing files are ignored.
func (a *Aggregator) Discard() {
	for _, path := range a.spills {
		os.Remove(path)
	}
	a.spills = nil
}
