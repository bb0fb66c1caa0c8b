// Package partition splits a catalog file into independently parseable
// slices, one per worker, and merges same-format documents back together.
// Records are dealt round-robin so partition sizes stay balanced even when
// individual records vary wildly in byte size.
package partition

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pranayb2773/products-parser/pkg/formats"
)

// Splitter writes n format-preserving slices of one input file into dir and
// returns their paths in partition order. Every returned file parses on its
// own, including partitions that received zero records.
type Splitter interface {
	Split(inputPath, dir string, n int) ([]string, error)
}

// SplitterFor returns the splitter for a format.
func SplitterFor(format formats.Format) (Splitter, error) {
	switch format {
	case formats.CSV, formats.TSV:
		return &LineSplitter{Header: true, Ext: format.Ext()}, nil
	case formats.NDJSON:
		return &LineSplitter{Ext: format.Ext()}, nil
	case formats.JSON:
		return &JSONSplitter{}, nil
	case formats.XML:
		return &XMLSplitter{}, nil
	default:
		return nil, &formats.UnsupportedFormatError{Ext: string(format)}
	}
}

// Partition detects the input's format from its extension and splits it into
// n slices under dir.
func Partition(inputPath, dir string, n int) ([]string, error) {
	format, err := formats.Detect(inputPath)
	if err != nil {
		return nil, err
	}
	s, err := SplitterFor(format)
	if err != nil {
		return nil, err
	}
	return s.Split(inputPath, dir, n)
}

// partitionPath builds a collision-resistant file name inside dir. Concurrent
// runs share one temp directory, so names must never repeat.
func partitionPath(dir, ext string) string {
	return filepath.Join(dir, "part-"+uuid.NewString()+ext)
}

// createPartitions opens n uniquely named files. On any failure it closes and
// removes the ones already created.
func createPartitions(dir, ext string, n int) ([]*os.File, []string, error) {
	files := make([]*os.File, 0, n)
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := partitionPath(dir, ext)
		f, err := os.Create(p)
		if err != nil {
			closeAndRemove(files, paths)
			return nil, nil, fmt.Errorf("create partition %d: %w", i, err)
		}
		files = append(files, f)
		paths = append(paths, p)
	}
	return files, paths, nil
}

func closeAndRemove(files []*os.File, paths []string) {
	for _, f := range files {
		f.Close()
	}
	for _, p := range paths {
		os.Remove(p)
	}
}

func closeAll(files []*os.File) error {
	var first error
	for _, f := range files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
