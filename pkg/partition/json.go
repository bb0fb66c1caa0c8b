package partition

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pranayb2773/products-parser/pkg/readers"
)

// JSONSplitter deals the top-level objects of a JSON document (bare array,
// wrapped array, NDJSON, or a single object) round-robin across partitions.
// Each partition is written as its own array, so an empty partition is the
// valid document "[]".
type JSONSplitter struct{}

func (s *JSONSplitter) Split(inputPath, dir string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("partition count must be at least 1, got %d", n)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	files, paths, err := createPartitions(dir, ".json", n)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			closeAndRemove(files, paths)
		}
	}()

	writers := make([]*bufio.Writer, n)
	counts := make([]int, n)
	for i, f := range files {
		writers[i] = bufio.NewWriter(f)
		if _, err := writers[i].WriteString("["); err != nil {
			return nil, fmt.Errorf("write partition: %w", err)
		}
	}

	k := 0
	err = readers.ScanJSONRecords(in, func(span []byte) error {
		i := k % n
		k++
		w := writers[i]
		if counts[i] > 0 {
			if _, err := w.WriteString(","); err != nil {
				return err
			}
		}
		counts[i]++
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
		_, err := w.Write(span)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i, w := range writers {
		tail := "]\n"
		if counts[i] > 0 {
			tail = "\n]\n"
		}
		if _, err := w.WriteString(tail); err != nil {
			return nil, fmt.Errorf("write partition: %w", err)
		}
		if err := w.Flush(); err != nil {
			return nil, fmt.Errorf("flush partition: %w", err)
		}
	}
	if err := closeAll(files); err != nil {
		return nil, fmt.Errorf("close partition: %w", err)
	}
	ok = true
	return paths, nil
}
