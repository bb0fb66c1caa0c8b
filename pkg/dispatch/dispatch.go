// Package dispatch maps a format tag to the capabilities that handle it.
// Adding a format means adding one entry here.
package dispatch

import (
	"io"

	"github.com/pranayb2773/products-parser/pkg/formats"
	"github.com/pranayb2773/products-parser/pkg/partition"
	"github.com/pranayb2773/products-parser/pkg/readers"
)

// Entry bundles everything the pipeline needs for one format: a streaming
// reader constructor, a partitioner, and the matching merge strategy.
type Entry struct {
	Format    formats.Format
	NewReader func(r io.Reader) readers.RecordReader
	Splitter  partition.Splitter
	Merger    partition.Merger
}

// For resolves the entry for a format, or UnsupportedFormatError.
func For(format formats.Format) (*Entry, error) {
	s, err := partition.SplitterFor(format)
	if err != nil {
		return nil, err
	}
	m, err := partition.MergerFor(format)
	if err != nil {
		return nil, err
	}

	e := &Entry{Format: format, Splitter: s, Merger: m}
	switch format {
	case formats.CSV, formats.TSV:
		e.NewReader = func(r io.Reader) readers.RecordReader {
			return readers.NewDelimitedReader(r, format, 0)
		}
	case formats.JSON, formats.NDJSON:
		e.NewReader = func(r io.Reader) readers.RecordReader {
			return readers.NewJSONReader(r)
		}
	case formats.XML:
		e.NewReader = func(r io.Reader) readers.RecordReader {
			return readers.NewXMLReader(r)
		}
	}
	return e, nil
}

// ForPath resolves the entry for a file path by its extension.
func ForPath(path string) (*Entry, error) {
	format, err := formats.Detect(path)
	if err != nil {
		return nil, err
	}
	return For(format)
}
