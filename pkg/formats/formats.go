// Package formats names the supported catalog file formats and resolves them
// from file extensions.
package formats

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies one of the supported catalog file formats.
type Format string

const (
	// CSV is comma-delimited text with a header row.
	CSV Format = "csv"
	// TSV is tab-delimited text with a header row.
	TSV Format = "tsv"
	// JSON is a JSON document: a top-level array, a wrapper object, or a
	// single record object.
	JSON Format = "json"
	// NDJSON is newline-delimited JSON, one compact object per line.
	NDJSON Format = "ndjson"
	// XML is an XML document containing product or item elements.
	XML Format = "xml"
)

// All lists every supported format.
var All = []Format{CSV, TSV, JSON, NDJSON, XML}

// UnsupportedFormatError reports a file extension no reader, splitter, or
// seeder recognizes. It is raised before any I/O happens.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported format: file has no extension"
	}
	return fmt.Sprintf("unsupported format: %s", e.Ext)
}

// Detect resolves a file path to its Format by extension. Recognized
// extensions: .csv, .tsv, .txt (tab-delimited), .json, .ndjson, .jsonl, .xml.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return CSV, nil
	case ".tsv", ".txt":
		return TSV, nil
	case ".json":
		return JSON, nil
	case ".ndjson", ".jsonl":
		return NDJSON, nil
	case ".xml":
		return XML, nil
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// Parse resolves a format name as given on the command line.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV, nil
	case "tsv":
		return TSV, nil
	case "json":
		return JSON, nil
	case "ndjson", "jsonl":
		return NDJSON, nil
	case "xml":
		return XML, nil
	default:
		return "", &UnsupportedFormatError{Ext: name}
	}
}

// ExportFormat infers the export format from an output path. Unrecognized or
// missing extensions default to CSV.
func ExportFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv":
		return TSV
	case ".json":
		return JSON
	case ".ndjson", ".jsonl":
		return NDJSON
	case ".xml":
		return XML
	default:
		return CSV
	}
}

// Ext returns the canonical file extension for the format, with the leading
// dot.
func (f Format) Ext() string {
	switch f {
	case NDJSON:
		return ".ndjson"
	default:
		return "." + string(f)
	}
}
