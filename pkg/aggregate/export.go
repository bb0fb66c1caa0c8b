package aggregate

import (
	"bufio"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/formats"
)

// Export serializes the collected aggregate to path in the given format.
// The file is written to a temporary sibling first and
// renamed into place, so no half-written export is ever left behind.
func (a *Aggregator) Export(path string, format formats.Format) error {
	entries, err := a.Entries()
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := writeExport(bw, format, sortedEntries(entries)); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export %s: %w", format, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize export: %w", err)
	}
	return nil
}

// sortedEntries orders entries by their case-folded field tuple so exports
// are deterministic regardless of map iteration or worker completion order.
func sortedEntries(entries map[catalog.Fingerprint]*Entry) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Record.Values(), out[j].Record.Values()
		for k := range a {
			av, bv := strings.ToLower(a[k]), strings.ToLower(b[k])
			if av != bv {
				return av < bv
			}
		}
		return false
	})
	return out
}

func writeExport(w io.Writer, format formats.Format, entries []*Entry) error {
	switch format {
	case formats.CSV, formats.TSV:
		return writeCSVExport(w, entries, format)
	case formats.JSON:
		return writeJSONExport(w, entries)
	case formats.NDJSON:
		return writeNDJSONExport(w, entries)
	case formats.XML:
		return writeXMLExport(w, entries)
	default:
		return &formats.UnsupportedFormatError{Ext: string(format)}
	}
}

func writeCSVExport(w io.Writer, entries []*Entry, format formats.Format) error {
	cw := csv.NewWriter(w)
	if format == formats.TSV {
		cw.Comma = '\t'
	}

	header := append(append([]string{}, catalog.FieldNames...), "count")
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, e := range entries {
		vals := e.Record.Values()
		copy(row, vals[:])
		row[len(row)-1] = strconv.FormatInt(e.Count, 10)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// exportRow is the flattened JSON form of one entry.
type exportRow struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	Colour    string `json:"colour,omitempty"`
	Capacity  string `json:"capacity,omitempty"`
	Network   string `json:"network,omitempty"`
	Grade     string `json:"grade,omitempty"`
	Condition string `json:"condition,omitempty"`
	Count     int64  `json:"count"`
}

func newExportRow(e *Entry) exportRow {
	return exportRow{
		Make:      e.Record.Make,
		Model:     e.Record.Model,
		Colour:    e.Record.Colour,
		Capacity:  e.Record.Capacity,
		Network:   e.Record.Network,
		Grade:     e.Record.Grade,
		Condition: e.Record.Condition,
		Count:     e.Count,
	}
}

func writeJSONExport(w io.Writer, entries []*Entry) error {
	rows := make([]exportRow, len(entries))
	for i, e := range entries {
		rows[i] = newExportRow(e)
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func writeNDJSONExport(w io.Writer, entries []*Entry) error {
	for _, e := range entries {
		line, err := json.Marshal(newExportRow(e))
		if err != nil {
			return err
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func writeXMLExport(w io.Writer, entries []*Entry) error {
	if _, err := io.WriteString(w, xml.Header+"<products>\n"); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := io.WriteString(w, "  <product>\n"); err != nil {
			return err
		}
		for _, name := range catalog.FieldNames {
			val := e.Record.Field(name)
			if val == "" {
				continue
			}
			if err := writeXMLField(w, name, val); err != nil {
				return err
			}
		}
		if err := writeXMLField(w, "count", strconv.FormatInt(e.Count, 10)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "  </product>\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</products>\n")
	return err
}

func writeXMLField(w io.Writer, name, value string) error {
	if _, err := fmt.Fprintf(w, "    <%s>", name); err != nil {
		return err
	}
	if err := xml.EscapeText(w, []byte(value)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "</%s>\n", name)
	return err
}
