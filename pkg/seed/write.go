package seed

import (
	"bufio"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/formats"
)

// chunkWriter streams one chunk's records in a concrete format.
type chunkWriter func(w *bufio.Writer, c *chunk) error

func writerFor(format formats.Format) (chunkWriter, error) {
	switch format {
	case formats.CSV:
		return delimitedWriter(','), nil
	case formats.TSV:
		return delimitedWriter('\t'), nil
	case formats.JSON:
		return writeJSONChunk, nil
	case formats.NDJSON:
		return writeNDJSONChunk, nil
	case formats.XML:
		return writeXMLChunk, nil
	default:
		return nil, &formats.UnsupportedFormatError{Ext: string(format)}
	}
}

func writeChunkFile(path string, write chunkWriter, c *chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create seed file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw, c); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write seed file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("flush seed file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close seed file: %w", err)
	}
	return nil
}

func delimitedWriter(comma rune) chunkWriter {
	return func(w *bufio.Writer, c *chunk) error {
		cw := csv.NewWriter(w)
		cw.Comma = comma
		if err := cw.Write(catalog.FieldNames); err != nil {
			return err
		}
		for i := 0; i < c.count; i++ {
			vals := c.next().Values()
			if err := cw.Write(vals[:]); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
}

// seedRow is the JSON shape of one generated record.
type seedRow struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	Colour    string `json:"colour,omitempty"`
	Capacity  string `json:"capacity,omitempty"`
	Network   string `json:"network,omitempty"`
	Grade     string `json:"grade,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func toSeedRow(rec *catalog.Record) seedRow {
	return seedRow{
		Make:      rec.Make,
		Model:     rec.Model,
		Colour:    rec.Colour,
		Capacity:  rec.Capacity,
		Network:   rec.Network,
		Grade:     rec.Grade,
		Condition: rec.Condition,
	}
}

func writeJSONChunk(w *bufio.Writer, c *chunk) error {
	if _, err := w.WriteString("["); err != nil {
		return err
	}
	for i := 0; i < c.count; i++ {
		if i > 0 {
			if _, err := w.WriteString(","); err != nil {
				return err
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
		out, err := json.Marshal(toSeedRow(c.next()))
		if err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	tail := "]\n"
	if c.count > 0 {
		tail = "\n]\n"
	}
	_, err := w.WriteString(tail)
	return err
}

func writeNDJSONChunk(w *bufio.Writer, c *chunk) error {
	for i := 0; i < c.count; i++ {
		out, err := json.Marshal(toSeedRow(c.next()))
		if err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// writeXMLChunk emits make and model as attributes and the optional fields
// as child elements, mirroring the mixed shape suppliers actually send.
func writeXMLChunk(w *bufio.Writer, c *chunk) error {
	if _, err := w.WriteString("<products>\n"); err != nil {
		return err
	}
	for i := 0; i < c.count; i++ {
		rec := c.next()
		if _, err := w.WriteString("  <product make=\""); err != nil {
			return err
		}
		if err := xml.EscapeText(w, []byte(rec.Make)); err != nil {
			return err
		}
		if _, err := w.WriteString("\" model=\""); err != nil {
			return err
		}
		if err := xml.EscapeText(w, []byte(rec.Model)); err != nil {
			return err
		}
		if _, err := w.WriteString("\">"); err != nil {
			return err
		}
		for _, name := range []string{catalog.FieldColour, catalog.FieldCapacity, catalog.FieldNetwork, catalog.FieldGrade, catalog.FieldCondition} {
			val := rec.Field(name)
			if val == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "<%s>", name); err != nil {
				return err
			}
			if err := xml.EscapeText(w, []byte(val)); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "</%s>", name); err != nil {
				return err
			}
		}
		if _, err := w.WriteString("</product>\n"); err != nil {
			return err
		}
	}
	_, err := w.WriteString("</products>\n")
	return err
}
