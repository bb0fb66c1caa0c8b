package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/pranayb2773/products-parser/pkg/catalog"
)

// Spill and snapshot files share one format: NDJSON, one entry per line, each
// line carrying the fingerprint, the seven record fields, and the running
// count. Compressed files are a zstd stream of the same lines and carry a
// .zst suffix.

// entryLine is the wire form of one aggregate entry.
type entryLine struct {
	Fingerprint string `json:"fingerprint"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Colour      string `json:"colour,omitempty"`
	Capacity    string `json:"capacity,omitempty"`
	Network     string `json:"network,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Count       int64  `json:"count"`
}

func toEntryLine(fp catalog.Fingerprint, e *Entry) entryLine {
	return entryLine{
		Fingerprint: fp.String(),
		Make:        e.Record.Make,
		Model:       e.Record.Model,
		Colour:      e.Record.Colour,
		Capacity:    e.Record.Capacity,
		Network:     e.Record.Network,
		Grade:       e.Record.Grade,
		Condition:   e.Record.Condition,
		Count:       e.Count,
	}
}

func (l entryLine) record() *catalog.Record {
	return &catalog.Record{
		Make:      l.Make,
		Model:     l.Model,
		Colour:    l.Colour,
		Capacity:  l.Capacity,
		Network:   l.Network,
		Grade:     l.Grade,
		Condition: l.Condition,
	}
}

// writeEntryFile serializes entries to path, one NDJSON line per entry. The
// file is complete or absent: any write failure removes the partial file.
func writeEntryFile(path string, entries map[catalog.Fingerprint]*Entry, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create entry file: %w", err)
	}

	var (
		w   io.Writer = f
		enc *zstd.Encoder
	)
	if compress {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		w = enc
	}
	bw := bufio.NewWriter(w)

	fail := func(err error) error {
		if enc != nil {
			enc.Close()
		}
		f.Close()
		os.Remove(path)
		return err
	}

	for fp, e := range entries {
		line, err := json.Marshal(toEntryLine(fp, e))
		if err != nil {
			return fail(fmt.Errorf("encode entry: %w", err))
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fail(fmt.Errorf("write entry: %w", err))
		}
	}

	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("flush entries: %w", err))
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("close zstd encoder: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close entry file: %w", err)
	}
	return nil
}

// readEntryFile streams every entry line of path to fn. Compression is
// detected from the .zst suffix.
func readEntryFile(path string, fn func(fp catalog.Fingerprint, rec *catalog.Record, count int64)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open entry file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var line entryLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return fmt.Errorf("entry line %d: %w", lineNo, err)
		}
		fp, err := catalog.ParseFingerprint(line.Fingerprint)
		if err != nil {
			return fmt.Errorf("entry line %d: %w", lineNo, err)
		}
		if line.Count < 1 {
			return fmt.Errorf("entry line %d: count %d out of range", lineNo, line.Count)
		}
		fn(fp, line.record(), line.Count)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read entries: %w", err)
	}
	return nil
}
