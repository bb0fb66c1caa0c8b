package readers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/formats"
)

// detectPeekSize bounds how far the delimiter sniffer looks into the stream.
const detectPeekSize = 64 * 1024

// DelimitedReader streams records from comma- or tab-delimited text with a
// header row.
type DelimitedReader struct {
	format  formats.Format
	br      *bufio.Reader
	csv     *csv.Reader
	comma   rune
	headers []string
	row     int
	err     error
}

// NewDelimitedReader creates a reader over delimited text. When comma is zero
// the delimiter is auto-detected from the first line by comparing comma and
// tab occurrence counts.
func NewDelimitedReader(r io.Reader, format formats.Format, comma rune) *DelimitedReader {
	return &DelimitedReader{
		format: format,
		br:     bufio.NewReaderSize(r, detectPeekSize),
		comma:  comma,
	}
}

// Read implements RecordReader. Rows that are entirely blank are skipped and
// do not advance the row counter.
func (d *DelimitedReader) Read() (*catalog.Record, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.csv == nil {
		if err := d.init(); err != nil {
			d.err = err
			return nil, err
		}
	}

	for {
		values, err := d.csv.Read()
		if errors.Is(err, io.EOF) {
			d.err = io.EOF
			return nil, io.EOF
		}
		if err != nil {
			d.err = d.wrapCSVError(err)
			return nil, d.err
		}

		if isBlankRow(values) {
			continue
		}
		d.row++

		rec, err := buildRecord(d.headers, values, d.row)
		if err != nil {
			d.err = err
			return nil, err
		}
		return rec, nil
	}
}

// init detects the delimiter if needed and consumes the header line.
func (d *DelimitedReader) init() error {
	if d.comma == 0 {
		d.comma = detectDelimiter(d.br)
	}

	cr := csv.NewReader(d.br)
	cr.Comma = d.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	d.csv = cr

	for {
		headers, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			return d.wrapCSVError(err)
		}
		if isBlankRow(headers) {
			continue
		}
		d.headers = normalizeHeaders(headers)
		return nil
	}
}

func (d *DelimitedReader) wrapCSVError(err error) error {
	perr := &ParseError{Format: d.format, Offset: -1, Err: err}
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		perr.Line = cerr.Line
		perr.Err = cerr.Err
		perr.Msg = "malformed row"
	}
	return perr
}

// detectDelimiter counts commas vs tabs in the first line of the stream. Ties
// and empty inputs fall back to comma.
func detectDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(detectPeekSize)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	if bytes.Count(peek, []byte{'\t'}) > bytes.Count(peek, []byte{','}) {
		return '\t'
	}
	return ','
}

func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// isBlankRow reports whether a row carries no data at all, including the
// single-empty-cell shape encoding/csv produces for a bare delimiter-free
// blank-ish line.
func isBlankRow(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
