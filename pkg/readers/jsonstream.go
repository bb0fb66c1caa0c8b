package readers

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"

	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/formats"
)

// JSONReader streams records from NDJSON, a top-level array, a wrapper object
// holding an array under products/items/data, or a lone record object. The
// variant is detected from the first non-whitespace content.
type JSONReader struct {
	stream *jsonValueStream
	err    error
}

// NewJSONReader creates a JSON-family reader over the stream.
func NewJSONReader(r io.Reader) *JSONReader {
	return &JSONReader{stream: newJSONValueStream(r)}
}

// Read implements RecordReader.
func (j *JSONReader) Read() (*catalog.Record, error) {
	if j.err != nil {
		return nil, j.err
	}

	span, index, err := j.stream.next()
	if err != nil {
		j.err = err
		return nil, err
	}

	rec, err := j.decodeRecord(span, index)
	if err != nil {
		j.err = err
		return nil, err
	}
	return rec, nil
}

// decodeRecord decodes one value span into a record. Only the span is
// decoded; the surrounding document is never materialized.
func (j *JSONReader) decodeRecord(span []byte, index int) (*catalog.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(span))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{
			Format: formats.JSON,
			Index:  index,
			Offset: -1,
			Msg:    "value is not an object",
			Err:    err,
		}
	}

	keys := make([]string, 0, len(raw))
	values := make([]string, 0, len(raw))
	for k, v := range raw {
		keys = append(keys, k)
		values = append(values, flattenJSONValue(v))
	}

	return buildRecord(keys, values, index)
}

// flattenJSONValue renders a decoded JSON value as the flat string a record
// field holds. Nested structures are re-serialized compactly; null becomes
// absent.
func flattenJSONValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// decodeJSONString unquotes a JSON string literal span.
func decodeJSONString(span []byte) (string, error) {
	var s string
	if err := json.Unmarshal(span, &s); err != nil {
		return "", err
	}
	return s, nil
}
