package readers

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONReader(t *testing.T) {
	t.Run("wrapped items array", func(t *testing.T) {
		input := `{"items":[{"make":"Google","model":"Pixel 6"}]}`
		recs := readAll(t, NewJSONReader(strings.NewReader(input)))
		require.Len(t, recs, 1)
		assert.Equal(t, "Google", recs[0].Make)
		assert.Equal(t, "Pixel 6", recs[0].Model)
	})

	t.Run("top-level array, pretty printed", func(t *testing.T) {
		input := `[
  {"make": "Apple", "model": "iPhone 12", "colour": "Blue"},
  {"make": "Apple", "model": "iPhone 12", "colour": "Red"}
]`
		recs := readAll(t, NewJSONReader(strings.NewReader(input)))
		require.Len(t, recs, 2)
		assert.Equal(t, "Blue", recs[0].Colour)
		assert.Equal(t, "Red", recs[1].Colour)
	})

	t.Run("ndjson", func(t *testing.T) {
		input := `{"make":"Apple","model":"iPhone 12"}
{"make":"Samsung","model":"Galaxy S21"}

{"make":"Google","model":"Pixel 6"}`
		recs := readAll(t, NewJSONReader(strings.NewReader(input)))
		require.Len(t, recs, 3)
		assert.Equal(t, "Samsung", recs[1].Make)
	})

	t.Run("lone object is one record", func(t *testing.T) {
		input := "{\n  \"make\": \"OnePlus\",\n  \"model\": \"9 Pro\"\n}"
		recs := readAll(t, NewJSONReader(strings.NewReader(input)))
		require.Len(t, recs, 1)
		assert.Equal(t, "OnePlus", recs[0].Make)
	})

	t.Run("wrapper under products and data keys", func(t *testing.T) {
		for _, input := range []string{
			`{"products": [{"make":"Sony","model":"Xperia 5"}], "total": 1}`,
			`{"count": 1,
  "data": [{"make":"Sony","model":"Xperia 5"}]}`,
		} {
			recs := readAll(t, NewJSONReader(strings.NewReader(input)))
			require.Len(t, recs, 1, input)
			assert.Equal(t, "Sony", recs[0].Make)
		}
	})

	t.Run("numbers and nested values flatten to strings", func(t *testing.T) {
		input := `[{"make":"Apple","model":"iPhone 12","capacity":128,"meta":{"lot":7}}]`
		recs := readAll(t, NewJSONReader(strings.NewReader(input)))
		require.Len(t, recs, 1)
		assert.Equal(t, "128", recs[0].Capacity)
	})

	t.Run("empty and whitespace-only streams", func(t *testing.T) {
		for _, input := range []string{"", "   \n\t\n"} {
			r := NewJSONReader(strings.NewReader(input))
			_, err := r.Read()
			assert.True(t, errors.Is(err, io.EOF), "input %q", input)
		}
	})

	t.Run("empty array yields no records", func(t *testing.T) {
		r := NewJSONReader(strings.NewReader("[]\n"))
		_, err := r.Read()
		assert.True(t, errors.Is(err, io.EOF))
	})

	t.Run("unterminated array is a parse error", func(t *testing.T) {
		r := NewJSONReader(strings.NewReader(`[{"make":"Apple","model":"iPhone 12"}`))
		_, err := r.Read()
		require.NoError(t, err)
		_, err = r.Read()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Greater(t, perr.Offset, int64(0))
	})

	t.Run("content after a lone object is a parse error", func(t *testing.T) {
		// The first object spans multiple lines, so this is not NDJSON; the
		// second object must surface as an error, not vanish.
		input := "{\n  \"make\": \"OnePlus\",\n  \"model\": \"9 Pro\"\n}\n" +
			`{"make":"Google","model":"Pixel 6"}`
		r := NewJSONReader(strings.NewReader(input))
		rec, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, "OnePlus", rec.Make)

		_, err = r.Read()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Msg, "after document end")
	})

	t.Run("garbage document start", func(t *testing.T) {
		r := NewJSONReader(strings.NewReader("hello"))
		_, err := r.Read()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("missing make in element surfaces validation error", func(t *testing.T) {
		r := NewJSONReader(strings.NewReader(`[{"model":"Pixel 6"}]`))
		_, err := r.Read()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "make")
	})
}

func TestScanJSONRecords(t *testing.T) {
	t.Run("spans of wrapped array elements", func(t *testing.T) {
		input := `{"items": [ {"make":"A","model":"1"} , {"make":"B","model":"2"} ]}`
		var spans []string
		err := ScanJSONRecords(strings.NewReader(input), func(span []byte) error {
			spans = append(spans, string(span))
			return nil
		})
		require.NoError(t, err)
		require.Len(t, spans, 2)
		assert.Equal(t, `{"make":"A","model":"1"}`, spans[0])
		assert.Equal(t, `{"make":"B","model":"2"}`, spans[1])
	})

	t.Run("callback error stops the scan", func(t *testing.T) {
		sentinel := errors.New("stop")
		err := ScanJSONRecords(strings.NewReader(`[{"a":1},{"b":2}]`), func([]byte) error {
			return sentinel
		})
		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("compact single-line object resolves as one record", func(t *testing.T) {
		var spans [][]byte
		err := ScanJSONRecords(strings.NewReader(`{"make":"A","model":"1"}`), func(span []byte) error {
			spans = append(spans, span)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, spans, 1)
	})
}
