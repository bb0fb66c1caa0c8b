package readers

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranayb2773/products-parser/pkg/catalog"
)

func TestXMLReader(t *testing.T) {
	t.Run("attributes and child elements", func(t *testing.T) {
		input := `<products><product make="OnePlus" model="9 Pro"><colour>Silver</colour></product></products>`
		recs := readAll(t, NewXMLReader(strings.NewReader(input)))
		require.Len(t, recs, 1)
		assert.Equal(t, "OnePlus", recs[0].Make)
		assert.Equal(t, "9 Pro", recs[0].Model)
		assert.Equal(t, "Silver", recs[0].Colour)
	})

	t.Run("item elements at any depth", func(t *testing.T) {
		input := `<feed><batch><item><make>Apple</make><model>iPhone 12</model></item></batch>
<item><make>Samsung</make><model>Galaxy S21</model></item></feed>`
		recs := readAll(t, NewXMLReader(strings.NewReader(input)))
		require.Len(t, recs, 2)
		assert.Equal(t, "Apple", recs[0].Make)
		assert.Equal(t, "Samsung", recs[1].Make)
	})

	t.Run("nested child serializes to a string value", func(t *testing.T) {
		input := `<products><product make="Apple" model="iPhone 12"><colour variant="matte">Blue</colour></product></products>`
		recs := readAll(t, NewXMLReader(strings.NewReader(input)))
		require.Len(t, recs, 1)
		assert.Contains(t, recs[0].Colour, `<colour variant="matte">`)
	})

	t.Run("bare element falls back to text under value", func(t *testing.T) {
		// no attributes and no children: the text lands under "value", which
		// maps to no canonical field, so make is missing
		input := `<products><product>Apple iPhone 12</product></products>`
		r := NewXMLReader(strings.NewReader(input))
		_, err := r.Read()
		var verr *catalog.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("zero matching elements is a parse error", func(t *testing.T) {
		r := NewXMLReader(strings.NewReader(`<products><widget/></products>`))
		_, err := r.Read()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Error(), "no product elements found")
	})

	t.Run("bare root is an empty catalog", func(t *testing.T) {
		r := NewXMLReader(strings.NewReader(`<part></part>`))
		_, err := r.Read()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("malformed document", func(t *testing.T) {
		r := NewXMLReader(strings.NewReader(`<products><product make="A" model="B"></products>`))
		_, err := r.Read()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		require.Error(t, perr.Err)
	})

	t.Run("error is sticky", func(t *testing.T) {
		r := NewXMLReader(strings.NewReader(`not xml at all`))
		_, err1 := r.Read()
		require.Error(t, err1)
		_, err2 := r.Read()
		assert.Equal(t, err1, err2)
	})
}
