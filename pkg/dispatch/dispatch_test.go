package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranayb2773/products-parser/pkg/formats"
)

func TestForCoversAllFormats(t *testing.T) {
	for _, f := range formats.All {
		e, err := For(f)
		require.NoError(t, err, f)
		require.NotNil(t, e.NewReader, f)
		require.NotNil(t, e.Splitter, f)
		require.NotNil(t, e.Merger, f)
	}
}

func TestForUnknownFormat(t *testing.T) {
	_, err := For(formats.Format("parquet"))
	var uerr *formats.UnsupportedFormatError
	assert.ErrorAs(t, err, &uerr)
}

func TestForPath(t *testing.T) {
	e, err := ForPath("catalog.tsv")
	require.NoError(t, err)
	assert.Equal(t, formats.TSV, e.Format)

	r := e.NewReader(strings.NewReader("make\tmodel\nApple\tiPhone 12\n"))
	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "iPhone 12", rec.Model)

	_, err = ForPath("catalog.parquet")
	assert.Error(t, err)
}
