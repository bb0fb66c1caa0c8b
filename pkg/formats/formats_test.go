package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"catalog.csv", CSV},
		{"catalog.CSV", CSV},
		{"/data/feed.tsv", TSV},
		{"feed.txt", TSV},
		{"products.json", JSON},
		{"products.ndjson", NDJSON},
		{"products.jsonl", NDJSON},
		{"products.xml", XML},
	}
	for _, tc := range cases {
		got, err := Detect(tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, path := range []string{"catalog.parquet", "catalog", "archive.zip"} {
		_, err := Detect(path)
		var ferr *UnsupportedFormatError
		require.ErrorAs(t, err, &ferr, path)
	}
}

func TestExportFormat(t *testing.T) {
	assert.Equal(t, JSON, ExportFormat("out.json"))
	assert.Equal(t, NDJSON, ExportFormat("out.ndjson"))
	assert.Equal(t, NDJSON, ExportFormat("out.jsonl"))
	assert.Equal(t, XML, ExportFormat("out.xml"))
	assert.Equal(t, TSV, ExportFormat("out.tsv"))
	assert.Equal(t, CSV, ExportFormat("out.csv"))
	assert.Equal(t, CSV, ExportFormat("out.dat"), "unknown extension defaults to CSV")
	assert.Equal(t, CSV, ExportFormat("out"))
}
