package aggregate

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/dispatch"
	"github.com/pranayb2773/products-parser/pkg/formats"
)

func mustRecord(t *testing.T, fields map[string]string) *catalog.Record {
	t.Helper()
	rec, err := catalog.NewRecord(fields)
	require.NoError(t, err)
	return rec
}

func TestAggregatorCountsDuplicates(t *testing.T) {
	agg := New(Config{TempDir: t.TempDir()})

	blue := map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue"}
	red := map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Red"}

	require.NoError(t, agg.Add(mustRecord(t, blue)))
	require.NoError(t, agg.Add(mustRecord(t, blue)))
	require.NoError(t, agg.Add(mustRecord(t, red)))

	n, err := agg.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(3), agg.Total())

	entries, err := agg.Entries()
	require.NoError(t, err)
	assert.Equal(t, int64(2), entries[mustRecord(t, blue).Fingerprint()].Count)
	assert.Equal(t, int64(1), entries[mustRecord(t, red).Fingerprint()].Count)
}

func TestAggregatorCaseInsensitive(t *testing.T) {
	agg := New(Config{TempDir: t.TempDir()})

	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14"})))
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "APPLE", "model": "IPHONE 14"})))

	n, err := agg.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAggregatorSpillsAtThreshold(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir, ChunkSize: 1})

	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14"})))
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Google", "model": "Pixel 6"})))

	assert.Equal(t, 2, agg.SpillCount())
	names, err := filepath.Glob(filepath.Join(dir, "agg-spill-*"))
	require.NoError(t, err)
	assert.Len(t, names, 2)

	n, err := agg.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// collect() consumes and removes the spill files.
	names, err = filepath.Glob(filepath.Join(dir, "agg-spill-*"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAggregatorSpillFoldsDuplicates(t *testing.T) {
	agg := New(Config{TempDir: t.TempDir(), ChunkSize: 1})

	same := map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue"}
	require.NoError(t, agg.Add(mustRecord(t, same)))
	require.NoError(t, agg.Add(mustRecord(t, same)))
	require.NoError(t, agg.Add(mustRecord(t, same)))

	entries, err := agg.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[mustRecord(t, same).Fingerprint()].Count)
}

func TestAggregatorCompressedSpills(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir, ChunkSize: 1, Compress: true})

	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14"})))

	names, err := filepath.Glob(filepath.Join(dir, "agg-spill-*.ndjson.zst"))
	require.NoError(t, err)
	require.Len(t, names, 1)

	n, err := agg.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAggregatorMerge(t *testing.T) {
	a := New(Config{TempDir: t.TempDir()})
	b := New(Config{TempDir: t.TempDir()})

	shared := map[string]string{"make": "Apple", "model": "iPhone 14"}
	require.NoError(t, a.Add(mustRecord(t, shared)))
	require.NoError(t, b.Add(mustRecord(t, shared)))
	require.NoError(t, b.Add(mustRecord(t, map[string]string{"make": "Google", "model": "Pixel 6"})))

	require.NoError(t, a.Merge(b))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(3), a.Total())

	entries, err := a.Entries()
	require.NoError(t, err)
	assert.Equal(t, int64(2), entries[mustRecord(t, shared).Fingerprint()].Count)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := New(Config{TempDir: dir})
	require.NoError(t, src.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14"})))
	require.NoError(t, src.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14"})))
	require.NoError(t, src.Add(mustRecord(t, map[string]string{"make": "Google", "model": "Pixel 6"})))

	path := filepath.Join(dir, "result.ndjson")
	require.NoError(t, src.WriteSnapshot(path, false))

	dst := New(Config{TempDir: dir})
	require.NoError(t, dst.LoadSnapshot(path))

	n, err := dst.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(3), dst.Total())
}

func TestSnapshotRejectsCorruptLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	dst := New(Config{TempDir: dir})
	assert.Error(t, dst.LoadSnapshot(path))
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir})

	blue := map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue"}
	require.NoError(t, agg.Add(mustRecord(t, blue)))
	require.NoError(t, agg.Add(mustRecord(t, blue)))
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Red"})))

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, agg.Export(out, formats.CSV))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"make", "model", "colour", "capacity", "network", "grade", "condition", "count"}, rows[0])
	assert.Equal(t, []string{"Apple", "iPhone 14", "Blue", "", "", "", "", "2"}, rows[1])
	assert.Equal(t, []string{"Apple", "iPhone 14", "Red", "", "", "", "", "1"}, rows[2])
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir})
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Google", "model": "Pixel 6"})))
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue"})))

	out := filepath.Join(dir, "out.json")
	require.NoError(t, agg.Export(out, formats.JSON))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `"count": 1`)
	// Sorted by field tuple: Apple before Google.
	assert.Less(t, strings.Index(body, "Apple"), strings.Index(body, "Google"))
	assert.NotContains(t, body, `"capacity"`)
}

func TestExportNDJSON(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir})
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Google", "model": "Pixel 6"})))
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue"})))

	out := filepath.Join(dir, "out.ndjson")
	require.NoError(t, agg.Export(out, formats.NDJSON))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"make":"Apple"`)
	assert.Contains(t, lines[0], `"count":1`)
	assert.Contains(t, lines[1], `"make":"Google"`)
	assert.NotContains(t, lines[1], `"colour"`)
}

func TestExportXML(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir})
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue & Gold"})))

	out := filepath.Join(dir, "out.xml")
	require.NoError(t, agg.Export(out, formats.XML))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "<products>")
	assert.Contains(t, body, "<make>Apple</make>")
	assert.Contains(t, body, "<colour>Blue &amp; Gold</colour>")
	assert.Contains(t, body, "<count>1</count>")
}

func TestExportRoundTrip(t *testing.T) {
	// Every export re-parses with the matching reader: the unique combinations
	// survive unchanged, and the exported count column is not a record field,
	// so each combination reads back as exactly one record.
	dir := t.TempDir()
	agg := New(Config{TempDir: dir})
	blue := map[string]string{"make": "Apple", "model": "iPhone 14", "colour": "Blue"}
	require.NoError(t, agg.Add(mustRecord(t, blue)))
	require.NoError(t, agg.Add(mustRecord(t, blue)))
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Google", "model": "Pixel 6", "capacity": "128GB"})))

	want, err := agg.Entries()
	require.NoError(t, err)

	for _, format := range formats.All {
		t.Run(string(format), func(t *testing.T) {
			out := filepath.Join(dir, "out"+format.Ext())
			require.NoError(t, agg.Export(out, format))

			entry, err := dispatch.For(format)
			require.NoError(t, err)
			f, err := os.Open(out)
			require.NoError(t, err)
			defer f.Close()

			back := New(Config{TempDir: dir})
			r := entry.NewReader(f)
			for {
				rec, err := r.Read()
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				require.NoError(t, back.Add(rec))
			}

			got, err := back.Entries()
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for fp, wantEntry := range want {
				gotEntry, ok := got[fp]
				require.True(t, ok, "combination %s missing after round trip", wantEntry.Record.Model)
				assert.Equal(t, wantEntry.Record, gotEntry.Record)
				assert.Equal(t, int64(1), gotEntry.Count, "count column is dropped on re-parse")
			}
		})
	}
}

func TestExportLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	agg := New(Config{TempDir: dir})
	require.NoError(t, agg.Add(mustRecord(t, map[string]string{"make": "Apple", "model": "iPhone 14"})))

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, agg.Export(out, formats.CSV))

	_, err := os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
