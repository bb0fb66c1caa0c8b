package partition

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pranayb2773/products-parser/pkg/readers"
)

// XMLSplitter deals the element children of the document root round-robin
// across partitions. Each partition is wrapped in a synthetic root element
// distinct from the source's root name; element identity is irrelevant when
// the partitions are re-parsed.
type XMLSplitter struct{}

func (s *XMLSplitter) Split(inputPath, dir string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("partition count must be at least 1, got %d", n)
	}

	wrapper, err := partitionRootName(inputPath)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	files, paths, err := createPartitions(dir, ".xml", n)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			closeAndRemove(files, paths)
		}
	}()

	writers := make([]*bufio.Writer, n)
	for i, f := range files {
		writers[i] = bufio.NewWriter(f)
		if _, err := fmt.Fprintf(writers[i], "<%s>\n", wrapper); err != nil {
			return nil, fmt.Errorf("write partition: %w", err)
		}
	}

	k := 0
	_, err = readers.ScanXMLElements(in, func(outer string) error {
		w := writers[k%n]
		k++
		if _, err := w.WriteString(outer); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
	if err != nil {
		return nil, err
	}

	for _, w := range writers {
		if _, err := fmt.Fprintf(w, "</%s>\n", wrapper); err != nil {
			return nil, fmt.Errorf("write partition: %w", err)
		}
		if err := w.Flush(); err != nil {
			return nil, fmt.Errorf("flush partition: %w", err)
		}
	}
	if err := closeAll(files); err != nil {
		return nil, fmt.Errorf("close partition: %w", err)
	}
	ok = true
	return paths, nil
}

// partitionRootName picks a wrapper element name that cannot collide with the
// source document's root.
func partitionRootName(inputPath string) (string, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			// No root at all; the scan pass reports the real error.
			return "part", nil
		}
		if err != nil {
			return "part", nil
		}
		if se, isStart := tok.(xml.StartElement); isStart {
			if se.Name.Local == "part" {
				return "slice", nil
			}
			return "part", nil
		}
	}
}
