package partition

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pranayb2773/products-parser/pkg/formats"
	"github.com/pranayb2773/products-parser/pkg/readers"
)

// Merger combines several same-format documents into one. The inverse of
// Splitter: merging the partitions of a file reproduces its logical records.
type Merger interface {
	Merge(dstPath string, parts []string) error
}

// MergerFor returns the merger for a format.
func MergerFor(format formats.Format) (Merger, error) {
	switch format {
	case formats.CSV, formats.TSV:
		return &LineMerger{Header: true}, nil
	case formats.NDJSON:
		return &LineMerger{}, nil
	case formats.JSON:
		return &JSONMerger{}, nil
	case formats.XML:
		return &XMLMerger{}, nil
	default:
		return nil, &formats.UnsupportedFormatError{Ext: string(format)}
	}
}

// mergeTo opens dstPath and runs fn against a buffered writer, removing the
// partial file when anything fails.
func mergeTo(dstPath string, fn func(w *bufio.Writer) error) error {
	f, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create merge target: %w", err)
	}
	w := bufio.NewWriter(f)

	fail := func(err error) error {
		f.Close()
		os.Remove(dstPath)
		return err
	}
	if err := fn(w); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flush merge target: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(dstPath)
		return fmt.Errorf("close merge target: %w", err)
	}
	return nil
}

// LineMerger concatenates line-oriented documents. With Header set, the first
// document's header line is kept and the others' header lines are dropped.
type LineMerger struct {
	Header bool
}

func (m *LineMerger) Merge(dstPath string, parts []string) error {
	return mergeTo(dstPath, func(w *bufio.Writer) error {
		for i, part := range parts {
			f, err := os.Open(part)
			if err != nil {
				return fmt.Errorf("open part: %w", err)
			}
			sc := bufio.NewScanner(f)
			sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
			skip := m.Header && i > 0
			for sc.Scan() {
				if skip {
					skip = false
					continue
				}
				if _, err := fmt.Fprintln(w, sc.Text()); err != nil {
					f.Close()
					return err
				}
			}
			err = sc.Err()
			f.Close()
			if err != nil {
				return fmt.Errorf("read part: %w", err)
			}
		}
		return nil
	})
}

// JSONMerger joins array documents into one array. Each part is streamed one
// value span at a time, so only a single record is in memory regardless of
// part size.
type JSONMerger struct{}

func (m *JSONMerger) Merge(dstPath string, parts []string) error {
	return mergeTo(dstPath, func(w *bufio.Writer) error {
		if _, err := w.WriteString("["); err != nil {
			return err
		}
		wrote := false
		for _, part := range parts {
			f, err := os.Open(part)
			if err != nil {
				return fmt.Errorf("open part: %w", err)
			}
			err = readers.ScanJSONRecords(f, func(span []byte) error {
				if wrote {
					if _, err := w.WriteString(","); err != nil {
						return err
					}
				}
				wrote = true
				if _, err := w.WriteString("\n"); err != nil {
					return err
				}
				_, err := w.Write(span)
				return err
			})
			f.Close()
			if err != nil {
				return fmt.Errorf("merge part %s: %w", part, err)
			}
		}
		tail := "]\n"
		if wrote {
			tail = "\n]\n"
		}
		_, err := w.WriteString(tail)
		return err
	})
}

// XMLMerger re-parents the element children of every part under one
// <products> root, discarding each part's own wrapper.
type XMLMerger struct{}

func (m *XMLMerger) Merge(dstPath string, parts []string) error {
	return mergeTo(dstPath, func(w *bufio.Writer) error {
		if _, err := w.WriteString("<products>\n"); err != nil {
			return err
		}
		for _, part := range parts {
			f, err := os.Open(part)
			if err != nil {
				return fmt.Errorf("open part: %w", err)
			}
			_, err = readers.ScanXMLElements(f, func(outer string) error {
				if _, err := w.WriteString(outer); err != nil {
					return err
				}
				return w.WriteByte('\n')
			})
			f.Close()
			if err != nil {
				return fmt.Errorf("merge part %s: %w", part, err)
			}
		}
		_, err := w.WriteString("</products>\n")
		return err
	})
}
