// Package readers implements the streaming format readers that turn a raw
// catalog byte stream into canonical records, one at a time, without ever
// buffering a whole document.
//
// Every reader follows the same contract: Read returns the next record or
// io.EOF at the end of the stream; the first error is sticky and terminates
// the sequence. Readers consume their underlying stream and are not
// restartable.
package readers

import (
	"errors"

	"github.com/pranayb2773/products-parser/pkg/catalog"
)

// RecordReader produces a finite, lazy sequence of canonical records.
type RecordReader interface {
	// Read returns the next record, io.EOF when the stream is exhausted, or
	// the error that terminated the sequence. After a non-EOF error every
	// subsequent call returns the same error.
	Read() (*catalog.Record, error)
}

// buildRecord maps raw keyed values through the header-alias table and
// constructs a record. ValidationErrors are stamped with the 1-based source
// index before propagating.
func buildRecord(headers, values []string, index int) (*catalog.Record, error) {
	rec, err := catalog.NewRecord(catalog.Normalize(headers, values))
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) && verr.Row == 0 {
			verr.Row = index
		}
		return nil, err
	}
	return rec, nil
}
