package readers

import (
	"fmt"
	"strings"

	"github.com/pranayb2773/products-parser/pkg/formats"
)

// ParseError reports malformed input at a known position. The first parse
// failure terminates the producing stream; no records are yielded after it.
type ParseError struct {
	Format formats.Format
	Line   int   // 1-based line number, 0 if unknown
	Index  int   // 1-based record/element index, 0 if unknown
	Offset int64 // byte offset into the stream, -1 if unknown
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse %s", e.Format)
	switch {
	case e.Line > 0:
		fmt.Fprintf(&sb, " line %d", e.Line)
	case e.Index > 0:
		fmt.Fprintf(&sb, " record %d", e.Index)
	case e.Offset >= 0:
		fmt.Fprintf(&sb, " offset %d", e.Offset)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
