package readers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pranayb2773/products-parser/pkg/formats"
)

// jsonMode tracks how a JSON-family document yields its records.
type jsonMode int

const (
	jsonModeUndetected jsonMode = iota
	jsonModeEmpty               // whitespace-only or empty stream
	jsonModeNDJSON              // one compact object per line
	jsonModeArray               // top-level or wrapped array of values
	jsonModeSingle              // a lone top-level object is itself the record
)

// wrapperKeys are the object keys whose array value holds the records of a
// wrapper document, checked in scan order.
var wrapperKeys = map[string]bool{
	"products": true,
	"items":    true,
	"data":     true,
}

// jsonValueStream scans a JSON-family document byte by byte and yields the
// exact span of each record-bearing value. It tracks nesting depth and
// string/escape state itself so the document is never buffered whole; only
// one value span is in memory at a time.
type jsonValueStream struct {
	br     *bufio.Reader
	offset int64
	mode   jsonMode
	index  int

	inArray     bool // '[' already consumed
	expectComma bool
	single      []byte // span for jsonModeSingle, consumed by one next() call
	done        bool
}

func newJSONValueStream(r io.Reader) *jsonValueStream {
	return &jsonValueStream{br: bufio.NewReaderSize(r, detectPeekSize)}
}

// next returns the span of the next record value and its 1-based index.
// io.EOF signals a clean end of the sequence.
func (s *jsonValueStream) next() ([]byte, int, error) {
	if s.mode == jsonModeUndetected {
		if err := s.detect(); err != nil {
			return nil, 0, err
		}
	}

	switch s.mode {
	case jsonModeEmpty:
		return nil, 0, io.EOF
	case jsonModeNDJSON:
		return s.nextLine()
	case jsonModeArray:
		return s.nextElement()
	case jsonModeSingle:
		if s.done {
			return nil, 0, s.verifyEnd()
		}
		s.done = true
		s.index = 1
		return s.single, 1, nil
	default:
		return nil, 0, s.fail("unknown scan mode", nil)
	}
}

// detect inspects the first non-whitespace content without consuming it and
// picks the scan mode. NDJSON wins when the first non-blank line opens an
// object and closes one on the same line.
func (s *jsonValueStream) detect() error {
	peek, err := s.br.Peek(detectPeekSize)
	if len(peek) == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			s.mode = jsonModeEmpty
			return nil
		}
		return s.fail("read input", err)
	}

	trimmed := bytes.TrimLeft(peek, " \t\r\n")
	if len(trimmed) == 0 {
		s.mode = jsonModeEmpty
		return nil
	}

	if looksLikeNDJSON(peek) {
		s.mode = jsonModeNDJSON
		return nil
	}

	switch trimmed[0] {
	case '[':
		s.mode = jsonModeArray
		return nil
	case '{':
		return s.resolveObject()
	default:
		return s.fail(fmt.Sprintf("unexpected byte %q at document start", trimmed[0]), nil)
	}
}

// looksLikeNDJSON implements the NDJSON heuristic: the first non-blank line
// opens an object and closes one on that same line. A second non-blank line
// is also required so a compact one-line wrapper document ({"items":[...]})
// is not mistaken for NDJSON; a genuine one-line NDJSON file resolves
// identically through the lone-object path.
func looksLikeNDJSON(peek []byte) bool {
	first, rest := nextNonBlankLine(peek)
	if first == nil || first[0] != '{' || bytes.IndexByte(first, '}') < 0 {
		return false
	}
	second, _ := nextNonBlankLine(rest)
	return second != nil
}

// nextNonBlankLine returns the first non-blank line of buf (trimmed) and the
// remainder after it, or nil when buf has no more non-blank lines.
func nextNonBlankLine(buf []byte) (line, rest []byte) {
	for len(buf) > 0 {
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i], buf[i+1:]
		} else {
			line, buf = buf, nil
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, buf
		}
	}
	return nil, nil
}

// resolveObject walks a top-level object looking for a wrapper key holding an
// array. Finding one switches to array mode positioned just inside the '[';
// otherwise the object's own fields are collected and it becomes the single
// record.
func (s *jsonValueStream) resolveObject() error {
	b, err := s.skipSpace()
	if err != nil {
		return s.fail("read document", err)
	}
	if b != '{' {
		return s.fail(fmt.Sprintf("expected '{', got %q", b), nil)
	}

	var collected bytes.Buffer
	collected.WriteByte('{')
	first := true

	for {
		b, err = s.skipSpace()
		if err != nil {
			return s.fail("unexpected end of object", err)
		}
		if b == '}' {
			collected.WriteByte('}')
			s.mode = jsonModeSingle
			s.single = collected.Bytes()
			return nil
		}
		if b == ',' {
			continue
		}
		if b != '"' {
			return s.fail(fmt.Sprintf("expected object key, got %q", b), nil)
		}

		var keySpan bytes.Buffer
		if err := s.readValueFrom(b, &keySpan); err != nil {
			return err
		}
		key, err := decodeJSONString(keySpan.Bytes())
		if err != nil {
			return s.fail("malformed object key", err)
		}

		b, err = s.skipSpace()
		if err != nil || b != ':' {
			return s.fail("expected ':' after object key", err)
		}

		b, err = s.skipSpace()
		if err != nil {
			return s.fail("unexpected end of object", err)
		}

		if wrapperKeys[key] && b == '[' {
			// The wrapper's array streams from here; whatever follows it in
			// the wrapper is never looked at again.
			s.mode = jsonModeArray
			s.inArray = true
			return nil
		}

		if !first {
			collected.WriteByte(',')
		}
		first = false
		collected.Write(keySpan.Bytes())
		collected.WriteByte(':')
		if err := s.readValueFrom(b, &collected); err != nil {
			return err
		}
	}
}

// nextElement yields the next value of the (possibly wrapped) array.
func (s *jsonValueStream) nextElement() ([]byte, int, error) {
	if s.done {
		return nil, 0, io.EOF
	}

	if !s.inArray {
		b, err := s.skipSpace()
		if err != nil {
			return nil, 0, s.fail("read document", err)
		}
		if b != '[' {
			return nil, 0, s.fail(fmt.Sprintf("expected '[', got %q", b), nil)
		}
		s.inArray = true
	}

	b, err := s.skipSpace()
	if err != nil {
		return nil, 0, s.fail("unterminated array", err)
	}
	if b == ']' {
		s.done = true
		return nil, 0, io.EOF
	}
	if s.expectComma {
		if b != ',' {
			return nil, 0, s.fail(fmt.Sprintf("expected ',' between array elements, got %q", b), nil)
		}
		b, err = s.skipSpace()
		if err != nil {
			return nil, 0, s.fail("unterminated array", err)
		}
		if b == ']' {
			s.done = true
			return nil, 0, io.EOF
		}
	} else if b == ',' {
		return nil, 0, s.fail("unexpected ',' before first array element", nil)
	}

	var span bytes.Buffer
	if err := s.readValueFrom(b, &span); err != nil {
		return nil, 0, err
	}
	s.expectComma = true
	s.index++
	return span.Bytes(), s.index, nil
}

// nextLine yields the next non-blank NDJSON line.
func (s *jsonValueStream) nextLine() ([]byte, int, error) {
	for {
		line, err := s.br.ReadBytes('\n')
		s.offset += int64(len(line))
		s.index++
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			return trimmed, s.index, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, io.EOF
			}
			return nil, 0, s.fail("read line", err)
		}
	}
}

// readValueFrom consumes one complete JSON value whose first byte has already
// been read, appending its bytes to span.
func (s *jsonValueStream) readValueFrom(first byte, span *bytes.Buffer) error {
	span.WriteByte(first)

	switch first {
	case '"':
		return s.readStringTail(span)
	case '{', '[':
		return s.readNestedTail(span)
	default:
		return s.readScalarTail(span)
	}
}

// readStringTail consumes the remainder of a string literal, honoring escape
// sequences.
func (s *jsonValueStream) readStringTail(span *bytes.Buffer) error {
	escaped := false
	for {
		b, err := s.readByte()
		if err != nil {
			return s.fail("unterminated string", err)
		}
		span.WriteByte(b)
		if escaped {
			escaped = false
			continue
		}
		switch b {
		case '\\':
			escaped = true
		case '"':
			return nil
		}
	}
}

// readNestedTail consumes the remainder of an object or array, tracking
// nesting depth and string/escape state.
func (s *jsonValueStream) readNestedTail(span *bytes.Buffer) error {
	depth := 1
	inString := false
	escaped := false

	for depth > 0 {
		b, err := s.readByte()
		if err != nil {
			return s.fail("unterminated value", err)
		}
		span.WriteByte(b)

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}
	return nil
}

// readScalarTail consumes a number/true/false/null up to its delimiter, which
// is pushed back so the caller resumes at exactly the right byte.
func (s *jsonValueStream) readScalarTail(span *bytes.Buffer) error {
	for {
		b, err := s.readByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return s.fail("read value", err)
		}
		if isJSONSpace(b) {
			return nil
		}
		if b == ',' || b == ']' || b == '}' {
			s.unreadByte()
			return nil
		}
		span.WriteByte(b)
	}
}

func (s *jsonValueStream) readByte() (byte, error) {
	b, err := s.br.ReadByte()
	if err == nil {
		s.offset++
	}
	return b, err
}

func (s *jsonValueStream) unreadByte() {
	if err := s.br.UnreadByte(); err == nil {
		s.offset--
	}
}

// skipSpace consumes whitespace and returns the first non-space byte.
func (s *jsonValueStream) skipSpace() (byte, error) {
	for {
		b, err := s.readByte()
		if err != nil {
			return 0, err
		}
		if !isJSONSpace(b) {
			return b, nil
		}
	}
}

// verifyEnd confirms only whitespace remains after the document's last value.
// Trailing content means the document held more than the detected mode could
// account for, which must surface rather than be dropped.
func (s *jsonValueStream) verifyEnd() error {
	b, err := s.skipSpace()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return s.fail("read document", err)
	}
	return s.fail(fmt.Sprintf("unexpected %q after document end", b), nil)
}

func (s *jsonValueStream) fail(msg string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{
		Format: formats.JSON,
		Offset: s.offset,
		Index:  s.index,
		Msg:    msg,
		Err:    err,
	}
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// ScanJSONRecords streams the span of every record-bearing value in a
// JSON-family document (top-level array elements, wrapped-array elements, the
// single object of a one-record document, or NDJSON lines) to fn. The
// partitioner uses this to distribute records without decoding them.
func ScanJSONRecords(r io.Reader, fn func(span []byte) error) error {
	s := newJSONValueStream(r)
	for {
		span, _, err := s.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(span); err != nil {
			return err
		}
	}
}
