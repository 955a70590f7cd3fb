package searchindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// jsPrefix is the variable assignment Documenter wraps the index in
const jsPrefix = "var documenterSearchIndex ="

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrEmptyInput is returned when the input holds no JSON document at all
var ErrEmptyInput = errors.New("empty search index input")

// ParseError reports malformed search index input
type ParseError struct {
	Offset int64 // byte offset into the original input
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse search index at line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse search index: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile reads and parses a search index file
func ParseFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(data)
}

// ParseReader reads r to the end and parses it
func ParseReader(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(data)
}

// Parse decodes a search index given either as plain JSON or wrapped in the
// `var documenterSearchIndex = {...}` assignment.
func Parse(data []byte) (*Index, error) {
	payload, start := StripWrapper(data)
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &ParseError{Err: ErrEmptyInput}
	}

	dec := json.NewDecoder(bytes.NewReader(payload))

	var idx Index
	if err := dec.Decode(&idx); err != nil {
		return nil, newParseError(data, start, err)
	}
	// Anything after the object other than whitespace is garbage
	if _, err := dec.Token(); err != io.EOF {
		pe := &ParseError{
			Offset: start + dec.InputOffset(),
			Err:    errors.New("unexpected data after search index object"),
		}
		pe.Line, pe.Column = position(data, pe.Offset)
		return nil, pe
	}
	if idx.Docs == nil {
		return nil, &ParseError{Err: errors.New(`missing "docs" array`)}
	}
	return &idx, nil
}

// StripWrapper removes the BOM, the JavaScript assignment and a trailing
// semicolon. It returns the JSON payload and its offset in data.
func StripWrapper(data []byte) ([]byte, int64) {
	var start int64
	if bytes.HasPrefix(data, utf8BOM) {
		start = int64(len(utf8BOM))
	}

	rest := data[start:]
	trimmed := bytes.TrimLeft(rest, " \t\r\n")
	start += int64(len(rest) - len(trimmed))

	if bytes.HasPrefix(trimmed, []byte(jsPrefix)) {
		start += int64(len(jsPrefix))
	}

	payload := bytes.TrimRight(data[start:], " \t\r\n")
	payload = bytes.TrimSuffix(payload, []byte(";"))
	return payload, start
}

// newParseError maps a decoder error to a position in the original input
func newParseError(data []byte, start int64, err error) *ParseError {
	pe := &ParseError{Err: err}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		pe.Offset = start + syntaxErr.Offset
	case errors.As(err, &typeErr):
		pe.Offset = start + typeErr.Offset
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		pe.Offset = int64(len(data))
	default:
		return pe
	}

	pe.Line, pe.Column = position(data, pe.Offset)
	return pe
}

// position converts a byte offset into a 1-based line and column
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte("\n")) + 1
	col = int(offset) - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return line, col
}
