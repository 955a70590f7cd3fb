package searchindex

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects the serialization written by Encode
type Format string

const (
	// FormatJS is the `var documenterSearchIndex = {...}` file loaded by the
	// browser search widget
	FormatJS Format = "js"
	// FormatJSON is the bare {"docs": [...]} document
	FormatJSON Format = "json"
)

// ParseFormat maps a user supplied name to a Format. Empty means FormatJS.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "js", "javascript":
		return FormatJS, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown search index format %q (want js or json)", name)
	}
}

// Marshal serializes idx in the given format
func Marshal(idx *Index, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, idx, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes idx to w in the given format. Text is written verbatim,
// without HTML escaping.
func Encode(w io.Writer, idx *Index, format Format) error {
	if idx == nil {
		idx = &Index{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		docs := idx.Docs
		if docs == nil {
			docs = []SearchEntry{}
		}
		if err := enc.Encode(Index{Docs: docs}); err != nil {
			return fmt.Errorf("failed to encode search index: %w", err)
		}
		return nil
	case FormatJS, "":
		return encodeJS(w, idx)
	default:
		return fmt.Errorf("unknown search index format %q", format)
	}
}

// encodeJS mirrors the layout Documenter writes: the assignment and "docs"
// key on the first line, the whole array on the second
func encodeJS(w io.Writer, idx *Index) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(jsPrefix)
	bw.WriteString(" {\"docs\":\n[")

	var entry bytes.Buffer
	enc := json.NewEncoder(&entry)
	enc.SetEscapeHTML(false)
	for i, e := range idx.Docs {
		entry.Reset()
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.Write(bytes.TrimSuffix(entry.Bytes(), []byte("\n")))
	}

	bw.WriteString("]\n}\n")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write search index: %w", err)
	}
	return nil
}
