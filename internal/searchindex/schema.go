package searchindex

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "https://searchindex-mcp/schema/search-index.json"

//go:embed schema.json
var schemaJSON []byte

var (
	compiledSchema *jsonschema.Schema
	compileErr     error
	compileOnce    sync.Once
)

// Violation is a single schema violation found in a raw search index
type Violation struct {
	Path    string `json:"path" yaml:"path"` // JSON path, e.g. $.docs.3.category
	Message string `json:"message" yaml:"message"`
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
}

// Schema returns the compiled JSON Schema every search index must satisfy
func Schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("failed to parse search index schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("failed to add search index schema: %w", err)
			return
		}

		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Validate checks raw search index input (plain JSON or the JavaScript
// wrapper) against the schema. It returns a *ParseError when the input is
// not JSON at all; an empty slice means the document is valid.
func Validate(data []byte) ([]Violation, error) {
	schema, err := Schema()
	if err != nil {
		return nil, err
	}

	payload, start := StripWrapper(data)
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &ParseError{Err: ErrEmptyInput}
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, newParseError(data, start, err)
	}

	if err := schema.Validate(instance); err != nil {
		validationErr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
		return collectViolations(validationErr, message.NewPrinter(language.English)), nil
	}

	return []Violation{}, nil
}

// ValidateIndex validates an already decoded index. Used for indexes built
// in memory before they are written out.
func ValidateIndex(idx *Index) ([]Violation, error) {
	data, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search index: %w", err)
	}
	return Validate(data)
}

// collectViolations flattens the validation error tree into its leaves
func collectViolations(validationErr *jsonschema.ValidationError, p *message.Printer) []Violation {
	if len(validationErr.Causes) > 0 {
		var violations []Violation
		for _, cause := range validationErr.Causes {
			violations = append(violations, collectViolations(cause, p)...)
		}
		return violations
	}

	path := "$"
	if len(validationErr.InstanceLocation) > 0 {
		path = "$." + strings.Join(validationErr.InstanceLocation, ".")
	}

	v := Violation{Path: path, Message: validationErr.Error()}
	if validationErr.ErrorKind != nil {
		v.Message = validationErr.ErrorKind.LocalizedString(p)
		v.Keyword = strings.Join(validationErr.ErrorKind.KeywordPath(), "/")
	}
	return []Violation{v}
}
