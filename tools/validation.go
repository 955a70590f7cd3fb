package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ValidationGuidance keeps clients from inventing problems the validator did not report
	ValidationGuidance = "The violations and issues listed are the complete validation result. Only fix what is listed; do not infer additional problems."
)

// isFilePath reports whether s names a file rather than holding search
// index content
func isFilePath(s string) bool {
	if s == "" {
		return false
	}

	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, "var ") || strings.HasPrefix(trimmed, "\ufeff") {
		return false
	}

	if strings.Contains(s, "\n") {
		return false
	}

	// Unix absolute path
	if strings.HasPrefix(s, "/") {
		return true
	}

	// Relative path
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "~/") {
		return true
	}

	// Windows absolute path (C:\, D:\, etc.)
	if len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		return true
	}

	return strings.HasSuffix(s, ".js") || strings.HasSuffix(s, ".json")
}

// readSourceContent returns inline content as is and reads file paths
func readSourceContent(source string) ([]byte, error) {
	if !isFilePath(source) {
		return []byte(source), nil
	}

	path := source
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index file '%s': %w", source, err)
	}
	return data, nil
}

// SyntaxError locates malformed input
type SyntaxError struct {
	Message string `json:"message" yaml:"message"`
	Offset  int64  `json:"offset" yaml:"offset"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
}

// ValidateSearchIndexInput defines input for validate_search_index tool
type ValidateSearchIndexInput struct {
	Source string `json:"source" jsonschema:"search_index.js content (JavaScript wrapper or plain JSON) or a path to the file"`
}

// ValidateSearchIndexOutput defines output for validate_search_index tool
type ValidateSearchIndexOutput struct {
	Valid       bool                    `json:"valid" yaml:"valid"`
	SyntaxError *SyntaxError            `json:"syntax_error,omitempty" yaml:"syntax_error,omitempty"`
	Violations  []searchindex.Violation `json:"violations" yaml:"violations"`
	Issues      []searchindex.Issue     `json:"issues" yaml:"issues"`
	Stats       *searchindex.IndexStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	Message     string                  `json:"message" yaml:"message"`
	Guidance    string                  `json:"guidance,omitempty" yaml:"-"`
}

// ValidateSearchIndexData checks raw search index content. Problems in the
// content are reported in the output, never as an error.
func ValidateSearchIndexData(data []byte) ValidateSearchIndexOutput {
	output := ValidateSearchIndexOutput{
		Violations: []searchindex.Violation{},
		Issues:     []searchindex.Issue{},
	}

	violations, err := searchindex.Validate(data)
	if err != nil {
		output.SyntaxError = syntaxError(err)
		output.Message = fmt.Sprintf("Not a valid search index: %s", output.SyntaxError.Message)
		return output
	}
	output.Violations = violations

	// Schema violations do not prevent decoding (e.g. an unknown category),
	// so invariant checks and stats still run when Parse succeeds
	idx, err := searchindex.Parse(data)
	if err != nil {
		if len(violations) == 0 {
			output.SyntaxError = syntaxError(err)
			output.Message = fmt.Sprintf("Not a valid search index: %s", output.SyntaxError.Message)
			return output
		}
		// Wrongly typed fields: the violations already say why
		output.Message = fmt.Sprintf("Found %d schema violation(s)", len(violations))
		output.Guidance = ValidationGuidance
		return output
	}

	output.Issues = searchindex.Check(idx)
	stats := searchindex.Stats(idx)
	output.Stats = &stats
	output.Valid = len(output.Violations) == 0 && len(output.Issues) == 0

	if output.Valid {
		output.Message = fmt.Sprintf("Valid search index: %d entries on %d pages", stats.Entries, stats.Pages)
	} else {
		output.Message = fmt.Sprintf("Found %d schema violation(s) and %d issue(s)", len(output.Violations), len(output.Issues))
		output.Guidance = ValidationGuidance
	}
	return output
}

func syntaxError(err error) *SyntaxError {
	var parseErr *searchindex.ParseError
	if errors.As(err, &parseErr) {
		return &SyntaxError{
			Message: parseErr.Error(),
			Offset:  parseErr.Offset,
			Line:    parseErr.Line,
			Column:  parseErr.Column,
		}
	}
	return &SyntaxError{Message: err.Error()}
}

// ValidateSearchIndex validates a search_index.js against the schema and the
// structural invariants, and summarizes its content
func ValidateSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateSearchIndexInput) (*mcp.CallToolResult, ValidateSearchIndexOutput, error) {
	if strings.TrimSpace(input.Source) == "" {
		return nil, ValidateSearchIndexOutput{}, fmt.Errorf("source must not be empty")
	}

	data, err := readSourceContent(input.Source)
	if err != nil {
		return nil, ValidateSearchIndexOutput{}, err
	}

	return nil, ValidateSearchIndexData(data), nil
}

// RegisterValidationTools registers validate_search_index
func RegisterValidationTools(server *mcp.Server) error {
	if _, err := searchindex.Schema(); err != nil {
		return fmt.Errorf("failed to compile search index schema: %w", err)
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_search_index",
			Description: "Validate a Documenter search_index.js (content or file path): JSON Schema conformance, duplicate section anchors, empty page names. Returns violations with their JSON path and a summary of entries per category.",
		},
		ValidateSearchIndex,
	)

	return nil
}
