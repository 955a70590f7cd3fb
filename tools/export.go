package tools

import (
	"context"
	"fmt"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ExportSearchIndexInput defines input for export_search_index tool
type ExportSearchIndexInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: js (the search_index.js wrapper) or json (optional, defaults to js)"`
	Page   string `json:"page,omitempty" jsonschema:"Only export the entries of this page (optional)"`
}

// ExportSearchIndexOutput defines output for export_search_index tool
type ExportSearchIndexOutput struct {
	Format  string `json:"format"`
	Page    string `json:"page,omitempty"`
	Entries int    `json:"entries"`
	Content string `json:"content"`
}

// subsetForPage returns a copy of corpus holding only the named page's
// entries, in order
func subsetForPage(corpus *searchindex.Index, page string) (*searchindex.Index, error) {
	if page == "" {
		return corpus, nil
	}
	group, ok := searchindex.FindPage(corpus, page)
	if !ok {
		return nil, fmt.Errorf("page '%s' not found (use list_pages to see available pages)", page)
	}
	return &searchindex.Index{Docs: group.Entries}, nil
}

// ExportSearchIndex re-serializes the loaded search index
func ExportSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ExportSearchIndexInput) (*mcp.CallToolResult, ExportSearchIndexOutput, error) {
	format, err := searchindex.ParseFormat(input.Format)
	if err != nil {
		return nil, ExportSearchIndexOutput{}, err
	}

	corpus, err := currentCorpus()
	if err != nil {
		return nil, ExportSearchIndexOutput{}, err
	}

	subset, err := subsetForPage(corpus, input.Page)
	if err != nil {
		return nil, ExportSearchIndexOutput{}, err
	}

	data, err := searchindex.Marshal(subset, format)
	if err != nil {
		return nil, ExportSearchIndexOutput{}, fmt.Errorf("failed to encode search index: %w", err)
	}

	return nil, ExportSearchIndexOutput{
		Format:  string(format),
		Page:    input.Page,
		Entries: subset.Len(),
		Content: string(data),
	}, nil
}

// RegisterExportTools registers export_search_index
func RegisterExportTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "export_search_index",
			Description: "Export the loaded search index (or one page of it) as search_index.js or plain JSON.",
		},
		ExportSearchIndex,
	)
}
