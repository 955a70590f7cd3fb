package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxSymbolSuggestions = 5

// PageSummary is lightweight page info for listing
type PageSummary struct {
	Page    string                       `json:"page"`
	Path    string                       `json:"path"`
	URL     string                       `json:"url,omitempty"`
	Entries int                          `json:"entries"`
	Counts  map[searchindex.Category]int `json:"counts"`
}

// ListPagesInput defines input for list_pages tool
type ListPagesInput struct {
	// No input needed - returns all pages
}

// ListPagesOutput defines output for list_pages tool
type ListPagesOutput struct {
	Pages []PageSummary `json:"pages"`
	Count int           `json:"count"`
}

// ListPages returns every documentation page with per-category entry counts
func ListPages(ctx context.Context, req *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	corpus, err := currentCorpus()
	if err != nil {
		return nil, ListPagesOutput{}, err
	}

	groups := searchindex.GroupByPage(corpus)
	pages := make([]PageSummary, 0, len(groups))
	for _, g := range groups {
		pages = append(pages, PageSummary{
			Page:    g.Page,
			Path:    g.Path,
			URL:     indexing.BuildURL(settings.Docs.BaseURL, g.Path),
			Entries: len(g.Entries),
			Counts:  g.Counts(),
		})
	}

	return nil, ListPagesOutput{
		Pages: pages,
		Count: len(pages),
	}, nil
}

// GetPageInput defines input for get_page tool
type GetPageInput struct {
	Page string `json:"page" jsonschema:"Exact page name as returned by list_pages"`
}

// GetPageOutput defines output for get_page tool
type GetPageOutput struct {
	Page    string                    `json:"page"`
	Path    string                    `json:"path"`
	URL     string                    `json:"url,omitempty"`
	Entries []searchindex.SearchEntry `json:"entries"`
	Count   int                       `json:"count"`
}

// GetPage returns every fragment of one page in generation order
func GetPage(ctx context.Context, req *mcp.CallToolRequest, input GetPageInput) (*mcp.CallToolResult, GetPageOutput, error) {
	corpus, err := currentCorpus()
	if err != nil {
		return nil, GetPageOutput{}, err
	}

	group, ok := searchindex.FindPage(corpus, input.Page)
	if !ok {
		return nil, GetPageOutput{}, fmt.Errorf("page '%s' not found (use list_pages to see available pages)", input.Page)
	}

	return nil, GetPageOutput{
		Page:    group.Page,
		Path:    group.Path,
		URL:     indexing.BuildURL(settings.Docs.BaseURL, group.Path),
		Entries: group.Entries,
		Count:   len(group.Entries),
	}, nil
}

// SymbolMatch is one docstring of a code symbol
type SymbolMatch struct {
	Title     string               `json:"title"`
	Module    string               `json:"module,omitempty"`
	Symbol    string               `json:"symbol"`
	Category  searchindex.Category `json:"category"`
	Page      string               `json:"page"`
	Location  string               `json:"location"`
	URL       string               `json:"url,omitempty"`
	Signature string               `json:"signature,omitempty"`
	Text      string               `json:"text"`
}

// LookupSymbolInput defines input for lookup_symbol tool
type LookupSymbolInput struct {
	Name string `json:"name" jsonschema:"Symbol name, qualified (Module.name) or unqualified"`
}

// LookupSymbolOutput defines output for lookup_symbol tool
type LookupSymbolOutput struct {
	Name        string        `json:"name"`
	Matches     []SymbolMatch `json:"matches"`
	Count       int           `json:"count"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

func symbolMatch(e searchindex.SearchEntry) SymbolMatch {
	module, symbol := searchindex.SplitSymbol(e.Title)
	return SymbolMatch{
		Title:     e.Title,
		Module:    module,
		Symbol:    symbol,
		Category:  e.Category,
		Page:      e.Page,
		Location:  e.Location,
		URL:       indexing.BuildURL(settings.Docs.BaseURL, e.Location),
		Signature: indexing.ExtractSignature(e.Text),
		Text:      e.Text,
	}
}

// LookupSymbol returns the docstrings of functions, types and methods with
// the given name. When nothing matches exactly, similar symbol titles are
// suggested.
func LookupSymbol(ctx context.Context, req *mcp.CallToolRequest, input LookupSymbolInput) (*mcp.CallToolResult, LookupSymbolOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, LookupSymbolOutput{}, fmt.Errorf("name must not be empty")
	}

	corpus, err := currentCorpus()
	if err != nil {
		return nil, LookupSymbolOutput{}, err
	}

	entries := searchindex.Symbols(corpus, name)
	matches := make([]SymbolMatch, 0, len(entries))
	for _, e := range entries {
		matches = append(matches, symbolMatch(e))
	}

	output := LookupSymbolOutput{
		Name:    name,
		Matches: matches,
		Count:   len(matches),
	}

	if len(matches) == 0 {
		similar := searchindex.Search(corpus, name, searchindex.SearchOptions{
			Categories: []searchindex.Category{
				searchindex.CategoryFunction,
				searchindex.CategoryType,
				searchindex.CategoryMethod,
			},
			Limit: maxSymbolSuggestions,
		})
		for _, m := range similar {
			output.Suggestions = append(output.Suggestions, m.Entry.Title)
		}
	}

	return nil, output, nil
}

// RegisterPageTools registers list_pages, get_page and lookup_symbol
func RegisterPageTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_pages",
			Description: "List all documentation pages with their path and the number of page, section, function, type and method entries on each.",
		},
		ListPages,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_page",
			Description: "Get every indexed fragment of one documentation page, in document order.",
		},
		GetPage,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "lookup_symbol",
			Description: "Look up the docstring of a function, type or method by name (e.g. 'Destabilisation.Y' or 'Y'). Suggests similar symbols when there is no exact match.",
		},
		LookupSymbol,
	)
}
