package indexing

import (
	"fmt"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

// DocumentID returns the bleve document ID of the entry at position
func DocumentID(position int) string {
	return fmt.Sprintf("entry_%d", position)
}

// BuildDocuments converts search index entries into bleve documents.
// Entries keep their order; oversized entries are subdivided.
func BuildDocuments(idx *searchindex.Index, baseURL string) []Document {
	if idx == nil {
		return nil
	}

	docs := make([]Document, 0, len(idx.Docs))
	sections := make(map[string]string) // page -> current section title

	for i, entry := range idx.Docs {
		if entry.Category == searchindex.CategorySection {
			sections[entry.Page] = entry.Title
		}

		doc := Document{
			ID:       DocumentID(i),
			Position: i,
			Location: entry.Location,
			URL:      BuildURL(baseURL, entry.Location),
			Page:     entry.Page,
			Section:  sections[entry.Page],
			Title:    entry.Title,
			Category: string(entry.Category),
			Content:  entry.Text,
		}

		if entry.Category.IsSymbol() {
			doc.Module, doc.Symbol = searchindex.SplitSymbol(entry.Title)
			doc.Signature = ExtractSignature(entry.Text)
		}

		docs = append(docs, SubdivideDocument(doc)...)
	}

	return docs
}

// AverageTokens calculates the average token count across documents
func AverageTokens(docs []Document) int {
	if len(docs) == 0 {
		return 0
	}
	total := 0
	for _, doc := range docs {
		total += doc.TokenCount
	}
	return total / len(docs)
}

// CountOversized counts documents that exceed the maximum token limit
func CountOversized(docs []Document) int {
	count := 0
	for _, doc := range docs {
		if doc.TokenCount > MaxChunkTokens {
			count++
		}
	}
	return count
}
