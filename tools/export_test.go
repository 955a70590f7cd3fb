package tools

import (
	"context"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

func TestExportSearchIndex(t *testing.T) {
	corpus, original := loadTestCorpus(t)
	useCorpus(t, corpus)

	t.Run("js reproduces the source file", func(t *testing.T) {
		_, output, err := ExportSearchIndex(context.Background(), nil, ExportSearchIndexInput{})
		if err != nil {
			t.Fatalf("ExportSearchIndex failed: %v", err)
		}
		if output.Format != "js" {
			t.Errorf("Format = %q, want js", output.Format)
		}
		if output.Entries != 30 {
			t.Errorf("Entries = %d, want 30", output.Entries)
		}
		if output.Content != string(original) {
			t.Error("js export differs from the bundled search_index.js")
		}
	})

	t.Run("json is equivalent", func(t *testing.T) {
		_, output, err := ExportSearchIndex(context.Background(), nil, ExportSearchIndexInput{Format: "JSON"})
		if err != nil {
			t.Fatalf("ExportSearchIndex failed: %v", err)
		}
		if output.Format != "json" {
			t.Errorf("Format = %q, want json", output.Format)
		}

		back, err := searchindex.Parse([]byte(output.Content))
		if err != nil {
			t.Fatalf("exported JSON does not parse: %v", err)
		}
		if !searchindex.Equivalent(corpus, back) {
			t.Error("exported JSON is not equivalent to the loaded index")
		}
	})

	t.Run("single page", func(t *testing.T) {
		_, output, err := ExportSearchIndex(context.Background(), nil, ExportSearchIndexInput{Page: "Format Test"})
		if err != nil {
			t.Fatalf("ExportSearchIndex failed: %v", err)
		}
		if output.Entries != 6 || output.Page != "Format Test" {
			t.Fatalf("got %d entries for page %q, want 6", output.Entries, output.Page)
		}

		back, err := searchindex.Parse([]byte(output.Content))
		if err != nil {
			t.Fatalf("exported page does not parse: %v", err)
		}
		for _, e := range back.Docs {
			if e.Page != "Format Test" {
				t.Errorf("entry from page %q in page export", e.Page)
			}
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, _, err := ExportSearchIndex(context.Background(), nil, ExportSearchIndexInput{Format: "xml"}); err == nil {
			t.Error("expected error for unknown format")
		}
		if _, _, err := ExportSearchIndex(context.Background(), nil, ExportSearchIndexInput{Page: "Nowhere"}); err == nil {
			t.Error("expected error for unknown page")
		}
	})
}
