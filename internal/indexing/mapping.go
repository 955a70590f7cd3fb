package indexing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Fields analyzed as a single token so they can be used as exact filters
var keywordFields = []string{"id", "location", "url", "page", "category", "module", "symbol", "keywords"}

// NewIndexMapping returns the bleve mapping for Documents: exact-match
// filter fields, English stemming on prose, standard analysis on titles
func NewIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	for _, name := range keywordFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		doc.AddFieldMappingsAt(name, fm)
	}

	for _, name := range []string{"title", "section", "signature", "breadcrumb"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		doc.AddFieldMappingsAt(name, fm)
	}

	content := bleve.NewTextFieldMapping()
	content.Analyzer = en.AnalyzerName
	doc.AddFieldMappingsAt("content", content)

	for _, name := range []string{"position", "token_count", "part"} {
		doc.AddFieldMappingsAt(name, bleve.NewNumericFieldMapping())
	}

	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name
	im.DefaultMapping = doc
	return im
}

// IndexDocuments adds docs to index in batches of BatchSize. progress, when
// not nil, is called after every submitted batch.
func IndexDocuments(index bleve.Index, docs []Document, progress func(done, total int)) error {
	batch := index.NewBatch()

	for i, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to add document %s to batch: %w", doc.ID, err)
		}

		if (i+1)%BatchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
			if progress != nil {
				progress(i+1, len(docs))
			}
		}
	}

	// Submit remaining
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
		if progress != nil {
			progress(len(docs), len(docs))
		}
	}

	return nil
}

// WriteIndex creates a new on-disk index at path holding docs. Any existing
// directory at path is replaced. The index is closed on return.
func WriteIndex(path string, docs []Document, progress func(done, total int)) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.New(path, NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := IndexDocuments(index, docs, progress); err != nil {
		index.Close()
		os.RemoveAll(path)
		return err
	}

	if err := index.Close(); err != nil {
		os.RemoveAll(path)
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}

// WriteVersionFile records IndexSchemaVersion next to an index
func WriteVersionFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", IndexSchemaVersion)), 0644)
}

// ReadVersionFile reads the schema version written by WriteVersionFile.
// A missing or unreadable file is version 0.
func ReadVersionFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	version := 0
	fmt.Sscanf(string(data), "%d", &version)
	return version
}
