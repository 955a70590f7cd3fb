package tools

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docsearch/searchindex-mcp/internal/cache"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

// BuildReport summarizes an offline index build
type BuildReport struct {
	Stats     searchindex.IndexStats
	Issues    []searchindex.Issue
	Documents int
	AvgTokens int
	Oversized int
	IndexPath string
	SHA256    string
}

// BuildIndex indexes a search_index.js into the configured data directory
// without opening it for search. It writes the same layout the server
// produces (bleve index, schema version, source hash, cached source), so
// InitializeDocSearch reuses the index instead of rebuilding it.
func BuildIndex(data []byte, origin string, progress func(done, total int)) (BuildReport, error) {
	corpus, err := searchindex.Parse(data)
	if err != nil {
		return BuildReport{}, err
	}

	if err := acquireLock(); err != nil {
		return BuildReport{}, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	defer releaseLock()

	docs := indexing.BuildDocuments(corpus, settings.Docs.BaseURL)
	report := BuildReport{
		Stats:     searchindex.Stats(corpus),
		Issues:    searchindex.Check(corpus),
		Documents: len(docs),
		AvgTokens: indexing.AverageTokens(docs),
		Oversized: indexing.CountOversized(docs),
		IndexPath: filepath.Join(dataDir, indexDir),
		SHA256:    cache.Hash(data),
	}

	tempIndexPath := report.IndexPath + ".tmp"
	if err := indexing.WriteIndex(tempIndexPath, docs, progress); err != nil {
		return BuildReport{}, err
	}
	if err := os.RemoveAll(report.IndexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return BuildReport{}, fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, report.IndexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return BuildReport{}, fmt.Errorf("failed to rename temp index: %w", err)
	}

	writeIndexMarkers(dataDir, report.SHA256)

	if _, err := sourceCache().Write(data, origin, corpus.Len()); err != nil {
		return BuildReport{}, fmt.Errorf("failed to cache search index: %w", err)
	}
	return report, nil
}
