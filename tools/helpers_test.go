package tools

import (
	"os"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

// loadTestCorpus parses the bundled search_index.js
func loadTestCorpus(t *testing.T) (*searchindex.Index, []byte) {
	t.Helper()
	data, err := os.ReadFile(embeddedSource)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", embeddedSource, err)
	}
	idx, err := searchindex.Parse(data)
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", embeddedSource, err)
	}
	return idx, data
}

// useCorpus installs corpus as the loaded search index without building a
// bleve index
func useCorpus(t *testing.T, corpus *searchindex.Index) {
	t.Helper()
	oldMgr, oldSettings := indexMgr, settings

	indexMgr = &indexHolder{}
	indexMgr.corpus.Store(corpus)
	settings = config.WithDataDir(t.TempDir())
	settings.Docs.BaseURL = "https://example.github.io/Destabilisation.jl/dev"

	t.Cleanup(func() {
		indexMgr, settings = oldMgr, oldSettings
	})
}

// setupDocSearch points the package at a fresh data directory and resets the
// index holder. The index is closed and the lock released on cleanup.
func setupDocSearch(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	oldDir, oldSettings, oldMgr := dataDir, settings, indexMgr

	cfg := config.WithDataDir(dir)
	settings = cfg
	dataDir = dir
	indexMgr = &indexHolder{}

	t.Cleanup(func() {
		if err := CloseDocSearch(); err != nil {
			t.Errorf("CloseDocSearch failed: %v", err)
		}
		dataDir, settings, indexMgr = oldDir, oldSettings, oldMgr
	})
	return cfg
}
