package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/tools"
	"github.com/spf13/cobra"
)

var baseURL string

var rootCmd = &cobra.Command{
	Use:   "indexer <search-index-file> <data-dir>",
	Short: "Build the bleve search index of a Documenter search_index.js into a server data directory",
	Example: `  indexer docs/build/search_index.js data
  indexer --base-url https://org.github.io/Pkg.jl/dev search_index.js ~/.local/share/searchindex-mcp`,
	Args: cobra.ExactArgs(2),
	Run:  runIndexer,
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "documentation site URL prepended to entry locations")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, args []string) {
	sourceFile := args[0]

	log.Printf("Documentation Indexer v%d", indexing.IndexSchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	cfg := config.WithDataDir(args[1])
	cfg.Docs.BaseURL = baseURL
	tools.Configure(cfg)

	// Step 1: Read the search index
	log.Printf("Reading search index: %s", sourceFile)
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		log.Fatalf("Failed to read search index: %v", err)
	}
	origin := sourceFile
	if abs, err := filepath.Abs(sourceFile); err == nil {
		origin = abs
	}

	// Step 2: Parse, index, and record the source
	report, err := tools.BuildIndex(data, origin, func(done, total int) {
		log.Printf("  Indexed %d/%d documents...", done, total)
	})
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}

	for _, issue := range report.Issues {
		log.Printf("Warning: docs[%d].%s: %s", issue.Index, issue.Field, issue.Message)
	}

	stats := report.Stats
	log.Printf("✓ Parsed %d entries on %d pages (%d symbols)", stats.Entries, stats.Pages, stats.Symbols)
	log.Printf("✓ Indexed %d documents (avg: %d tokens, %d oversized)", report.Documents, report.AvgTokens, report.Oversized)
	log.Printf("✓ Index schema version: v%d", indexing.IndexSchemaVersion)

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete!")
	log.Printf("")
	log.Printf("Index details:")
	log.Printf("  Location:        %s", report.IndexPath)
	log.Printf("  Total documents: %d", report.Documents)
	log.Printf("  Avg size:        %d tokens (~%d chars)", report.AvgTokens, report.AvgTokens*indexing.CharsPerToken)
	log.Printf("  Source sha256:   %.12s", report.SHA256)
	log.Printf("  Base URL:        %s", valueOrNone(baseURL))
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
