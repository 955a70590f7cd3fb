package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/docsearch/searchindex-mcp/internal/cache"
	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	indexDir          = "search/index"
	lockFile          = "search/index.lock"
	indexVersionFile  = "search/.index_version"
	indexSourceFile   = "search/.index_source" // sha256 of the source the index was built from
	maxSourceBytes    = 64 << 20
	downloadUserAgent = "searchindex-mcp"
)

var (
	// ErrNoSource is returned by a refresh when neither source.url nor
	// source.file is configured
	ErrNoSource = errors.New("no search index source configured (set source.url or source.file)")

	// ErrIndexUnavailable is returned when neither a cached nor the embedded
	// search index can be loaded
	ErrIndexUnavailable = errors.New("documentation index unavailable")
)

var (
	dataDir    = filepath.Join(".", "data")
	settings   = config.WithDataDir(dataDir)
	httpClient = &http.Client{Timeout: 60 * time.Second}
)

// Configure points the documentation tools at cfg. Call before
// RegisterDocSearchTools.
func Configure(cfg *config.Config) {
	settings = cfg
	dataDir = cfg.DataDir
	log.Printf("✓ Data directory: %s", dataDir)
}

func sourceCache() *cache.Store {
	return cache.New(dataDir)
}

// SearchResult is one bleve hit mapped back to its document
type SearchResult struct {
	Document indexing.Document `json:"document"`
	Score    float64           `json:"score"`
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Search query, e.g. a symbol name or words from the documentation"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, at most 20)"`
	Category   string `json:"category,omitempty" jsonschema:"Only return entries of this kind: page, section, function, type or method (optional)"`
	Page       string `json:"page,omitempty" jsonschema:"Only return entries from the page with this exact name (optional)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results    []SearchResult `json:"results"`
	Query      string         `json:"query"`
	TotalHits  int            `json:"total_hits"`
	SourceURLs []string       `json:"source_urls"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Re-fetch and re-index even if the cache is fresh or the content is unchanged (optional, defaults to false)"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated          bool      `json:"updated"`
	LastUpdate       time.Time `json:"last_update"`
	SHA256           string    `json:"sha256,omitempty"`
	EntriesIndexed   int       `json:"entries_indexed"`
	DocumentsIndexed int       `json:"documents_indexed"`
	Message          string    `json:"message"`
}

// indexHolder manages concurrent access to the bleve index and the parsed
// search index it was built from
type indexHolder struct {
	// current holds the active index (lock-free reads)
	current atomic.Pointer[Index]

	// corpus is the decoded search_index.js behind current
	corpus atomic.Pointer[searchindex.Index]

	// refreshMu serializes refreshes; searches never take it
	refreshMu sync.Mutex

	// wg tracks in-flight searches so a swapped-out index is closed only
	// after they finish
	wg sync.WaitGroup

	// closing tracks background closes of swapped-out indexes
	closing sync.WaitGroup
}

var indexMgr = &indexHolder{}

// InitializeDocSearch loads the search index source and opens (or builds)
// the bleve index.
// Priority: cached source (last refresh) > embedded source (build time)
func InitializeDocSearch() error {
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()
	return initializeDocSearch()
}

// ensureDocSearch initializes on first use. Concurrent callers wait for a
// single initialization.
func ensureDocSearch() error {
	holder := indexMgr
	if holder.current.Load() != nil && holder.corpus.Load() != nil {
		return nil
	}

	holder.refreshMu.Lock()
	defer holder.refreshMu.Unlock()
	if holder.current.Load() != nil && holder.corpus.Load() != nil {
		return nil
	}

	log.Printf("Doc index not initialized, initializing now...")
	return initializeDocSearch()
}

// initializeDocSearch does the work of InitializeDocSearch. Callers hold
// indexMgr.refreshMu.
func initializeDocSearch() error {
	startTime := time.Now()
	log.Printf("Initializing documentation search...")

	lockStart := time.Now()
	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}
	log.Printf("Lock acquired in %v", time.Since(lockStart).Round(time.Millisecond))

	corpus, hash, origin, err := loadCorpus()
	if err != nil {
		return err
	}
	indexMgr.corpus.Store(corpus)
	log.Printf("✓ Loaded %d search index entries (%s)", corpus.Len(), origin)

	indexPath := filepath.Join(dataDir, indexDir)

	// Reuse the local index when it has the current schema and was built
	// from the same source
	if _, err := os.Stat(indexPath); err == nil {
		version := indexing.ReadVersionFile(filepath.Join(dataDir, indexVersionFile))
		builtFrom := readIndexSource()

		switch {
		case version != indexing.IndexSchemaVersion:
			log.Printf("Index schema version mismatch (have: v%d, want: v%d), rebuilding...",
				version, indexing.IndexSchemaVersion)
		case builtFrom != hash:
			log.Printf("Index was built from a different source, rebuilding...")
		default:
			index, err := bleve.Open(indexPath)
			if err == nil {
				wrapped := NewBleveIndexWrapper(index)
				indexMgr.current.Store(&wrapped)
				count, _ := wrapped.DocCount()
				log.Printf("✓ Documentation search initialized (%d docs, local index v%d) in %v",
					count, indexing.IndexSchemaVersion, time.Since(startTime).Round(time.Millisecond))

				if settings.HasSource() && needsRefresh() {
					log.Printf("ℹ️  Cached documentation is older than %v. Consider using refresh_documentation_index to update.", settings.Cache.TTL)
				}
				return nil
			}
			log.Printf("Warning: Local index corrupted (%v), rebuilding...", err)
		}
	}

	if err := rebuildIndex(corpus, hash); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	log.Printf("✓ Documentation search initialized (%d entries, %s source) in %v",
		corpus.Len(), origin, time.Since(startTime).Round(time.Millisecond))
	if origin == "embedded" {
		log.Printf("ℹ️  Using embedded search index (build-time). Use refresh_documentation_index to get the latest.")
	}
	return nil
}

// loadCorpus returns the cached source if it parses, otherwise the embedded
// one. The embedded copy is written to the cache on first use.
func loadCorpus() (*searchindex.Index, string, string, error) {
	store := sourceCache()

	type candidate struct {
		origin string
		data   []byte
	}
	var candidates []candidate

	if data, err := store.Read(); err == nil {
		candidates = append(candidates, candidate{"cache", data})
	} else if !errors.Is(err, cache.ErrNoCache) {
		log.Printf("Warning: Cached search index unreadable: %v", err)
	}

	if data, err := defaultDataProvider.ReadFile(embeddedSource); err == nil {
		candidates = append(candidates, candidate{"embedded", data})
	} else {
		log.Printf("Warning: Embedded search index unavailable: %v", err)
	}

	for _, c := range candidates {
		corpus, err := searchindex.Parse(c.data)
		if err != nil {
			log.Printf("Warning: %s search index is invalid: %v", c.origin, err)
			continue
		}

		if c.origin == "embedded" {
			if _, err := store.Write(c.data, c.origin, corpus.Len()); err != nil {
				log.Printf("Warning: Failed to cache embedded search index: %v", err)
			}
		}
		return corpus, cache.Hash(c.data), c.origin, nil
	}

	return nil, "", "", ErrIndexUnavailable
}

func readIndexSource() string {
	data, err := os.ReadFile(filepath.Join(dataDir, indexSourceFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// configuredSource names the source a refresh reads, as recorded in the
// cache metadata
func configuredSource() string {
	if settings.Source.URL != "" {
		return settings.Source.URL
	}
	return settings.Source.File
}

// needsRefresh reports whether the cached source is missing, older than
// cache.ttl, or was not fetched from the configured source (e.g. the
// embedded copy seeded on first start)
func needsRefresh() bool {
	store := sourceCache()
	if store.IsStale(settings.Cache.TTL) {
		return true
	}
	if !settings.HasSource() {
		return false
	}
	meta, err := store.Meta()
	return err != nil || meta.Source != configuredSource()
}

// fetchSource reads the configured search_index.js, from source.url when set,
// otherwise from source.file
func fetchSource(ctx context.Context) ([]byte, string, error) {
	switch {
	case settings.Source.URL != "":
		data, err := downloadSource(ctx, settings.Source.URL)
		return data, configuredSource(), err
	case settings.Source.File != "":
		data, err := os.ReadFile(settings.Source.File)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", settings.Source.File, err)
		}
		return data, configuredSource(), nil
	}
	return nil, "", ErrNoSource
}

func downloadSource(ctx context.Context, url string) ([]byte, error) {
	log.Printf("Downloading search index from %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("search index exceeds %d bytes", maxSourceBytes)
	}

	log.Printf("Downloaded %d bytes", len(data))
	return data, nil
}

// rebuildIndex indexes corpus into a temp directory, moves it into place,
// and swaps the active index pointer. The previous index is closed in the
// background once in-flight searches finish.
func rebuildIndex(corpus *searchindex.Index, hash string) error {
	startTime := time.Now()
	indexPath := filepath.Join(dataDir, indexDir)
	tempIndexPath := filepath.Join(dataDir, indexDir+".tmp")

	docs := indexing.BuildDocuments(corpus, settings.Docs.BaseURL)
	log.Printf("Built %d documents from %d entries (avg: %d tokens, %d over limit)",
		len(docs), corpus.Len(), indexing.AverageTokens(docs), indexing.CountOversized(docs))

	indexStart := time.Now()
	err := indexing.WriteIndex(tempIndexPath, docs, func(done, total int) {
		log.Printf("Indexed %d/%d documents...", done, total)
	})
	if err != nil {
		return err
	}
	log.Printf("Indexed %d documents in %v", len(docs), time.Since(indexStart).Round(time.Millisecond))

	// Filesystem swap
	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}

	finalIndex, err := bleve.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open new index: %w", err)
	}
	wrapped := NewBleveIndexWrapper(finalIndex)

	holder := indexMgr
	oldIndexPtr := holder.current.Swap(&wrapped)

	if oldIndexPtr != nil {
		holder.closing.Add(1)
		go func(old Index) {
			defer holder.closing.Done()

			waitStart := time.Now()
			holder.wg.Wait()

			if err := old.Close(); err != nil {
				log.Printf("Warning: Error closing old index: %v", err)
			} else {
				log.Printf("✓ Old index closed (waited %v for in-flight searches)",
					time.Since(waitStart).Round(time.Millisecond))
			}
		}(*oldIndexPtr)
	}

	writeIndexMarkers(dataDir, hash)

	log.Printf("✓ Index swap completed in %v, searches now using new index",
		time.Since(startTime).Round(time.Millisecond))
	return nil
}

// writeIndexMarkers records the schema version and the source hash an index
// under dir was built from. InitializeDocSearch reuses an index only when
// both match.
func writeIndexMarkers(dir, hash string) {
	if err := indexing.WriteVersionFile(filepath.Join(dir, indexVersionFile)); err != nil {
		log.Printf("Warning: Failed to write index version: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexSourceFile), []byte(hash), 0644); err != nil {
		log.Printf("Warning: Failed to record index source: %v", err)
	}
}

// refreshResult describes what a refresh did
type refreshResult struct {
	Updated   bool
	Meta      cache.Meta
	Entries   int
	Documents int
	Message   string
}

// refreshDocumentationIndex fetches the configured source and re-indexes it
// when it changed (or unconditionally when force is set)
func refreshDocumentationIndex(ctx context.Context, force bool) (refreshResult, error) {
	startTime := time.Now()

	if !settings.HasSource() {
		return refreshResult{}, ErrNoSource
	}

	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	// Another goroutine may have refreshed while we waited for the mutex
	if !force && !needsRefresh() {
		meta, _ := sourceCache().Meta()
		return refreshResult{
			Meta:    meta,
			Entries: meta.Entries,
			Message: fmt.Sprintf("Cache is fresh (last updated: %s)", meta.LastUpdate.Format(time.RFC3339)),
		}, nil
	}

	log.Printf("Starting documentation refresh (force=%v)...", force)

	if err := acquireLock(); err != nil {
		return refreshResult{}, fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	data, origin, err := fetchSource(ctx)
	if err != nil {
		return refreshResult{}, err
	}

	corpus, err := searchindex.Parse(data)
	if err != nil {
		return refreshResult{}, fmt.Errorf("fetched search index is invalid: %w", err)
	}

	store := sourceCache()
	if !force && store.Unchanged(data) && indexMgr.current.Load() != nil {
		meta, err := store.Touch(origin)
		if err != nil {
			return refreshResult{}, fmt.Errorf("failed to update cache metadata: %w", err)
		}
		log.Printf("Search index unchanged (sha256 %.12s), skipping re-index", meta.SHA256)
		return refreshResult{
			Meta:    meta,
			Entries: corpus.Len(),
			Message: "Search index unchanged since last refresh",
		}, nil
	}

	if err := rebuildIndex(corpus, cache.Hash(data)); err != nil {
		return refreshResult{}, fmt.Errorf("indexing failed: %w", err)
	}
	indexMgr.corpus.Store(corpus)

	meta, err := store.Write(data, origin, corpus.Len())
	if err != nil {
		log.Printf("Warning: Failed to cache search index: %v", err)
		meta = cache.Meta{SHA256: cache.Hash(data), Source: origin, Entries: corpus.Len(), LastUpdate: time.Now()}
	}

	documents := 0
	if indexPtr := indexMgr.current.Load(); indexPtr != nil {
		count, _ := (*indexPtr).DocCount()
		documents = int(count)
	}

	log.Printf("✓ Documentation refresh completed in %v", time.Since(startTime).Round(time.Millisecond))
	return refreshResult{
		Updated:   true,
		Meta:      meta,
		Entries:   corpus.Len(),
		Documents: documents,
		Message:   fmt.Sprintf("Documentation refreshed successfully, %d entries indexed", corpus.Len()),
	}, nil
}

// currentIndex returns the active bleve index, initializing on first use.
// Callers must hold indexMgr.wg.
func currentIndex() (Index, error) {
	if indexPtr := indexMgr.current.Load(); indexPtr != nil {
		return *indexPtr, nil
	}
	if err := ensureDocSearch(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if indexPtr := indexMgr.current.Load(); indexPtr != nil {
		return *indexPtr, nil
	}
	return nil, ErrIndexUnavailable
}

// currentCorpus returns the decoded search index behind the active index
func currentCorpus() (*searchindex.Index, error) {
	if corpus := indexMgr.corpus.Load(); corpus != nil {
		return corpus, nil
	}
	if err := ensureDocSearch(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if corpus := indexMgr.corpus.Load(); corpus != nil {
		return corpus, nil
	}
	return nil, ErrIndexUnavailable
}

// buildSearchQuery matches the query text against titles, symbol names,
// signatures and content, restricted by the optional category and page
func buildSearchQuery(input SearchDocumentationInput) (query.Query, error) {
	text := strings.TrimSpace(input.Query)
	if text == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetBoost(3)

	symbol := bleve.NewTermQuery(text)
	symbol.SetField("symbol")
	symbol.SetBoost(5)

	signature := bleve.NewMatchQuery(text)
	signature.SetField("signature")
	signature.SetBoost(2)

	content := bleve.NewMatchQuery(text)
	content.SetField("content")

	var q query.Query = bleve.NewDisjunctionQuery(title, symbol, signature, content)

	filters := []query.Query{q}
	if input.Category != "" {
		category := searchindex.Category(input.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("unknown category %q (want one of %v)", input.Category, searchindex.Categories)
		}
		tq := bleve.NewTermQuery(string(category))
		tq.SetField("category")
		filters = append(filters, tq)
	}
	if input.Page != "" {
		tq := bleve.NewTermQuery(input.Page)
		tq.SetField("page")
		filters = append(filters, tq)
	}

	if len(filters) > 1 {
		q = bleve.NewConjunctionQuery(filters...)
	}
	return q, nil
}

// resultLimit applies the configured default to out-of-range limits
func resultLimit(requested int) int {
	if requested <= 0 || requested > settings.Search.MaxResults {
		return settings.Search.DefaultResults
	}
	return requested
}

// documentFromFields rebuilds a Document from stored hit fields
func documentFromFields(id string, fields map[string]interface{}) indexing.Document {
	doc := indexing.Document{ID: id}

	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	num := func(name string) int {
		f, _ := fields[name].(float64)
		return int(f)
	}

	doc.Location = str("location")
	doc.URL = str("url")
	doc.Page = str("page")
	doc.Section = str("section")
	doc.Title = str("title")
	doc.Category = str("category")
	doc.Module = str("module")
	doc.Symbol = str("symbol")
	doc.Signature = str("signature")
	doc.Content = str("content")
	doc.Breadcrumb = str("breadcrumb")
	doc.Position = num("position")
	doc.TokenCount = num("token_count")
	doc.Part = num("part")

	// A single keyword comes back as a string, several as a slice
	switch kw := fields["keywords"].(type) {
	case string:
		doc.Keywords = []string{kw}
	case []interface{}:
		doc.Keywords = make([]string, 0, len(kw))
		for _, k := range kw {
			if s, ok := k.(string); ok {
				doc.Keywords = append(doc.Keywords, s)
			}
		}
	}

	return doc
}

// SearchDocumentation runs a full-text search over the documentation index
func SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	// Track in-flight searches for graceful cleanup (MUST be before Load)
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	q, err := buildSearchQuery(input)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	index, err := currentIndex()
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	search := bleve.NewSearchRequest(q)
	search.Size = resultLimit(input.MaxResults)
	search.Fields = []string{"*"}

	searchResults, err := index.Search(search)
	if err != nil {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResults.Hits))
	sourceURLs := []string{}
	seen := make(map[string]bool)
	for _, hit := range searchResults.Hits {
		doc := documentFromFields(hit.ID, hit.Fields)
		results = append(results, SearchResult{Document: doc, Score: hit.Score})

		if doc.URL != "" {
			page, _ := searchindex.SplitLocation(doc.URL)
			if !seen[page] {
				seen[page] = true
				sourceURLs = append(sourceURLs, page)
			}
		}
	}

	return nil, SearchDocumentationOutput{
		Results:    results,
		Query:      input.Query,
		TotalHits:  int(searchResults.Total),
		SourceURLs: sourceURLs,
	}, nil
}

// RefreshDocumentationIndex re-fetches and re-indexes the configured source
func RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	result, err := refreshDocumentationIndex(ctx, input.Force)
	if err != nil {
		return nil, RefreshDocumentationIndexOutput{}, fmt.Errorf("refresh failed: %w", err)
	}

	return nil, RefreshDocumentationIndexOutput{
		Updated:          result.Updated,
		LastUpdate:       result.Meta.LastUpdate,
		SHA256:           result.Meta.SHA256,
		EntriesIndexed:   result.Entries,
		DocumentsIndexed: result.Documents,
		Message:          result.Message,
	}, nil
}

// RegisterDocSearchTools registers search_documentation and
// refresh_documentation_index
func RegisterDocSearchTools(server *mcp.Server) error {
	if err := InitializeDocSearch(); err != nil {
		log.Printf("Warning: Documentation search initialization failed: %v", err)
		log.Printf("Documentation search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Full-text search over the package documentation (pages, sections, and docstrings of functions, types and methods). Filter by category or page. Returns the best matching entries with links.",
		},
		SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: fmt.Sprintf("Re-fetch the documentation search index from the configured source and re-index it if it changed (cache TTL: %v)", settings.Cache.TTL),
		},
		RefreshDocumentationIndex,
	)

	return nil
}

// CloseDocSearch closes the documentation index and releases the lock
func CloseDocSearch() error {
	var closeErr error

	if indexMgr != nil {
		indexPtr := indexMgr.current.Swap(nil)
		indexMgr.corpus.Store(nil)

		if indexPtr != nil {
			log.Printf("Waiting for in-flight searches to complete before closing...")
			indexMgr.wg.Wait()

			index := *indexPtr
			closeErr = index.Close()
			if closeErr != nil {
				log.Printf("Error closing doc index: %v", closeErr)
			} else {
				log.Printf("✓ Doc index closed successfully")
			}
		}
		indexMgr.closing.Wait()
	}

	// Always attempt to release the lock, even if close failed
	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
