package tools

import (
	"embed"
)

// The search index shipped with the binary. Used on first start and
// whenever no refreshed copy has been cached yet.
//
//go:embed data/search_index.js
var embeddedFS embed.FS

// embeddedSource is the path of the bundled search_index.js inside embeddedFS
const embeddedSource = "data/search_index.js"

// embeddedDataProvider implements DataProvider using embed.FS
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a DataProvider backed by the files compiled
// into the binary
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
