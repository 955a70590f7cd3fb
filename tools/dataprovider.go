package tools

// DataProvider gives access to bundled data files.
//
// Implementations:
//   - embeddedDataProvider: files compiled into the binary
//   - MockDataProvider: in-memory map for tests
type DataProvider interface {
	// ReadFile reads the named file, relative to the data root
	// (e.g. "data/search_index.js").
	ReadFile(name string) ([]byte, error)
}
