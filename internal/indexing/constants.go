package indexing

// Chunking strategy constants
const (
	// TargetChunkTokens is the optimal part size when an entry is subdivided (~2000 chars)
	TargetChunkTokens = 500

	// MaxChunkTokens is the maximum before subdividing (~3200 chars)
	MaxChunkTokens = 800

	// OverlapTokens is the overlap between consecutive parts (~400 chars)
	OverlapTokens = 100

	// CharsPerToken is the approximation for token estimation
	CharsPerToken = 4

	// BatchSize is the number of documents submitted per bleve batch
	BatchSize = 100

	// IndexSchemaVersion increments when the document layout or mapping changes
	// v1: one document per entry, keyword-analyzed filter fields
	IndexSchemaVersion = 1
)
