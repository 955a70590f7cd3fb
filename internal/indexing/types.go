package indexing

// Document is one searchable unit in the bleve index. Each search index
// entry becomes one Document, or several when its text is oversized.
type Document struct {
	ID         string   `json:"id"`
	Position   int      `json:"position"` // index of the source entry in docs
	Location   string   `json:"location"`
	URL        string   `json:"url,omitempty"`
	Page       string   `json:"page"`
	Section    string   `json:"section,omitempty"` // nearest preceding section title on the page
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Module     string   `json:"module,omitempty"`    // "Destabilisation" for "Destabilisation.Y"
	Symbol     string   `json:"symbol,omitempty"`    // unqualified symbol name
	Signature  string   `json:"signature,omitempty"` // first docstring line of a symbol
	Content    string   `json:"content"`
	Breadcrumb string   `json:"breadcrumb,omitempty"`  // Full hierarchy: "Page > Section > Title"
	Keywords   []string `json:"keywords,omitempty"`    // Key terms extracted from content
	TokenCount int      `json:"token_count,omitempty"` // Estimated token count for monitoring
	Part       int      `json:"part,omitempty"`        // 1-based part number of a subdivided entry
}
