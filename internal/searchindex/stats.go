package searchindex

// IndexStats summarizes an index
type IndexStats struct {
	Entries    int              `json:"entries" yaml:"entries"`
	Pages      int              `json:"pages" yaml:"pages"`
	Symbols    int              `json:"symbols" yaml:"symbols"`
	ByCategory map[Category]int `json:"by_category" yaml:"by_category"`
}

// Stats counts entries, pages, and entries per category
func Stats(idx *Index) IndexStats {
	stats := IndexStats{ByCategory: make(map[Category]int)}
	if idx == nil {
		return stats
	}

	pages := make(map[string]struct{})
	for _, e := range idx.Docs {
		stats.Entries++
		stats.ByCategory[e.Category]++
		if e.Category.IsSymbol() {
			stats.Symbols++
		}
		pages[e.Page] = struct{}{}
	}
	stats.Pages = len(pages)
	return stats
}
