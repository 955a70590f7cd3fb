package searchindex

import "fmt"

// Issue is a structural problem the schema cannot express
type Issue struct {
	Index   int    `json:"index" yaml:"index"` // position in docs
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// Check reports structural problems in a decoded index:
//   - unknown categories (only reachable when Parse accepted a non-validated file)
//   - entries without a page name
//   - anchored section locations that occur more than once
//
// Un-anchored page fragments share their page location by construction and
// are not reported.
func Check(idx *Index) []Issue {
	issues := []Issue{}
	if idx == nil {
		return issues
	}

	seen := make(map[string]int)
	for i, e := range idx.Docs {
		if !e.Category.Valid() {
			issues = append(issues, Issue{
				Index:   i,
				Field:   "category",
				Message: fmt.Sprintf("unknown category %q", e.Category),
			})
		}
		if e.Page == "" {
			issues = append(issues, Issue{
				Index:   i,
				Field:   "page",
				Message: "empty page name",
			})
		}

		if e.Category != CategorySection || e.Anchor() == "" {
			continue
		}
		if first, dup := seen[e.Location]; dup {
			issues = append(issues, Issue{
				Index:   i,
				Field:   "location",
				Message: fmt.Sprintf("section location %q already used by entry %d", e.Location, first),
			})
			continue
		}
		seen[e.Location] = i
	}
	return issues
}
