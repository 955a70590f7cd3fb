package searchindex

import "strings"

// Category classifies the kind of documentable entity an entry describes
type Category string

const (
	CategoryPage     Category = "page"
	CategorySection  Category = "section"
	CategoryFunction Category = "function"
	CategoryType     Category = "type"
	CategoryMethod   Category = "method"
)

// Categories lists every known category in display order
var Categories = []Category{
	CategoryPage,
	CategorySection,
	CategoryFunction,
	CategoryType,
	CategoryMethod,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsSymbol reports whether entries of this category document a code symbol
func (c Category) IsSymbol() bool {
	return c == CategoryFunction || c == CategoryType || c == CategoryMethod
}

// SearchEntry is one indexed documentation fragment
type SearchEntry struct {
	Location string   `json:"location" yaml:"location"`
	Page     string   `json:"page" yaml:"page"`
	Title    string   `json:"title" yaml:"title"`
	Text     string   `json:"text" yaml:"text"`
	Category Category `json:"category" yaml:"category"`
}

// Path returns the location without its anchor
func (e SearchEntry) Path() string {
	path, _ := SplitLocation(e.Location)
	return path
}

// Anchor returns the location anchor, or "" for un-anchored fragments
func (e SearchEntry) Anchor() string {
	_, anchor := SplitLocation(e.Location)
	return anchor
}

// Index is the complete search index produced by one documentation build
type Index struct {
	Docs []SearchEntry `json:"docs" yaml:"docs"`
}

// Len returns the number of entries
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Docs)
}

// SplitLocation splits "matrices/#Destabilisation.Y" into "matrices/" and
// "Destabilisation.Y"
func SplitLocation(location string) (path, anchor string) {
	if i := strings.IndexByte(location, '#'); i >= 0 {
		return location[:i], location[i+1:]
	}
	return location, ""
}

// SplitSymbol splits a qualified symbol title such as "Destabilisation.slice_traj"
// into its module and unqualified name. Titles without a module qualifier
// return an empty module.
func SplitSymbol(title string) (module, name string) {
	title = strings.TrimSpace(title)
	i := strings.LastIndexByte(title, '.')
	// Operators such as "Base.:+" or a trailing dot are not qualified names
	if i <= 0 || i == len(title)-1 {
		return "", title
	}
	return title[:i], title[i+1:]
}
