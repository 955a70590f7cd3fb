package searchindex

// PageGroup holds every fragment of one documentation page, in generation order
type PageGroup struct {
	Page    string        `json:"page" yaml:"page"`
	Path    string        `json:"path" yaml:"path"` // location of the page itself, without anchor
	Entries []SearchEntry `json:"entries" yaml:"entries"`
}

// Counts returns the number of entries per category in the group
func (g PageGroup) Counts() map[Category]int {
	counts := make(map[Category]int)
	for _, e := range g.Entries {
		counts[e.Category]++
	}
	return counts
}

// GroupByPage groups entries by their page value. Pages appear in the order
// of their first entry and entries keep their relative order, so
// concatenating the groups' entries is a permutation of idx.Docs.
func GroupByPage(idx *Index) []PageGroup {
	if idx == nil {
		return nil
	}

	positions := make(map[string]int)
	var groups []PageGroup
	for _, e := range idx.Docs {
		pos, ok := positions[e.Page]
		if !ok {
			pos = len(groups)
			positions[e.Page] = pos
			groups = append(groups, PageGroup{Page: e.Page, Path: e.Path()})
		}
		groups[pos].Entries = append(groups[pos].Entries, e)
	}
	return groups
}

// FindPage returns the group for the named page
func FindPage(idx *Index, page string) (PageGroup, bool) {
	group := PageGroup{Page: page}
	if idx == nil {
		return group, false
	}
	found := false
	for _, e := range idx.Docs {
		if e.Page != page {
			continue
		}
		if !found {
			group.Path = e.Path()
			found = true
		}
		group.Entries = append(group.Entries, e)
	}
	return group, found
}

// Symbols returns the entries documenting code symbols whose qualified
// title or unqualified name equals name
func Symbols(idx *Index, name string) []SearchEntry {
	if idx == nil {
		return nil
	}
	var out []SearchEntry
	for _, e := range idx.Docs {
		if !e.Category.IsSymbol() {
			continue
		}
		_, short := SplitSymbol(e.Title)
		if e.Title == name || short == name {
			out = append(out, e)
		}
	}
	return out
}
