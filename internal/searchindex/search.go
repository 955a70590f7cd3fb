package searchindex

import (
	"strings"

	"golang.org/x/text/cases"
)

// SearchOptions narrows a substring search
type SearchOptions struct {
	Categories []Category // empty means all
	Page       string     // exact page name, empty means all
	Limit      int        // 0 means unlimited
}

// Match is one entry found by Search. Index is the entry's position in the
// searched index; InTitle is set when every query token occurs in the title.
type Match struct {
	Entry   SearchEntry `json:"entry" yaml:"entry"`
	Index   int         `json:"index" yaml:"index"`
	InTitle bool        `json:"in_title" yaml:"in_title"`
}

// Search finds entries whose title or text contains every whitespace
// separated token of query, compared after Unicode case folding. Title
// matches sort before text-only matches; otherwise index order is kept.
func Search(idx *Index, query string, opts SearchOptions) []Match {
	fold := cases.Fold()
	tokens := tokenize(fold.String(query))
	if idx == nil || len(tokens) == 0 {
		return []Match{}
	}

	var titleHits, textHits []Match
	for i, e := range idx.Docs {
		if opts.Page != "" && e.Page != opts.Page {
			continue
		}
		if !categoryAllowed(e.Category, opts.Categories) {
			continue
		}

		title := fold.String(e.Title)
		blob := title + "\n" + fold.String(e.Text)
		if !containsAll(blob, tokens) {
			continue
		}

		m := Match{Entry: e, Index: i, InTitle: containsAll(title, tokens)}
		if m.InTitle {
			titleHits = append(titleHits, m)
		} else {
			textHits = append(textHits, m)
		}
	}

	out := append(titleHits, textHits...)
	if out == nil {
		out = []Match{}
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func categoryAllowed(c Category, allowed []Category) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == c {
			return true
		}
	}
	return false
}

func containsAll(s string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(s, tok) {
			return false
		}
	}
	return true
}

func tokenize(q string) []string {
	return strings.Fields(strings.TrimSpace(q))
}
