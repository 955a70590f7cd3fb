package searchindex

// Equivalent reports whether a and b hold the same entries, field for field,
// regardless of order. Duplicate entries must occur equally often.
func Equivalent(a, b *Index) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}

	counts := make(map[SearchEntry]int, len(a.Docs))
	for _, e := range a.Docs {
		counts[e]++
	}
	for _, e := range b.Docs {
		n := counts[e]
		if n == 0 {
			return false
		}
		counts[e] = n - 1
	}
	return true
}
