package indexing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "as": true, "by": true, "is": true,
	"it": true, "be": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "which": true, "has": true,
}

// EstimateTokens estimates the token count for a text string
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// ExtractKeywords extracts key terms from title and content, in order of
// first appearance
func ExtractKeywords(title, content string) []string {
	// Significant words from the title and the first 200 chars of content
	words := strings.Fields(strings.ToLower(title))

	contentPreview := content
	if len(content) > 200 {
		contentPreview = truncateAtRune(content, 200)
	}
	words = append(words, strings.Fields(strings.ToLower(contentPreview))...)

	seen := make(map[string]bool)
	keywords := make([]string, 0, 10)
	for _, word := range words {
		// Keep inner underscores and dots so "slice_traj" survives intact
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)

		if len(keywords) == 10 {
			break
		}
	}

	return keywords
}

// ExtractSignature returns the first non-empty line of a docstring, which
// Documenter renders as the call signature (or the type name)
func ExtractSignature(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// BuildURL joins the documentation base URL and an entry location.
// An empty base URL yields an empty URL.
func BuildURL(baseURL, location string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + location
}

// BuildBreadcrumb joins page, section and title, skipping repeated levels
// Example: "Matrices", "Matrices", "Destabilisation.Y" -> "Matrices > Destabilisation.Y"
func BuildBreadcrumb(page, section, title string) string {
	var parts []string
	for _, part := range []string{page, section, title} {
		if part == "" {
			continue
		}
		if len(parts) > 0 && parts[len(parts)-1] == part {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " > ")
}

// EnrichMetadata adds breadcrumb, keywords and token count to a document
func EnrichMetadata(doc *Document) {
	doc.Breadcrumb = BuildBreadcrumb(doc.Page, doc.Section, doc.Title)

	keywordTitle := doc.Title
	if doc.Symbol != "" {
		keywordTitle = doc.Symbol
	}
	doc.Keywords = ExtractKeywords(keywordTitle, doc.Content)

	doc.TokenCount = EstimateTokens(doc.Content)
}

// truncateAtRune cuts s to at most n bytes without splitting a UTF-8 sequence
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
