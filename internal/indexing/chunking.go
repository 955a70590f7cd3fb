package indexing

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ForceSplitText splits text by character count at word boundaries.
// Consecutive parts share overlapChars of text.
func ForceSplitText(text string, maxChars, overlapChars int) []string {
	var parts []string

	for len(text) > 0 {
		chunkSize := maxChars
		if len(text) < chunkSize {
			chunkSize = len(text)
		}

		if chunkSize < len(text) {
			// Try to break at word boundary
			for i := chunkSize; i > chunkSize-100 && i > 0; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					chunkSize = i
					break
				}
			}
			// Never cut inside a multi-byte rune
			for chunkSize > 0 && !utf8.RuneStart(text[chunkSize]) {
				chunkSize--
			}
			if chunkSize == 0 {
				_, chunkSize = utf8.DecodeRuneInString(text)
			}
		}

		parts = append(parts, text[:chunkSize])

		// Move forward with overlap
		next := chunkSize
		if chunkSize+overlapChars < len(text) && chunkSize > overlapChars {
			next = chunkSize - overlapChars
			for next > 0 && !utf8.RuneStart(text[next]) {
				next--
			}
			if next == 0 {
				next = chunkSize
			}
		}
		text = text[next:]
	}

	return parts
}

// SubdivideDocument splits an oversized document into parts of roughly
// TargetChunkTokens on paragraph boundaries. Every returned document has its
// metadata enriched.
func SubdivideDocument(doc Document) []Document {
	if EstimateTokens(doc.Content) <= MaxChunkTokens {
		EnrichMetadata(&doc)
		return []Document{doc}
	}

	maxChars := MaxChunkTokens * CharsPerToken
	overlapChars := OverlapTokens * CharsPerToken

	var contents []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			contents = append(contents, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(doc.Content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A single paragraph over the limit is force-split on its own
		if EstimateTokens(para) > MaxChunkTokens {
			flush()
			contents = append(contents, ForceSplitText(para, maxChars, overlapChars)...)
			continue
		}

		if current.Len() > 0 && EstimateTokens(current.String())+EstimateTokens(para) > TargetChunkTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	parts := make([]Document, 0, len(contents))
	for i, content := range contents {
		// Carry the tail of the previous part for context
		if i > 0 {
			prev := contents[i-1]
			if len(prev) > overlapChars && !strings.HasPrefix(content, prev[len(prev)-overlapChars:]) {
				tail := prev[len(prev)-overlapChars:]
				for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
					tail = tail[1:]
				}
				content = tail + "\n\n" + content
			}
		}

		part := doc
		part.ID = fmt.Sprintf("%s_part%d", doc.ID, i+1)
		part.Part = i + 1
		part.Content = content
		if i > 0 {
			part.Title = fmt.Sprintf("%s (part %d)", doc.Title, i+1)
		}
		EnrichMetadata(&part)
		parts = append(parts, part)
	}

	return parts
}
