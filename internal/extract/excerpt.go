package extract

import (
	"strings"
	"unicode/utf8"
)

// DefaultExcerptChars bounds the content sent to the oracle per document
const DefaultExcerptChars = 500

// Excerpt returns at most maxChars runes of the document's visible text with
// whitespace collapsed. A non-positive maxChars uses DefaultExcerptChars.
func Excerpt(content string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultExcerptChars
	}

	text := strings.Join(strings.Fields(VisibleText(content)), " ")
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	// Cut on a rune boundary
	count := 0
	for i := range text {
		if count == maxChars {
			return text[:i]
		}
		count++
	}
	return text
}

// Excerpts builds the name -> excerpt map for a set of documents.
// Later documents with a duplicate name do not overwrite earlier ones.
func Excerpts(names, contents []string, maxChars int) map[string]string {
	out := make(map[string]string, len(names))
	for i, name := range names {
		if _, seen := out[name]; seen {
			continue
		}
		content := ""
		if i < len(contents) {
			content = contents[i]
		}
		out[name] = Excerpt(content, maxChars)
	}
	return out
}
