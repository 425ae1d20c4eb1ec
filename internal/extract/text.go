package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns the human-readable text of parsed document content.
// Content exported as HTML (e-mail bodies, portal pages) is reduced to its
// text nodes; anything else is returned unchanged.
func VisibleText(content string) string {
	if !looksLikeHTML(content) {
		return content
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}
	return extractVisibleText(doc)
}

// looksLikeHTML reports whether content contains at least one element tag
func looksLikeHTML(content string) bool {
	if !strings.Contains(content, "<") {
		return false
	}

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}
