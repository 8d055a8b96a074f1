package extract

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// VisibleText extracts text nodes from HTML, skipping scripts and styles
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
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

		if n.Type == html.ElementNode && isBlock(n.Data) && buf.Len() > 0 {
			buf.WriteString("\n\n")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return Normalize(buf.String()), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "section", "article":
		return true
	}
	return false
}

// LooksLikeHTML reports whether text appears to be an HTML document or fragment
func LooksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 512 {
		head = head[:512]
	}
	for _, marker := range []string{"<!doctype html", "<html", "<body", "<p>", "<div", "<br"} {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

// Normalize trims trailing spaces from lines and collapses runs of blank lines
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Paragraphs splits text on blank lines
func Paragraphs(text string) []string {
	var paragraphs []string
	for _, block := range strings.Split(Normalize(text), "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}

// LocateParagraph returns the 1-based paragraph containing statement.
// Matching ignores case and whitespace differences.
func LocateParagraph(text, statement string) (int, bool) {
	needle := fold(statement)
	if len(needle) < 10 {
		return 0, false
	}

	for i, p := range Paragraphs(text) {
		if strings.Contains(fold(p), needle) {
			return i + 1, true
		}
	}
	return 0, false
}

// fold lowercases and collapses whitespace
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CountSignificant counts non-whitespace runes
func CountSignificant(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Truncate returns at most n runes of text
func Truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
