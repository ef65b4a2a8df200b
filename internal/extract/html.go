// Package extract turns contract sources (plain text, HTML, PDF) into
// newline-delimited document text and describes its structure.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// skipped elements never contribute visible text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "head": true, "template": true, "svg": true,
}

// block elements end the current line
var block = map[string]bool{
	"p": true, "div": true, "li": true, "br": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "main": true,
	"ul": true, "ol": true, "table": true, "blockquote": true, "pre": true,
	"dt": true, "dd": true, "hr": true, "aside": true,
}

// HTMLDocument is the visible text of an HTML page
type HTMLDocument struct {
	Title string
	Text  string // one block per line
}

// HTMLText extracts visible text from HTML. Only the main content region is
// read when the page marks one (see mainContent). Each block element becomes
// its own line; whitespace inside a block is collapsed and blank lines dropped.
func HTMLText(htmlContent string) (*HTMLDocument, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var (
		lines   []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped[n.Data] {
				return
			}
			if block[n.Data] {
				flush()
				defer flush()
			}
		}

		if n.Type == html.TextNode {
			if words := strings.Fields(n.Data); len(words) > 0 {
				current = append(current, strings.Join(words, " "))
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(mainContent(doc))
	flush()

	return &HTMLDocument{
		Title: findTitle(doc),
		Text:  strings.Join(lines, "\n"),
	}, nil
}

// mainContent returns the first <main>, else the first <article> or
// role="main" element, else the whole document. Legal pages usually keep
// the agreement there and the site chrome outside.
func mainContent(doc *html.Node) *html.Node {
	if n := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "main"
	}); n != nil {
		return n
	}
	if n := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "article" || attr(n, "role") == "main")
	}); n != nil {
		return n
	}
	return doc
}

// findFirst returns the first node in document order matching predicate
func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findTitle returns the text of the first <title> element
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return strings.Join(strings.Fields(b.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// IsHTML reports whether a content type or leading bytes look like HTML
func IsHTML(contentType, body string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") || strings.Contains(head, "<body")
}
