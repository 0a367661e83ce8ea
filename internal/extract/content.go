package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Page is readable content extracted from an HTML document
type Page struct {
	Title    string
	Markdown string
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "form": true, "button": true, "template": true,
}

var chromeElements = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
}

// MainText converts an HTML document to lightweight markdown. When onlyMain is set,
// navigation chrome is dropped and extraction is limited to <main> or <article> if present.
func MainText(htmlContent string, onlyMain bool) (Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return Page{}, fmt.Errorf("parse HTML: %w", err)
	}

	page := Page{Title: findTitle(doc)}

	root := doc
	if onlyMain {
		if n := findFirst(doc, "main"); n != nil {
			root = n
		} else if n := findFirst(doc, "article"); n != nil {
			root = n
		}
	}

	w := &blockWriter{}
	w.walk(root, onlyMain)
	page.Markdown = w.String()
	return page, nil
}

type blockWriter struct {
	blocks  []string
	current strings.Builder
	prefix  string
}

func (w *blockWriter) flush() {
	text := strings.Join(strings.Fields(w.current.String()), " ")
	if text != "" {
		w.blocks = append(w.blocks, w.prefix+text)
	}
	w.current.Reset()
	w.prefix = ""
}

func (w *blockWriter) walk(n *html.Node, onlyMain bool) {
	if n.Type == html.ElementNode {
		if skippedElements[n.Data] {
			return
		}
		if onlyMain && chromeElements[n.Data] {
			return
		}
		if n.Data == "head" {
			return
		}
	}

	if n.Type == html.TextNode {
		w.current.WriteString(n.Data)
		w.current.WriteString(" ")
		return
	}

	prefix, block := blockPrefix(n)
	if block {
		w.flush()
		w.prefix = prefix
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		w.flush()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, onlyMain)
	}

	if block {
		w.flush()
	}
}

func (w *blockWriter) String() string {
	w.flush()
	return strings.Join(w.blocks, "\n\n")
}

func blockPrefix(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	switch n.Data {
	case "h1":
		return "# ", true
	case "h2":
		return "## ", true
	case "h3":
		return "### ", true
	case "h4", "h5", "h6":
		return "#### ", true
	case "li":
		return "- ", true
	case "blockquote":
		return "> ", true
	case "p", "div", "section", "article", "main", "table", "tr", "pre", "ul", "ol", "dl", "dt", "dd", "figcaption":
		return "", true
	}
	return "", false
}

func findTitle(doc *html.Node) string {
	if n := findFirst(doc, "title"); n != nil && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	if n := findFirst(doc, "h1"); n != nil {
		return strings.Join(strings.Fields(textOf(n)), " ")
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
