// Package markup holds HTML level helpers used around translation: input
// decoding, the tolerant fix-up pass and DOM queries.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Decode converts raw HTML bytes to UTF-8 honoring BOM, meta charset
// declarations and content sniffing.
func Decode(data []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("unable to detect charset: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to decode input: %w", err)
	}
	return string(out), nil
}

// Fix repairs malformed markup by running it through an HTML5 parser and
// serializing the resulting tree: unclosed tags get closed, misnested ones
// re-parented and implied html/head/body added.
func Fix(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("unable to parse html: %w", err)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("unable to render html: %w", err)
	}
	return buf.String(), nil
}

// Parse builds a DOM from markup. Fragments are accepted as the parser
// supplies the implied document structure.
func Parse(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}

// IsElement reports whether n is an element with the given tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// Attr returns attribute value of an element.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// TopLevelTables returns tables not contained in other tables, in document
// order. Subtrees of elements named in skip are not searched.
func TopLevelTables(root *html.Node, skip ...string) []*html.Node {
	var tables []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if IsElement(n, "table") {
			tables = append(tables, n)
			return
		}
		if n.Type == html.ElementNode && slices.Contains(skip, n.Data) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return tables
}

// CountDescendants counts elements with tag strictly below n.
func CountDescendants(n *html.Node, tag string) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tag) {
			count++
		}
		count += CountDescendants(c, tag)
	}
	return count
}

// NearestAncestor returns the closest ancestor element with tag.
func NearestAncestor(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if IsElement(p, tag) {
			return p
		}
	}
	return nil
}

// InnerHTML serializes children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Text returns concatenated text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
