package counter

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// utf8BOM is the UTF-8 byte-order mark some pages prepend to markup.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Counter counts occurrences of an HTML tag in page markup.
//
// The primary strategy parses the markup into a document tree and counts
// element nodes, which correctly ignores tag names appearing in comments,
// script bodies, and attribute values. When no parse strategy can produce
// a tree, a regex fallback counts opening-tag tokens. The fallback is a
// lower-fidelity degrade path, not a correctness guarantee.
//
// Design decision: We use golang.org/x/net/html rather than regex as the
// primary strategy because it tolerates malformed HTML common on the web
// (missing closing tags, unknown entities, invalid nesting) and provides
// a proper DOM-like structure.
type Counter struct {
	strategies []parseStrategy
}

// parseStrategy is one attempt at producing a document tree.
// Strategies are tried in order of decreasing strictness.
type parseStrategy struct {
	// name identifies the strategy for debugging.
	name string

	// parse attempts to build a document tree from the markup.
	parse func(markup []byte) (*html.Node, error)
}

// New creates a Counter with the standard strategy cascade:
// plain parse, charset-detected parse, BOM-stripped parse.
func New() *Counter {
	return &Counter{
		strategies: []parseStrategy{
			{
				name: "plain",
				parse: func(markup []byte) (*html.Node, error) {
					return html.Parse(bytes.NewReader(markup))
				},
			},
			{
				name: "charset-detected",
				parse: func(markup []byte) (*html.Node, error) {
					// Sniffs the encoding from a meta declaration or the
					// byte stream itself and decodes to UTF-8 first.
					r, err := charset.NewReader(bytes.NewReader(markup), "")
					if err != nil {
						return nil, err
					}
					return html.Parse(r)
				},
			},
			{
				name: "bom-stripped",
				parse: func(markup []byte) (*html.Node, error) {
					return html.Parse(bytes.NewReader(bytes.TrimPrefix(markup, utf8BOM)))
				},
			},
		},
	}
}

// Count returns the number of occurrences of tagName in the markup.
// It never fails: if every parse strategy fails, the regex fallback is
// used, and the result is always >= 0. Tag name matching is
// case-insensitive.
func (c *Counter) Count(markup []byte, tagName string) int {
	for _, s := range c.strategies {
		doc, err := s.parse(markup)
		if err != nil {
			continue
		}
		return countElements(doc, tagName)
	}
	return countWithRegex(markup, tagName)
}

// countElements walks the document tree counting element nodes whose name
// matches tagName case-insensitively.
func countElements(doc *html.Node, tagName string) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, tagName) {
			count++
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return count
}

// countWithRegex counts opening-tag tokens with a case-insensitive match:
// a "<", the tag name, then either ">" directly or whitespace followed by
// attribute content up to ">". Only opening tags are counted, never
// closing tags, matching structural-parse semantics for normal content.
// Self-closing and void tags count once per opening occurrence.
func countWithRegex(markup []byte, tagName string) int {
	pattern, err := regexp.Compile(`(?i)<` + regexp.QuoteMeta(tagName) + `(?:\s[^>]*)?>`)
	if err != nil {
		return 0
	}
	return len(pattern.FindAll(markup, -1))
}
