// Package highlight finds the elements a locator selector refers to in an
// HTML document and marks them. Matching is pure; marking mutates the tree.
package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// DefaultClass is the class added to highlighted elements.
const DefaultClass = "talk2dom-highlight"

// Selector types, in the vocabulary the locator returns.
const (
	CSS             = "css"
	XPath           = "xpath"
	ID              = "id"
	Class           = "class"
	Name            = "name"
	Tag             = "tag"
	LinkText        = "link_text"
	PartialLinkText = "partial_link_text"
)

var (
	// ErrUnsupportedSelector is returned for a selector type outside the known set.
	ErrUnsupportedSelector = errors.New("unsupported selector type")

	// ErrInvalidSelector is returned for an empty selector value or a css or
	// xpath expression that does not compile.
	ErrInvalidSelector = errors.New("invalid selector")
)

// SelectorTypes lists the supported selector types.
func SelectorTypes() []string {
	return []string{CSS, XPath, ID, Class, Name, Tag, LinkText, PartialLinkText}
}

// Supported reports whether selectorType is known.
func Supported(selectorType string) bool {
	return slices.Contains(SelectorTypes(), normalizeType(selectorType))
}

// ComputeMatches returns the elements of doc selected by the given selector,
// in document order. It does not modify doc.
func ComputeMatches(doc *html.Node, selectorType, value string) ([]*html.Node, error) {
	kind := normalizeType(selectorType)
	if !slices.Contains(SelectorTypes(), kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSelector, selectorType)
	}
	// An empty value would match every element lacking the attribute.
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: empty %s value", ErrInvalidSelector, kind)
	}

	switch kind {
	case CSS:
		sel, err := cascadia.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		return nonNil(sel.MatchAll(doc)), nil
	case XPath:
		nodes, err := htmlquery.QueryAll(doc, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		return elementsOnly(nodes), nil
	case ID:
		return collect(doc, func(n *html.Node) bool { return attr(n, "id") == value }), nil
	case Class:
		return collect(doc, func(n *html.Node) bool { return hasClass(n, value) }), nil
	case Name:
		return collect(doc, func(n *html.Node) bool { return attr(n, "name") == value }), nil
	case Tag:
		tag := strings.ToLower(strings.TrimSpace(value))
		return collect(doc, func(n *html.Node) bool { return n.Data == tag }), nil
	case LinkText:
		return collect(doc, func(n *html.Node) bool {
			return n.Data == "a" && textOf(n) == strings.TrimSpace(value)
		}), nil
	case PartialLinkText:
		return collect(doc, func(n *html.Node) bool {
			return n.Data == "a" && strings.Contains(textOf(n), value)
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSelector, selectorType)
	}
}

// Apply adds class to each node's class attribute, once.
func Apply(nodes []*html.Node, class string) {
	for _, n := range nodes {
		if !hasClass(n, class) {
			addClass(n, class)
		}
	}
}

func addClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

// Parse parses an HTML document.
func Parse(src string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return doc, nil
}

// Render serializes a document back to HTML.
func Render(doc *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return buf.String(), nil
}

// Highlight parses src, marks the matches of the selector with class, and
// returns the rendered document with the number of matches.
func Highlight(src, selectorType, value, class string) (string, int, error) {
	doc, err := Parse(src)
	if err != nil {
		return "", 0, err
	}
	nodes, err := ComputeMatches(doc, selectorType, value)
	if err != nil {
		return "", 0, err
	}
	Apply(nodes, class)
	out, err := Render(doc)
	if err != nil {
		return "", 0, err
	}
	return out, len(nodes), nil
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case "css selector", "css_selector":
		return CSS
	case "tag name", "tag_name":
		return Tag
	case "class name", "class_name":
		return Class
	case "link text":
		return LinkText
	case "partial link text":
		return PartialLinkText
	}
	return t
}

func collect(root *html.Node, match func(*html.Node) bool) []*html.Node {
	out := []*html.Node{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// elementsOnly drops text results and the detached nodes htmlquery builds
// for attribute results.
func elementsOnly(nodes []*html.Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Parent != nil {
			out = append(out, n)
		}
	}
	return out
}

func nonNil(nodes []*html.Node) []*html.Node {
	if nodes == nil {
		return []*html.Node{}
	}
	return nodes
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// textOf is the element's text with whitespace collapsed.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
