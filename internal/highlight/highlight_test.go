package highlight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/talk2dom/web/internal/highlight"
)

const page = `<!doctype html>
<html><body>
  <form id="login" class="card auth">
    <input name="email" class="field">
    <input name="password" type="password" class="field">
    <button id="submit" class="btn primary">Sign in</button>
  </form>
  <nav>
    <a href="/pricing">See pricing</a>
    <a href="/docs">  Read   the docs </a>
    <a href="/blog">Blog</a>
  </nav>
</body></html>`

func parse(t *testing.T) *html.Node {
	t.Helper()
	doc, err := highlight.Parse(page)
	require.NoError(t, err)
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestComputeMatches(t *testing.T) {
	tests := []struct {
		name      string
		selType   string
		value     string
		wantCount int
		wantFirst string // tag of the first match
	}{
		{"css id", "css", "#submit", 1, "button"},
		{"css class list", "css", "input.field", 2, "input"},
		{"css selenium spelling", "css selector", "nav a", 3, "a"},
		{"xpath", "xpath", "//input[@name='password']", 1, "input"},
		{"xpath attribute nodes dropped", "xpath", "//input/@name", 0, ""},
		{"id", "id", "login", 1, "form"},
		{"class token", "class", "field", 2, "input"},
		{"class is not substring", "class", "fiel", 0, ""},
		{"name", "name", "email", 1, "input"},
		{"tag", "tag", "A", 3, "a"},
		{"link text exact", "link_text", "Blog", 1, "a"},
		{"link text collapses whitespace", "link_text", "Read the docs", 1, "a"},
		{"partial link text", "partial_link_text", "pric", 1, "a"},
		{"no match", "id", "missing", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t)

			nodes, err := highlight.ComputeMatches(doc, tt.selType, tt.value)

			require.NoError(t, err)
			require.NotNil(t, nodes)
			assert.Len(t, nodes, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantFirst, nodes[0].Data)
			}
		})
	}
}

func TestComputeMatches_DocumentOrder(t *testing.T) {
	doc := parse(t)

	nodes, err := highlight.ComputeMatches(doc, "tag", "a")

	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "/pricing", attr(nodes[0], "href"))
	assert.Equal(t, "/docs", attr(nodes[1], "href"))
	assert.Equal(t, "/blog", attr(nodes[2], "href"))
}

func TestComputeMatches_DoesNotMutate(t *testing.T) {
	doc := parse(t)
	before, err := highlight.Render(doc)
	require.NoError(t, err)

	_, err = highlight.ComputeMatches(doc, "css", "button")
	require.NoError(t, err)

	after, err := highlight.Render(doc)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestComputeMatches_Errors(t *testing.T) {
	doc := parse(t)

	_, err := highlight.ComputeMatches(doc, "css", "div[")
	assert.ErrorIs(t, err, highlight.ErrInvalidSelector)

	_, err = highlight.ComputeMatches(doc, "xpath", "//div[")
	assert.ErrorIs(t, err, highlight.ErrInvalidSelector)

	_, err = highlight.ComputeMatches(doc, "accessibility_id", "x")
	assert.ErrorIs(t, err, highlight.ErrUnsupportedSelector)

	_, err = highlight.ComputeMatches(doc, "accessibility_id", "")
	assert.ErrorIs(t, err, highlight.ErrUnsupportedSelector, "type is checked before value")
}

func TestComputeMatches_EmptyValueRejected(t *testing.T) {
	doc := parse(t)

	for _, typ := range highlight.SelectorTypes() {
		for _, value := range []string{"", "   "} {
			nodes, err := highlight.ComputeMatches(doc, typ, value)

			assert.ErrorIs(t, err, highlight.ErrInvalidSelector, "%s %q", typ, value)
			assert.Nil(t, nodes, "%s %q", typ, value)
		}
	}
}

func TestApply_AddsClassOnce(t *testing.T) {
	doc := parse(t)
	nodes, err := highlight.ComputeMatches(doc, "id", "submit")
	require.NoError(t, err)

	highlight.Apply(nodes, highlight.DefaultClass)
	highlight.Apply(nodes, highlight.DefaultClass)

	assert.Equal(t, "btn primary talk2dom-highlight", attr(nodes[0], "class"))

	form, err := highlight.ComputeMatches(doc, "tag", "nav")
	require.NoError(t, err)
	highlight.Apply(form, "hl")
	assert.Equal(t, "hl", attr(form[0], "class"))
}

func TestHighlight(t *testing.T) {
	out, n, err := highlight.Highlight(page, "class", "field", "hl")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, out, `class="field hl"`)
}

func TestSupported(t *testing.T) {
	assert.True(t, highlight.Supported("XPath"))
	assert.True(t, highlight.Supported("tag name"))
	assert.False(t, highlight.Supported("accessibility_id"))
}
