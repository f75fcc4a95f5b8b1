// SPDX-License-Identifier: MPL-2.0

package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Describe renders a short label for n such as "div#menu.nav.open".
func Describe(n *html.Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case html.ElementNode:
	case html.DocumentNode:
		return "#document"
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	default:
		return "#node"
	}

	var b strings.Builder
	b.WriteString(n.Data)
	if id := attr(n, "id"); id != "" {
		b.WriteByte('#')
		b.WriteString(id)
	}
	for class := range strings.FieldsSeq(attr(n, "class")) {
		b.WriteByte('.')
		b.WriteString(class)
	}
	return b.String()
}

// Path renders the element path from the document element down to n, for
// example "html > body > div:nth-of-type(2) > span". The position suffix is
// only added when n has element siblings of the same tag.
func Path(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		parts = append(parts, step(cur))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func step(n *html.Node) string {
	if n.Parent == nil {
		return n.Data
	}
	index, total := 0, 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != n.Data {
			continue
		}
		total++
		if c == n {
			index = total
		}
	}
	if total <= 1 {
		return n.Data
	}
	return n.Data + ":nth-of-type(" + strconv.Itoa(index) + ")"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
