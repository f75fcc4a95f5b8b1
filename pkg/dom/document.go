// SPDX-License-Identifier: MPL-2.0

package dom

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a Tree backed by a golang.org/x/net/html parse tree.
type Document struct {
	root *html.Node
	body *html.Node
}

var _ Tree = (*Document)(nil)

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewDocument(root), nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the HTML document stored at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// NewDocument wraps an already parsed tree. When the tree has no body
// element, root itself becomes the default root.
func NewDocument(root *html.Node) *Document {
	d := &Document{root: root, body: root}
	if body := findElement(root, atom.Body); body != nil {
		d.body = body
	}
	return d
}

// Root returns the top node of the wrapped tree.
func (d *Document) Root() *html.Node { return d.root }

// DefaultRoot returns the body element.
func (d *Document) DefaultRoot() *html.Node { return d.body }

// Resolve returns the first element matching selector.
func (d *Document) Resolve(selector string) (*html.Node, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	return cascadia.Query(d.root, sel), nil
}

// QueryAll returns the descendants of root that match selector.
func (d *Document) QueryAll(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	return cascadia.QueryAll(root, sel), nil
}

// Matches reports whether n satisfies selector. Non-element nodes never match.
func (d *Document) Matches(n *html.Node, selector string) (bool, error) {
	sel, err := Compile(selector)
	if err != nil {
		return false, err
	}
	if n == nil || n.Type != html.ElementNode {
		return false, nil
	}
	return sel.Match(n), nil
}

// Attributes returns the dataset of n.
func (d *Document) Attributes(n *html.Node) map[string]string { return Dataset(n) }

// Parent returns the parent node of n.
func (d *Document) Parent(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	return n.Parent
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
