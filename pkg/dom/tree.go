// SPDX-License-Identifier: MPL-2.0

package dom

import "golang.org/x/net/html"

// Tree is the read-only view of a host document consumed by discovery and
// linking. Document is the production implementation.
type Tree interface {
	// DefaultRoot returns the node used when no scope is given (the body).
	DefaultRoot() *html.Node
	// Resolve returns the first node matching selector, or nil when nothing
	// matches. An error is returned only for a malformed selector.
	Resolve(selector string) (*html.Node, error)
	// QueryAll returns the descendants of root matching selector in document
	// order. root itself is never part of the result.
	QueryAll(root *html.Node, selector string) ([]*html.Node, error)
	// Matches reports whether n itself satisfies selector.
	Matches(n *html.Node, selector string) (bool, error)
	// Attributes returns the dataset of n keyed by camel-cased name.
	Attributes(n *html.Node) map[string]string
	// Parent returns the parent of n, or nil at the top of the tree.
	Parent(n *html.Node) *html.Node
}
