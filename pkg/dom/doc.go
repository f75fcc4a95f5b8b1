// SPDX-License-Identifier: MPL-2.0

// Package dom adapts a parsed HTML document into the narrow host-tree surface
// the component pipeline needs: selector resolution, descendant queries,
// per-node selector tests, dataset extraction and parent traversal.
//
// Nodes are identified by their *html.Node pointer. The package never mutates
// the tree it wraps.
package dom
