// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"fmt"

	"github.com/uneet/uneet/pkg/dom"
	"golang.org/x/net/html"
)

// Edge is a parent/child relation found while linking. Edges only live
// between CollectEdges and ApplyEdges.
type Edge struct {
	Parent     *html.Node
	Child      *html.Node
	ChildName  string
	ChildProps Props
}

// Build parses every node and registers its descriptor. Diagnostics are
// attached to the node they concern and stored on the registry.
func Build(tree dom.Tree, nodes []*html.Node, namespaces []string, marker string) *Registry {
	reg := NewRegistry()
	for _, n := range nodes {
		p := ParseAttributes(tree.Attributes(n), namespaces, marker)
		if !reg.Add(&Descriptor{
			Name:       p.Name,
			Props:      p.Props,
			Enablement: p.Enablement,
			Node:       n,
		}) {
			continue
		}
		path := dom.Path(n)
		for i := range p.Diagnostics {
			p.Diagnostics[i].Node = n
			p.Diagnostics[i].Path = path
		}
		reg.addDiagnostics(p.Diagnostics...)
	}
	return reg
}

// CollectEdges finds, for each node, the nearest strict ancestor matching
// markerSelector. The walk stops below boundary; boundary itself is never a
// parent. Nodes without such an ancestor produce no edge.
func CollectEdges(tree dom.Tree, nodes []*html.Node, reg *Registry, markerSelector string, boundary *html.Node) ([]Edge, error) {
	var edges []Edge
	for _, n := range nodes {
		parent, err := closest(tree, n, markerSelector, boundary)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			continue
		}
		e := Edge{Parent: parent, Child: n}
		if d, ok := reg.Get(n); ok {
			e.ChildName = d.Name
			e.ChildProps = d.Props
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func closest(tree dom.Tree, n *html.Node, selector string, boundary *html.Node) (*html.Node, error) {
	for p := tree.Parent(n); p != nil && p != boundary; p = tree.Parent(p) {
		ok, err := tree.Matches(p, selector)
		if err != nil {
			return nil, fmt.Errorf("match ancestor %s: %w", dom.Describe(p), err)
		}
		if ok {
			return p, nil
		}
	}
	return nil, nil
}

// ApplyEdges records each edge whose parent is registered: the child joins
// the parent's Children and, when registered, gets Parent and ParentProps.
// Props are copied at this point. Edges to unregistered parents are dropped.
// It returns the number of edges applied.
func ApplyEdges(edges []Edge, reg *Registry) int {
	applied := 0
	for _, e := range edges {
		parent, ok := reg.Get(e.Parent)
		if !ok {
			continue
		}
		parentProps := parent.Props.Clone()
		if parent.Children == nil {
			parent.Children = make(map[*html.Node]Props)
		}
		parent.Children[e.Child] = e.ChildProps.Clone()

		if child, ok := reg.Get(e.Child); ok {
			child.Parent = e.Parent
			child.ParentProps = parentProps
		}
		applied++
	}
	return applied
}
