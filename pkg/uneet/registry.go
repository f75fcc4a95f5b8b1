// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"iter"
	"slices"

	"golang.org/x/net/html"
)

// Registry maps discovered nodes to their descriptors. Iteration follows
// insertion order, which is discovery order. A Registry is produced by one
// pass and is not safe for concurrent mutation.
type Registry struct {
	order       []*Descriptor
	index       map[*html.Node]*Descriptor
	diagnostics []Diagnostic
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[*html.Node]*Descriptor)}
}

// Add inserts d. It returns false, leaving the registry unchanged, when a
// descriptor for the same node already exists.
func (r *Registry) Add(d *Descriptor) bool {
	if d == nil || d.Node == nil {
		return false
	}
	if _, exists := r.index[d.Node]; exists {
		return false
	}
	r.index[d.Node] = d
	r.order = append(r.order, d)
	return true
}

// Get returns the descriptor registered for n.
func (r *Registry) Get(n *html.Node) (*Descriptor, bool) {
	if r == nil || n == nil {
		return nil, false
	}
	d, ok := r.index[n]
	return d, ok
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// All iterates over node/descriptor pairs in discovery order.
func (r *Registry) All() iter.Seq2[*html.Node, *Descriptor] {
	return func(yield func(*html.Node, *Descriptor) bool) {
		if r == nil {
			return
		}
		for _, d := range r.order {
			if !yield(d.Node, d) {
				return
			}
		}
	}
}

// Descriptors returns the descriptors in discovery order.
func (r *Registry) Descriptors() []*Descriptor {
	if r == nil {
		return nil
	}
	return slices.Clone(r.order)
}

// Nodes returns the nodes whose descriptors satisfy keep, in discovery order.
// A nil keep selects every node.
func (r *Registry) Nodes(keep func(*Descriptor) bool) []*html.Node {
	var nodes []*html.Node
	for n, d := range r.All() {
		if keep == nil || keep(d) {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Diagnostics returns the per-node problems recorded while parsing.
func (r *Registry) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	return slices.Clone(r.diagnostics)
}

func (r *Registry) addDiagnostics(diags ...Diagnostic) {
	r.diagnostics = append(r.diagnostics, diags...)
}
