// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"maps"

	clone "github.com/huandu/go-clone"
	"golang.org/x/net/html"
)

type (
	// Props holds the JSON-coerced configuration of one component, keyed by
	// de-namespaced property name.
	Props map[string]any

	// Enablement carries the options declared in an object-notation marker.
	Enablement struct {
		// AutoInitialize is false when the component opted out of automatic
		// initialization. Descendants of an opted-out component are gated too.
		AutoInitialize bool
		// Extra keeps any other marker fields (besides name and autoInitialize).
		Extra map[string]any
	}

	// Descriptor is the parsed record for one discovered node.
	Descriptor struct {
		// Name is the component name. Empty when the marker declared none.
		Name       string
		Props      Props
		Enablement Enablement
		// Node is the identity key of the descriptor within a Registry.
		Node *html.Node

		// Parent is the nearest registered component ancestor. Nil for roots.
		Parent *html.Node
		// ParentProps is a copy of the parent props taken while linking.
		ParentProps Props
		// Children maps each linked child node to a copy of its props taken
		// while linking. Nil when the component has no children.
		Children map[*html.Node]Props
	}

	// ParentRef is the parent side of a Component.
	ParentRef struct {
		Node  *html.Node
		Props Props
	}

	// Component is the context handed to a Factory.
	Component struct {
		Node     *html.Node
		Name     string
		Props    Props
		Parent   *ParentRef
		Children map[*html.Node]Props
	}
)

// DefaultEnablement returns the enablement of a bare-string marker.
func DefaultEnablement() Enablement {
	return Enablement{AutoInitialize: true}
}

// Clone returns a deep copy of p. Nested maps and slices are copied too.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	return clone.Clone(p).(Props)
}

// Named reports whether the descriptor carries a component name.
func (d *Descriptor) Named() bool { return d.Name != "" }

// Component builds the factory context for d.
func (d *Descriptor) Component() Component {
	c := Component{
		Node:  d.Node,
		Name:  d.Name,
		Props: d.Props,
	}
	if d.Parent != nil {
		c.Parent = &ParentRef{Node: d.Parent, Props: d.ParentProps}
	}
	if len(d.Children) > 0 {
		c.Children = maps.Clone(d.Children)
	}
	return c
}
