// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/uneet/uneet/pkg/dom"
	"golang.org/x/net/html"
)

const (
	// DefaultNamespace is the namespace enabled when none is configured.
	DefaultNamespace = "gf"
	// DefaultMarkerName is the property name of the marker attribute.
	DefaultMarkerName = "uneet"
)

var (
	// ErrNoTree is returned when a pass is requested without a host tree.
	ErrNoTree = errors.New("no host tree configured")
	// ErrInvalidNamespace is the sentinel error wrapped by InvalidNamespaceError.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrInvalidMarkerName is the sentinel error wrapped by InvalidMarkerNameError.
	ErrInvalidMarkerName = errors.New("invalid marker name")

	namespacePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	markerPattern    = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
)

type (
	// Scope selects the roots a discovery pass searches under. The zero value
	// means the default root of the tree.
	Scope struct {
		selector string
		nodes    []*html.Node
	}

	// InvalidNamespaceError is returned when a namespace cannot appear in a
	// dataset key prefix.
	InvalidNamespaceError struct {
		Value string
	}

	// InvalidMarkerNameError is returned when a marker name cannot be used as
	// a dataset property name.
	InvalidMarkerNameError struct {
		Value string
	}
)

// ScopeSelector scopes discovery to the first node matching selector.
func ScopeSelector(selector string) Scope { return Scope{selector: selector} }

// ScopeNode scopes discovery to n.
func ScopeNode(n *html.Node) Scope { return Scope{nodes: []*html.Node{n}} }

// ScopeNodes scopes discovery to each of nodes, in order.
func ScopeNodes(nodes ...*html.Node) Scope { return Scope{nodes: nodes} }

// IsZero reports whether s selects the default root.
func (s Scope) IsZero() bool { return s.selector == "" && len(s.nodes) == 0 }

// String describes the scope for logs.
func (s Scope) String() string {
	switch {
	case len(s.nodes) > 0:
		names := make([]string, 0, len(s.nodes))
		for _, n := range s.nodes {
			names = append(names, dom.Describe(n))
		}
		return "[" + strings.Join(names, ", ") + "]"
	case s.selector != "":
		return s.selector
	default:
		return "default root"
	}
}

// ValidateNamespace checks that ns can prefix a dataset key.
func ValidateNamespace(ns string) error {
	if !namespacePattern.MatchString(ns) {
		return &InvalidNamespaceError{Value: ns}
	}
	return nil
}

// ValidateMarkerName checks that marker can be used as a property name.
func ValidateMarkerName(marker string) error {
	if !markerPattern.MatchString(marker) {
		return &InvalidMarkerNameError{Value: marker}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("invalid namespace %q: must be non-empty lowercase letters, digits or '_'", e.Value)
}

// Unwrap returns ErrInvalidNamespace for errors.Is() compatibility.
func (e *InvalidNamespaceError) Unwrap() error { return ErrInvalidNamespace }

// Error implements the error interface.
func (e *InvalidMarkerNameError) Error() string {
	return fmt.Sprintf("invalid marker name %q: must start with a lowercase letter and contain only letters and digits", e.Value)
}

// Unwrap returns ErrInvalidMarkerName for errors.Is() compatibility.
func (e *InvalidMarkerNameError) Unwrap() error { return ErrInvalidMarkerName }

// MarkerAttribute returns the marker attribute name for one namespace.
func MarkerAttribute(ns, marker string) string {
	return "data-" + ns + "-" + dom.KebabCase(marker)
}

// MarkerSelector returns the union selector matching a marker in any of
// namespaces.
func MarkerSelector(namespaces []string, marker string) string {
	parts := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		parts = append(parts, "["+MarkerAttribute(ns, marker)+"]")
	}
	return strings.Join(parts, ",")
}

// Discover returns the nodes under scope that carry a marker for any of
// namespaces. Scope roots are searched in order and their matches are
// returned in document order. With includeScope a matching root precedes its
// descendants. A node reachable from several roots is returned once.
func Discover(tree dom.Tree, scope Scope, namespaces []string, marker string, includeScope bool) ([]*html.Node, error) {
	if tree == nil {
		return nil, ErrNoTree
	}
	if len(namespaces) == 0 {
		return nil, nil
	}
	roots, _ := resolveScope(tree, scope)
	return discoverUnder(tree, roots, MarkerSelector(namespaces, marker), includeScope)
}

func discoverUnder(tree dom.Tree, roots []*html.Node, selector string, includeScope bool) ([]*html.Node, error) {
	var found []*html.Node
	seen := make(map[*html.Node]struct{})
	add := func(n *html.Node) {
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		found = append(found, n)
	}

	for _, root := range roots {
		if includeScope {
			ok, err := tree.Matches(root, selector)
			if err != nil {
				return nil, fmt.Errorf("match scope %s: %w", dom.Describe(root), err)
			}
			if ok {
				add(root)
			}
		}
		nodes, err := tree.QueryAll(root, selector)
		if err != nil {
			return nil, fmt.Errorf("query %q under %s: %w", selector, dom.Describe(root), err)
		}
		for _, n := range nodes {
			add(n)
		}
	}
	return found, nil
}

// resolveScope turns a scope into root nodes. The second result is true when
// the scope could not be resolved and the default root was used instead.
func resolveScope(tree dom.Tree, scope Scope) ([]*html.Node, bool) {
	if len(scope.nodes) > 0 {
		roots := make([]*html.Node, 0, len(scope.nodes))
		for _, n := range scope.nodes {
			if n != nil {
				roots = append(roots, n)
			}
		}
		if len(roots) > 0 {
			return roots, false
		}
		return []*html.Node{tree.DefaultRoot()}, true
	}
	if scope.selector == "" {
		return []*html.Node{tree.DefaultRoot()}, false
	}
	n, err := tree.Resolve(scope.selector)
	if err != nil || n == nil {
		return []*html.Node{tree.DefaultRoot()}, true
	}
	return []*html.Node{n}, false
}
