// SPDX-License-Identifier: MPL-2.0

// Package uneet discovers components declared in HTML markup through
// namespaced data attributes, parses their configuration, links nested
// components to their nearest component ancestor and dispatches each admitted
// component to a caller-supplied factory.
//
// A component is any element carrying a marker attribute for one of the
// enabled namespaces, for example:
//
//	<div data-gf-uneet="Menu" data-gf-items='["a","b"]' data-gf-open="false"></div>
//	<div data-gf-uneet='{"name": "Panel", "autoInitialize": false}'></div>
//
// A pass runs in four steps:
//   - Discover: collect marker-bearing nodes under a scope
//   - ParseAttributes: extract name, enablement and JSON-coerced props
//   - CollectEdges and ApplyEdges: link children to parents in two passes
//   - Initialize: admit descriptors through the ancestor chain and call factories
//
// Uneet (built with New) composes those steps behind Discover and Initialize.
// Problems scoped to a single node never abort a pass. They are recorded as
// Diagnostic values on the Registry and reported through the Logger.
//
// File organization:
//   - uneet.go: Options, Overrides and the Uneet entry point
//   - descriptor.go, registry.go: data model
//   - discover.go, parse.go, link.go, initialize.go: pipeline steps
//   - diagnostic.go, logger.go: reporting
package uneet
