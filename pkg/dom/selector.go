// SPDX-License-Identifier: MPL-2.0

package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrInvalidSelector is the sentinel error wrapped by InvalidSelectorError.
var ErrInvalidSelector = errors.New("invalid selector")

// compiled caches selectors by source text. The same marker selector is
// evaluated once per ancestor during linking.
var compiled = xsync.NewMapOf[string, cascadia.Selector]()

// InvalidSelectorError is returned when a selector cannot be compiled.
type InvalidSelectorError struct {
	Selector string
	Cause    error
}

// Error implements the error interface.
func (e *InvalidSelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Cause)
}

// Unwrap returns ErrInvalidSelector for errors.Is() compatibility.
func (e *InvalidSelectorError) Unwrap() error { return ErrInvalidSelector }

// Compile parses a selector group, reusing a previously compiled selector
// when the same text was seen before.
func Compile(selector string) (cascadia.Selector, error) {
	if sel, ok := compiled.Load(selector); ok {
		return sel, nil
	}
	if strings.TrimSpace(selector) == "" {
		return nil, &InvalidSelectorError{Selector: selector, Cause: errors.New("empty selector")}
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &InvalidSelectorError{Selector: selector, Cause: err}
	}
	compiled.Store(selector, sel)
	return sel, nil
}
