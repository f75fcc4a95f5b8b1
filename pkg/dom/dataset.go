// SPDX-License-Identifier: MPL-2.0

package dom

import (
	"strings"

	"golang.org/x/net/html"
)

const dataPrefix = "data-"

// Dataset returns the data-* attributes of n keyed the way browsers expose
// them: the "data-" prefix is dropped and every "-" followed by a lowercase
// ASCII letter becomes the uppercase letter. The first occurrence of a
// duplicated attribute wins.
func Dataset(n *html.Node) map[string]string {
	ds := make(map[string]string)
	if n == nil || n.Type != html.ElementNode {
		return ds
	}
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		rest, ok := strings.CutPrefix(strings.ToLower(a.Key), dataPrefix)
		if !ok {
			continue
		}
		key := CamelCase(rest)
		if _, dup := ds[key]; dup {
			continue
		}
		ds[key] = a.Val
	}
	return ds
}

// CamelCase converts a dashed attribute suffix into its dataset key.
// Dashes not followed by a lowercase ASCII letter are kept as-is.
func CamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' && i+1 < len(s) && isLowerASCII(s[i+1]) {
			b.WriteByte(s[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// KebabCase is the inverse of CamelCase for identifiers: every uppercase
// ASCII letter becomes "-" plus its lowercase form.
func KebabCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('-')
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isLowerASCII(c byte) bool { return c >= 'a' && c <= 'z' }
