// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	markerFieldName           = "name"
	markerFieldAutoInitialize = "autoInitialize"
)

// ErrInvalidBool is the sentinel error wrapped by InvalidBoolError.
var ErrInvalidBool = errors.New("invalid boolean")

type (
	// Parsed is the result of parsing the attributes of one node.
	Parsed struct {
		Name        string
		Enablement  Enablement
		Props       Props
		Diagnostics []Diagnostic
	}

	// InvalidBoolError is returned by ParseBool for values that are neither a
	// boolean nor the strings "true" and "false".
	InvalidBoolError struct {
		Value any
	}
)

// Error implements the error interface.
func (e *InvalidBoolError) Error() string {
	return fmt.Sprintf("invalid boolean %#v (want true, false, \"true\" or \"false\")", e.Value)
}

// Unwrap returns ErrInvalidBool for errors.Is() compatibility.
func (e *InvalidBoolError) Unwrap() error { return ErrInvalidBool }

// NamespaceOf returns the namespace of a dataset key: the leading run of
// non-uppercase characters, lowercased. A key without uppercase characters is
// entirely namespace; an empty key yields "".
func NamespaceOf(key string) string {
	ns, _ := splitNamespace(key)
	return ns
}

func splitNamespace(key string) (ns, rest string) {
	end := strings.IndexFunc(key, unicode.IsUpper)
	if end < 0 {
		return strings.ToLower(key), ""
	}
	return strings.ToLower(key[:end]), key[end:]
}

// ParseAttributes extracts the component name, enablement and props from a
// node's dataset. Only keys whose namespace is in allowed are considered.
// Keys are processed in sorted order; when two allowed namespaces declare
// the same property the later key wins.
func ParseAttributes(attrs map[string]string, allowed []string, marker string) Parsed {
	p := Parsed{
		Enablement: DefaultEnablement(),
		Props:      Props{},
	}
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		ns, rest := splitNamespace(key)
		if !slices.Contains(allowed, ns) || rest == "" {
			continue
		}
		prop := lowerFirst(rest)
		if prop == marker {
			p.parseMarker(attrs[key])
			continue
		}
		p.Props[prop] = CoerceValue(attrs[key])
	}
	return p
}

// CoerceValue converts a raw attribute value into a structural value when it
// is JSON for an object, array, number or boolean. Anything else (including
// JSON strings, null and malformed JSON) is returned as the raw string.
//
// Numbers outside the float64 range, such as "1e400", also stay raw strings,
// as does any array or object containing one, so props always encode as JSON.
func CoerceValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case map[string]any, []any, float64, bool:
		return v
	default:
		return raw
	}
}

// ParseBool accepts a boolean or one of the strings "true" and "false".
func ParseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.TrimSpace(b) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, &InvalidBoolError{Value: v}
}

func (p *Parsed) parseMarker(raw string) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		p.setName(raw)
		return
	}
	switch m := v.(type) {
	case string:
		p.setName(m)
	case map[string]any:
		p.applyMarkerObject(m)
	case []any:
		p.Name = ""
		p.diagnose(SeverityError, CodeMissingName, "marker is a JSON array; use a name string or an object with a \"name\" field", nil)
	default:
		p.setName(raw)
	}
}

func (p *Parsed) applyMarkerObject(m map[string]any) {
	name, ok := m[markerFieldName].(string)
	if !ok {
		p.Name = ""
		msg := "marker object declares no \"name\" field"
		if v, present := m[markerFieldName]; present {
			msg = fmt.Sprintf("marker \"name\" must be a string, got %T", v)
		}
		p.diagnose(SeverityError, CodeMissingName, msg, nil)
		return
	}
	if !p.setName(name) {
		return
	}

	for _, k := range slices.Sorted(maps.Keys(m)) {
		switch k {
		case markerFieldName:
		case markerFieldAutoInitialize:
			auto, err := ParseBool(m[k])
			if err != nil {
				p.diagnose(SeverityWarning, CodeInvalidAutoInitialize,
					fmt.Sprintf("ignoring autoInitialize for %q; keeping %t", name, p.Enablement.AutoInitialize), err)
				continue
			}
			p.Enablement.AutoInitialize = auto
		default:
			if p.Enablement.Extra == nil {
				p.Enablement.Extra = make(map[string]any)
			}
			p.Enablement.Extra[k] = m[k]
		}
	}
}

// setName records name, or a missing_name diagnostic when it is blank.
func (p *Parsed) setName(name string) bool {
	if strings.TrimSpace(name) == "" {
		p.Name = ""
		p.diagnose(SeverityError, CodeMissingName, "marker name is empty", nil)
		return false
	}
	p.Name = name
	return true
}

func (p *Parsed) diagnose(sev Severity, code DiagnosticCode, msg string, cause error) {
	p.Diagnostics = append(p.Diagnostics, Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Cause:    cause,
	})
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
