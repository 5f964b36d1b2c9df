package domain

import (
	"sort"
	"strings"
)

// HeaderMap maps lower-cased header names to their values in arrival order.
// A name may carry several values; none is ever dropped.
type HeaderMap map[string][]string

// Add appends value under the lower-cased name.
func (h HeaderMap) Add(name, value string) {
	key := strings.ToLower(name)
	h[key] = append(h[key], value)
}

// Set replaces every value stored under name.
func (h HeaderMap) Set(name, value string) {
	h[strings.ToLower(name)] = []string{value}
}

// Values returns all values for name, matching case-insensitively. Maps built
// by hand may hold the same name under several spellings; their values are
// merged, lower-cased key first and the rest in sorted key order.
func (h HeaderMap) Values(name string) []string {
	if len(h) == 0 {
		return nil
	}
	key := strings.ToLower(name)
	values := h[key]

	var others []string
	for k := range h {
		if k != key && strings.EqualFold(k, name) {
			others = append(others, k)
		}
	}
	if len(others) == 0 {
		return values
	}
	sort.Strings(others)

	merged := append([]string(nil), values...)
	for _, k := range others {
		merged = append(merged, h[k]...)
	}
	return merged
}

// Get returns the first value for name, or "" when absent.
func (h HeaderMap) Get(name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Clone returns a deep copy of the map.
func (h HeaderMap) Clone() HeaderMap {
	if h == nil {
		return nil
	}
	out := make(HeaderMap, len(h))
	for name, values := range h {
		out[name] = append([]string(nil), values...)
	}
	return out
}
