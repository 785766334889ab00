// Package extract flattens nested issue fields into records addressed by
// dotted paths such as "status.name" or "fixVersions.0.name".
//
// Traversal never fails: a path through a missing node, a scalar or an
// out-of-range index yields an absent value.
package extract

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/jira-data-client/pkg/jira"
)

// Separator splits path segments.
const Separator = "."

// KeyColumn is the name under which Record.Map stores the issue key.
const KeyColumn = "key"

// Lookup walks root along path. Objects are indexed by name, arrays by a
// non-negative decimal index. The boolean reports whether the final segment
// was present; a JSON null at the final segment is present with a nil value.
func Lookup(root any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	current := root
	for _, segment := range strings.Split(path, Separator) {
		if current == nil {
			return nil, false
		}
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(node any, segment string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[segment]
		return v, ok
	case []any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	case []map[string]any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

// Value is the outcome of one path lookup.
type Value struct {
	Path    string
	Data    any
	Present bool
}

// Record is the flat view of one issue.
type Record struct {
	Key    string
	Values []Value
}

// Get returns the value extracted for path.
func (r Record) Get(path string) (Value, bool) {
	for _, v := range r.Values {
		if v.Path == path {
			return v, true
		}
	}
	return Value{}, false
}

// Map returns the record as key plus one entry per path. Absent values map
// to nil. The issue key always occupies KeyColumn; a path named like it is
// left out of the map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Values)+1)
	m[KeyColumn] = r.Key
	for _, v := range r.Values {
		if v.Path == KeyColumn {
			continue
		}
		if v.Present {
			m[v.Path] = v.Data
		} else {
			m[v.Path] = nil
		}
	}
	return m
}

// Fields extracts paths from each issue's fields, preserving issue order.
// The input is not modified.
func Fields(issues []jira.Issue, paths []string) []Record {
	records := make([]Record, 0, len(issues))
	for _, issue := range issues {
		var root any = issue.Fields
		values := make([]Value, len(paths))
		for i, path := range paths {
			data, ok := Lookup(root, path)
			values[i] = Value{Path: path, Data: data, Present: ok}
		}
		records = append(records, Record{Key: issue.Key, Values: values})
	}
	return records
}

// Maps converts records with Record.Map.
func Maps(records []Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r.Map()
	}
	return out
}

// RootFields returns the distinct first segments of paths in order, for use
// as a search projection.
func RootFields(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		root, _, _ := strings.Cut(strings.TrimSpace(p), Separator)
		if root == "" || seen[root] {
			continue
		}
		seen[root] = true
		roots = append(roots, root)
	}
	return roots
}
