// Package route holds the fixed route table and the request classifier.
package route

import (
	"net/http"
	"strings"
)

// Route identifies one of the routes the component serves.
type Route int

const (
	// NoMatch is returned when neither path nor method line up with a table entry.
	NoMatch Route = iota
	Health
	Actions
	Mcp
)

// String returns the route label used in logs and metrics.
func (r Route) String() string {
	switch r {
	case Health:
		return "health"
	case Actions:
		return "actions"
	case Mcp:
		return "mcp"
	default:
		return "none"
	}
}

// Entry binds a literal path and method to a route.
type Entry struct {
	Method string
	Path   string
	Route  Route
}

// Table is an immutable path -> method -> route lookup. It is safe for
// concurrent use because nothing mutates it after construction.
type Table struct {
	entries []Entry
	byPath  map[string]map[string]Route
}

// NewTable builds a Table from entries. Later entries win on duplicate
// (method, path) pairs.
func NewTable(entries ...Entry) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byPath:  make(map[string]map[string]Route, len(entries)),
	}
	for _, e := range entries {
		methods, ok := t.byPath[e.Path]
		if !ok {
			methods = make(map[string]Route, 1)
			t.byPath[e.Path] = methods
		}
		methods[e.Method] = e.Route
		t.entries = append(t.entries, e)
	}
	return t
}

// DefaultTable returns the three routes served by the component.
func DefaultTable() *Table {
	return NewTable(
		Entry{Method: http.MethodGet, Path: "/health", Route: Health},
		Entry{Method: http.MethodPost, Path: "/actions", Route: Actions},
		Entry{Method: http.MethodPost, Path: "/mcp", Route: Mcp},
	)
}

// Entries returns a copy of the registered entries in registration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Classify matches method and path jointly. Anything after the first '?' is
// ignored. The returned string is the pre-query path.
func (t *Table) Classify(method, pathWithQuery string) (Route, string) {
	path := SplitPath(pathWithQuery)
	if methods, ok := t.byPath[path]; ok {
		if r, ok := methods[method]; ok {
			return r, path
		}
	}
	return NoMatch, path
}

// Lookup returns the route bound to path under any method.
func (t *Table) Lookup(path string) (Route, bool) {
	methods, ok := t.byPath[SplitPath(path)]
	if !ok {
		return NoMatch, false
	}
	for _, r := range methods {
		return r, true
	}
	return NoMatch, false
}

// Has reports whether path is registered under any method.
func (t *Table) Has(path string) bool {
	_, ok := t.byPath[SplitPath(path)]
	return ok
}

// SplitPath strips the query component. An empty path is treated as "/".
func SplitPath(pathWithQuery string) string {
	path, _, _ := strings.Cut(pathWithQuery, "?")
	if path == "" {
		return "/"
	}
	return path
}
