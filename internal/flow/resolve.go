package flow

import (
	"strings"

	"github.com/jward/asyncflow/internal/syntax"
)

// MarkerName is the reserved export that flags a function for conversion.
const MarkerName = "flow"

// DefaultMarkerModule is the module whose marker is always recognized.
const DefaultMarkerModule = "mobx"

// MarkerSet holds the local names bound to the marker in one source unit,
// in first-seen order.
type MarkerSet struct {
	names []string
}

// Contains reports whether name is bound to the marker.
func (m MarkerSet) Contains(name string) bool {
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

// Len returns the number of bindings.
func (m MarkerSet) Len() int { return len(m.names) }

// First returns the first binding, used as the combinator for decorator sites.
func (m MarkerSet) First() string {
	if len(m.names) == 0 {
		return ""
	}
	return m.names[0]
}

// Names returns a copy of the bindings.
func (m MarkerSet) Names() []string {
	return append([]string(nil), m.names...)
}

func (m *MarkerSet) add(name string) {
	if name == "" || m.Contains(name) {
		return
	}
	m.names = append(m.names, name)
}

// ResolveMarkers scans the top-level imports of root for named imports of
// the marker from markerModule or DefaultMarkerModule. Nested scopes are not
// searched.
func ResolveMarkers(root *syntax.Node, markerModule string) MarkerSet {
	var set MarkerSet
	for _, stmt := range root.Children {
		if stmt.Kind != "import_statement" {
			continue
		}
		source := stmt.Child("source")
		if source == nil {
			continue
		}
		module := unquote(source.Source())
		if module != DefaultMarkerModule && module != markerModule {
			continue
		}
		clause := stmt.ChildOfKind("import_clause")
		if clause == nil {
			continue
		}
		named := clause.ChildOfKind("named_imports")
		if named == nil {
			continue
		}
		for _, spec := range named.Children {
			if spec.Kind != "import_specifier" {
				continue
			}
			imported := spec.Child("name")
			if imported == nil || unquote(imported.Source()) != MarkerName {
				continue
			}
			local := imported
			if alias := spec.Child("alias"); alias != nil {
				local = alias
			}
			set.add(local.Source())
		}
	}
	return set
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
