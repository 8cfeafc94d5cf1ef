// Package flow rewrites async functions marked with mobx's flow into
// generator functions wrapped by flow.
//
//	const fn = flow(async (input) => { return await call(input); });
//
// becomes
//
//	const fn = (input) => { return flow(function* fn() { return yield call(input); }).call(this); };
//
// Marking sites are calls of a flow binding, and methods or properties
// decorated with one. Nested marking sites are converted before the awaits
// of the enclosing function, so an outer `await inner()` of a converted
// inner function becomes `yield inner()`.
package flow

import "github.com/jward/asyncflow/internal/syntax"

// SiteKind names the kind of a converted marking site.
type SiteKind string

const (
	SiteCall     SiteKind = "call"
	SiteMethod   SiteKind = "method"
	SiteProperty SiteKind = "property"
)

// SiteReport describes one converted marking site.
type SiteReport struct {
	Kind SiteKind
	Name string // coroutine display name, "" when anonymous
	Pos  syntax.Point
}

// Outcome is the result of transforming one source unit. When Changed is
// false, Tree is the input tree itself.
type Outcome struct {
	Tree    *syntax.Node
	Changed bool
	Sites   []SiteReport
}

// Transformer converts marked functions. It holds no per-unit state and may
// be used for any number of units, concurrently.
type Transformer struct {
	markerModule string
}

// NewTransformer returns a Transformer that also accepts the marker from
// markerModule. An empty name means DefaultMarkerModule only.
func NewTransformer(markerModule string) *Transformer {
	if markerModule == "" {
		markerModule = DefaultMarkerModule
	}
	return &Transformer{markerModule: markerModule}
}

// MarkerModule returns the configured marker module.
func (t *Transformer) MarkerModule() string { return t.markerModule }

// Transform rewrites every marking site of root. Any unresolvable site fails
// the whole unit and no tree is returned.
func (t *Transformer) Transform(root *syntax.Node) (*Outcome, error) {
	markers := ResolveMarkers(root, t.markerModule)
	if markers.Len() == 0 {
		return &Outcome{Tree: root}, nil
	}

	u := &unit{markers: markers}
	out, err := u.visit(root, nil)
	if err != nil {
		return nil, err
	}
	if len(u.sites) == 0 {
		return &Outcome{Tree: root}, nil
	}
	return &Outcome{Tree: out, Changed: true, Sites: u.sites}, nil
}
