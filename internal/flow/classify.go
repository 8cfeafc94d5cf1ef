package flow

import "github.com/jward/asyncflow/internal/syntax"

// Site is a place where the marker is applied to a function. The concrete
// type is one of *CallSite, *MethodSite or *PropertySite.
type Site interface {
	// Node returns the node the site replaces.
	Node() *syntax.Node
	site()
}

// CallSite is `marker(fn)`.
type CallSite struct {
	Call   *syntax.Node
	Parent *syntax.Node
}

// MethodSite is a method declaration decorated with the marker.
type MethodSite struct {
	Method *syntax.Node
}

// PropertySite is a property declaration decorated with the marker whose
// initializer is expected to be a function.
type PropertySite struct {
	Property *syntax.Node
}

func (s *CallSite) Node() *syntax.Node     { return s.Call }
func (s *MethodSite) Node() *syntax.Node   { return s.Method }
func (s *PropertySite) Node() *syntax.Node { return s.Property }

func (*CallSite) site()     {}
func (*MethodSite) site()   {}
func (*PropertySite) site() {}

// Classify reports whether n is a marking site. parent is the node n was
// reached from and may be nil.
func Classify(n, parent *syntax.Node, markers MarkerSet) (Site, bool) {
	switch n.Kind {
	case "call_expression":
		callee := n.Child("function")
		if callee != nil && callee.Kind == "identifier" && markers.Contains(callee.Source()) {
			return &CallSite{Call: n, Parent: parent}, true
		}
	case "method_definition":
		if hasMarkerDecorator(n, markers) && n.Child("body") != nil {
			return &MethodSite{Method: n}, true
		}
	case "public_field_definition", "field_definition":
		if hasMarkerDecorator(n, markers) && n.Child("value") != nil {
			return &PropertySite{Property: n}, true
		}
	}
	return nil, false
}

// isMarkerDecorator matches `@name` where name is a marker binding. Calls
// and member expressions such as `@flow()` or `@mobx.flow` do not match.
func isMarkerDecorator(n *syntax.Node, markers MarkerSet) bool {
	if n.Kind != "decorator" {
		return false
	}
	expr := n.NamedChildren()
	return len(expr) == 1 && expr[0].Kind == "identifier" && markers.Contains(expr[0].Source())
}

func hasMarkerDecorator(n *syntax.Node, markers MarkerSet) bool {
	for _, c := range n.Children {
		if isMarkerDecorator(c, markers) {
			return true
		}
	}
	return false
}
