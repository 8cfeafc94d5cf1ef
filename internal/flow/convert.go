package flow

import (
	"fmt"

	"github.com/jward/asyncflow/internal/syntax"
)

type fnState int

const (
	stateInvalid fnState = iota
	stateAsync
	stateCoroutine
)

// functionState classifies the candidate of a marking site.
func functionState(fn *syntax.Node) fnState {
	if fn == nil {
		return stateInvalid
	}
	switch fn.Kind {
	case "generator_function":
		return stateCoroutine
	case "arrow_function", "function_expression", "function", "method_definition":
		if fn.HasToken("*") {
			return stateCoroutine
		}
		if fn.HasToken("async") {
			return stateAsync
		}
	}
	return stateInvalid
}

func isFunctionLiteral(n *syntax.Node) bool {
	switch n.Kind {
	case "arrow_function", "function_expression", "function":
		return true
	}
	return false
}

// isFunctionBoundary reports whether n starts a function body whose await
// expressions belong to n rather than to the enclosing function.
func isFunctionBoundary(n *syntax.Node) bool {
	switch n.Kind {
	case "arrow_function", "function_expression", "function", "function_declaration",
		"generator_function", "generator_function_declaration", "method_definition":
		return true
	}
	return false
}

// unit is the traversal state of one source unit.
type unit struct {
	markers MarkerSet
	sites   []SiteReport
}

// visit rewrites n in pre-order. It returns n itself when nothing below it
// changed.
func (u *unit) visit(n, parent *syntax.Node) (*syntax.Node, error) {
	if n.Kind == "import_statement" {
		return n, nil
	}
	if site, ok := Classify(n, parent, u.markers); ok {
		return u.convert(site)
	}
	return u.visitChildren(n)
}

func (u *unit) visitChildren(n *syntax.Node) (*syntax.Node, error) {
	var children []*syntax.Node
	for i, c := range n.Children {
		nc, err := u.visit(c, n)
		if err != nil {
			return nil, err
		}
		if nc != c && children == nil {
			children = make([]*syntax.Node, len(n.Children))
			copy(children, n.Children)
		}
		if children != nil {
			children[i] = nc.WithField(c.Field)
		}
	}
	if children == nil {
		return n, nil
	}
	return n.WithChildren(children), nil
}

func (u *unit) convert(site Site) (*syntax.Node, error) {
	switch s := site.(type) {
	case *CallSite:
		return u.convertCall(s)
	case *MethodSite:
		return u.convertMethod(s)
	case *PropertySite:
		return u.convertProperty(s)
	}
	panic(fmt.Sprintf("flow: unknown site %T", site))
}

func (u *unit) convertCall(s *CallSite) (*syntax.Node, error) {
	fn := singleArgument(s.Call)
	switch functionState(fn) {
	case stateCoroutine:
		return u.visitChildren(s.Call)
	case stateInvalid:
		return nil, unresolvable(s.Call)
	}
	if !isFunctionLiteral(fn) {
		return nil, unresolvable(s.Call)
	}

	body, err := u.convertBody(fn)
	if err != nil {
		return nil, err
	}
	name := callName(fn, s)
	block := wrapBlock(s.Call.Child("function"), name, body)
	out := rebuildFunction(fn, block).WithLead(s.Call.Lead).WithField(s.Call.Field)
	u.record(s.Call, SiteCall, name)
	return parenthesize(s.Parent, out), nil
}

func (u *unit) convertMethod(s *MethodSite) (*syntax.Node, error) {
	m := s.Method
	switch functionState(m) {
	case stateCoroutine:
		return u.visitChildren(m)
	case stateInvalid:
		return nil, unresolvable(m)
	}

	body, err := u.convertBody(m)
	if err != nil {
		return nil, err
	}
	name := memberName(m)
	block := wrapBlock(markerIdentifier(u.markers.First()), name, body)
	u.record(m, SiteMethod, name)
	return rebuildMethod(m, block, u.markers), nil
}

func (u *unit) convertProperty(s *PropertySite) (*syntax.Node, error) {
	p := s.Property
	fn := p.Child("value")
	switch functionState(fn) {
	case stateCoroutine:
		return u.visitChildren(p)
	case stateInvalid:
		return nil, unresolvable(p)
	}
	if !isFunctionLiteral(fn) {
		return nil, unresolvable(p)
	}

	body, err := u.convertBody(fn)
	if err != nil {
		return nil, err
	}
	name := memberName(p)
	block := wrapBlock(markerIdentifier(u.markers.First()), name, body)
	u.record(p, SiteProperty, name)
	return rebuildProperty(p, rebuildFunction(fn, block), u.markers), nil
}

// convertBody converts nested marking sites inside fn's body first and only
// then turns the remaining await expressions into yield expressions.
func (u *unit) convertBody(fn *syntax.Node) (*syntax.Node, error) {
	body := fn.Child("body")
	inner, err := u.visit(body, fn)
	if err != nil {
		return nil, err
	}
	return awaitToYield(inner, fn), nil
}

// awaitToYield replaces every await expression under n with a yield of the
// same operand. It does not enter nested functions.
func awaitToYield(n, parent *syntax.Node) *syntax.Node {
	if isFunctionBoundary(n) {
		return n
	}
	var children []*syntax.Node
	for i, c := range n.Children {
		nc := awaitToYield(c, n)
		if nc != c && children == nil {
			children = make([]*syntax.Node, len(n.Children))
			copy(children, n.Children)
		}
		if children != nil {
			children[i] = nc
		}
	}
	out := n
	if children != nil {
		out = n.WithChildren(children)
	}
	if out.Kind != "await_expression" || len(out.Children) == 0 {
		return out
	}

	yield := make([]*syntax.Node, 0, len(out.Children))
	yield = append(yield, syntax.Token("yield", out.Children[0].Lead))
	yield = append(yield, out.Children[1:]...)
	y := syntax.NewNode("yield_expression", out.Lead, yield...).WithField(out.Field)
	y.Start = out.Start
	return parenthesize(parent, y)
}

func singleArgument(call *syntax.Node) *syntax.Node {
	args := call.Child("arguments")
	if args == nil {
		return nil
	}
	named := args.NamedChildren()
	if len(named) != 1 {
		return nil
	}
	return named[0]
}

// callName returns the function's own name, or the name of the variable the
// marking call initializes.
func callName(fn *syntax.Node, s *CallSite) string {
	if name := fn.Child("name"); name != nil {
		return name.Source()
	}
	p := s.Parent
	if p != nil && p.Kind == "variable_declarator" && s.Call.Field == "value" {
		if id := p.Child("name"); id != nil && id.Kind == "identifier" {
			return id.Source()
		}
	}
	return ""
}

// memberName returns the declared name of a class member when it is a plain
// identifier. Computed, string and private names yield "".
func memberName(member *syntax.Node) string {
	name := member.Child("name")
	if name == nil {
		name = member.Child("property")
	}
	if name == nil {
		return ""
	}
	switch name.Kind {
	case "property_identifier", "identifier":
		return name.Source()
	}
	return ""
}

func (u *unit) record(n *syntax.Node, kind SiteKind, name string) {
	u.sites = append(u.sites, SiteReport{Kind: kind, Name: name, Pos: n.Start})
}
