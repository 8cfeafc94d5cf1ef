package flow

import "github.com/jward/asyncflow/internal/syntax"

func markerIdentifier(name string) *syntax.Node {
	return syntax.Leaf("identifier", name, "")
}

func isAsyncToken(n *syntax.Node) bool {
	return !n.Named && n.IsLeaf() && n.Text == "async"
}

// wrapBlock builds the replacement body
//
//	{ return marker(function* name() body).call(this); }
//
// The generator literal rebinds this, so the combinator result is invoked
// with the receiver of the function being rewritten.
func wrapBlock(marker *syntax.Node, name string, body *syntax.Node) *syntax.Node {
	combinator := syntax.NewNode("call_expression", "",
		marker.WithLead("").WithField("function"),
		syntax.NewNode("arguments", "",
			syntax.Token("(", ""),
			coroutineLiteral(name, body),
			syntax.Token(")", ""),
		).WithField("arguments"),
	)
	invoke := syntax.NewNode("call_expression", " ",
		syntax.NewNode("member_expression", "",
			combinator.WithField("object"),
			syntax.Token(".", ""),
			syntax.Leaf("property_identifier", "call", "").WithField("property"),
		).WithField("function"),
		syntax.NewNode("arguments", "",
			syntax.Token("(", ""),
			syntax.Leaf("this", "this", ""),
			syntax.Token(")", ""),
		).WithField("arguments"),
	)
	return syntax.NewNode("statement_block", " ",
		syntax.Token("{", ""),
		syntax.NewNode("return_statement", " ", syntax.Token("return", ""), invoke, syntax.Token(";", "")),
		syntax.Token("}", " "),
	)
}

// coroutineLiteral builds `function* name() body`.
func coroutineLiteral(name string, body *syntax.Node) *syntax.Node {
	children := []*syntax.Node{syntax.Token("function", ""), syntax.Token("*", "")}
	paramsLead := " "
	if name != "" {
		children = append(children, syntax.Leaf("identifier", name, " ").WithField("name"))
		paramsLead = ""
	}
	children = append(children,
		syntax.NewNode("formal_parameters", paramsLead, syntax.Token("(", ""), syntax.Token(")", "")).WithField("parameters"),
		coroutineBody(body).WithField("body"),
	)
	return syntax.NewNode("generator_function", "", children...)
}

// coroutineBody returns body as a block, turning a concise arrow body into
// `{ return body; }`.
func coroutineBody(body *syntax.Node) *syntax.Node {
	if body.Kind == "statement_block" {
		return body.WithLead(" ")
	}
	return syntax.NewNode("statement_block", " ",
		syntax.Token("{", ""),
		syntax.NewNode("return_statement", " ",
			syntax.Token("return", ""),
			body.WithLead(" ").WithField(""),
			syntax.Token(";", ""),
		),
		syntax.Token("}", " "),
	)
}

// rebuildFunction strips async from an arrow function or function
// expression and gives it a new body.
func rebuildFunction(fn, block *syntax.Node) *syntax.Node {
	out := fn.RemoveWhere(isAsyncToken)
	return replaceBody(out, block)
}

// rebuildMethod removes the marker decorators and async from a method and
// gives it a new body. Other decorators keep their order.
func rebuildMethod(method, block *syntax.Node, markers MarkerSet) *syntax.Node {
	out := method.RemoveWhere(func(c *syntax.Node) bool {
		return isMarkerDecorator(c, markers) || isAsyncToken(c)
	})
	return replaceBody(out, block)
}

// rebuildProperty removes the marker decorators from a property and
// replaces its initializer. Name, modifiers and type annotation are kept.
func rebuildProperty(prop, fn *syntax.Node, markers MarkerSet) *syntax.Node {
	out := prop.RemoveWhere(func(c *syntax.Node) bool {
		return isMarkerDecorator(c, markers)
	})
	old := out.Child("value")
	return out.ReplaceField("value", fn.WithLead(old.Lead))
}

func replaceBody(fn, block *syntax.Node) *syntax.Node {
	old := fn.Child("body")
	return fn.ReplaceField("body", block.WithLead(old.Lead))
}

// parenthesize wraps n in parentheses when its position in parent does not
// accept an assignment-level expression. Substituted yields and function
// literals need this: `a + await b` must become `a + (yield b)`.
func parenthesize(parent, n *syntax.Node) *syntax.Node {
	if parent == nil || acceptsAssignment(parent, n) {
		return n
	}
	return syntax.NewNode("parenthesized_expression", n.Lead,
		syntax.Token("(", ""),
		n.WithLead("").WithField(""),
		syntax.Token(")", ""),
	).WithField(n.Field)
}

func acceptsAssignment(parent, n *syntax.Node) bool {
	switch parent.Kind {
	case "expression_statement":
		// A statement starting with `function` is a declaration.
		return !isFunctionLiteral(n) || n.Kind == "arrow_function"
	case "return_statement", "throw_statement", "arguments", "array", "parenthesized_expression",
		"yield_expression", "spread_element", "template_substitution", "sequence_expression",
		"jsx_expression":
		return true
	case "variable_declarator", "public_field_definition", "field_definition", "pair", "export_statement":
		return n.Field == "value"
	case "assignment_expression", "augmented_assignment_expression", "assignment_pattern", "object_assignment_pattern":
		return n.Field == "right"
	case "arrow_function":
		return n.Field == "body"
	case "ternary_expression":
		return n.Field == "consequence" || n.Field == "alternative"
	}
	return false
}
