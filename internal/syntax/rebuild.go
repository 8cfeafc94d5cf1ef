package syntax

// Token returns an anonymous leaf.
func Token(text, lead string) *Node {
	return &Node{Kind: text, Text: text, Lead: lead}
}

// Leaf returns a named leaf such as an identifier.
func Leaf(kind, text, lead string) *Node {
	return &Node{Kind: kind, Named: true, Text: text, Lead: lead}
}

// NewNode returns a named inner node.
func NewNode(kind, lead string, children ...*Node) *Node {
	return &Node{Kind: kind, Named: true, Lead: lead, Children: children}
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// WithLead returns a copy of n with a different Lead.
func (n *Node) WithLead(lead string) *Node {
	if n.Lead == lead {
		return n
	}
	c := n.clone()
	c.Lead = lead
	return c
}

// WithField returns a copy of n recorded under a different field name.
func (n *Node) WithField(field string) *Node {
	if n.Field == field {
		return n
	}
	c := n.clone()
	c.Field = field
	return c
}

// WithChildren returns a copy of n with the given children.
func (n *Node) WithChildren(children []*Node) *Node {
	c := n.clone()
	c.Children = children
	return c
}

// ReplaceChild returns a copy of n with child i replaced. The replacement
// keeps the field name of the child it replaces.
func (n *Node) ReplaceChild(i int, child *Node) *Node {
	children := make([]*Node, len(n.Children))
	copy(children, n.Children)
	children[i] = child.WithField(n.Children[i].Field)
	return n.WithChildren(children)
}

// ReplaceField replaces the child recorded under field. It returns n
// unchanged when there is no such child.
func (n *Node) ReplaceField(field string, child *Node) *Node {
	for i, c := range n.Children {
		if c.Field == field {
			return n.ReplaceChild(i, child)
		}
	}
	return n
}

// RemoveChild returns a copy of n without child i. The removed child's Lead
// moves to its successor, so removing "async" from "\n  async foo()" leaves
// "\n  foo()".
func (n *Node) RemoveChild(i int) *Node {
	removed := n.Children[i]
	children := make([]*Node, 0, len(n.Children)-1)
	children = append(children, n.Children[:i]...)
	if i+1 < len(n.Children) {
		next := n.Children[i+1]
		lead := removed.Lead
		if !isBlank(next.Lead) {
			lead += next.Lead
		}
		children = append(children, next.WithLead(lead))
		children = append(children, n.Children[i+2:]...)
	}
	return n.WithChildren(children)
}

// RemoveWhere removes every child for which pred returns true.
func (n *Node) RemoveWhere(pred func(*Node) bool) *Node {
	out := n
	for i := 0; i < len(out.Children); {
		if pred(out.Children[i]) {
			out = out.RemoveChild(i)
			continue
		}
		i++
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
