// Package syntax is an immutable, structurally shared syntax tree built from
// tree-sitter's concrete syntax tree.
//
// Every byte of the parsed source lives in exactly one place of the tree:
// leaves carry token text, and the whitespace and non-token text in front of
// a node is kept as that node's Lead. Printing an untouched tree therefore
// reproduces the source byte for byte, and a rewritten tree reproduces every
// region that was not rewritten.
//
// Nodes are never modified after construction. The With* and *Child helpers
// return new nodes that share all unchanged children with the original.
package syntax

import (
	"io"
	"strings"
)

// Point is a 1-based source position. Synthesized nodes have the zero Point.
type Point struct {
	Line   int
	Column int
}

// Node is one element of the tree.
type Node struct {
	Kind     string  // tree-sitter node type, e.g. "arrow_function" or "async"
	Field    string  // field name within the parent, "" if none
	Named    bool    // false for anonymous tokens such as "(" or "=>"
	Lead     string  // text preceding the node
	Text     string  // token text; leaves only
	Children []*Node // nil for leaves
	Tail     string  // text after the last child
	Start    Point
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Child returns the first child recorded under the given field name.
func (n *Node) Child(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildOfKind returns the first child of the given kind.
func (n *Node) ChildOfKind(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// HasToken reports whether n has a direct anonymous child with the given text.
func (n *Node) HasToken(text string) bool {
	for _, c := range n.Children {
		if !c.Named && c.IsLeaf() && c.Text == text {
			return true
		}
	}
	return false
}

// NamedChildren returns the named, non-comment children of n.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Named && c.Kind != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// IndexOf returns the position of c among n's children, or -1.
func (n *Node) IndexOf(c *Node) int {
	for i, child := range n.Children {
		if child == c {
			return i
		}
	}
	return -1
}

// String prints n including its Lead.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, true)
	return b.String()
}

// Source prints n without its own Lead.
func (n *Node) Source() string {
	var b strings.Builder
	n.write(&b, false)
	return b.String()
}

// Bytes prints n including its Lead.
func (n *Node) Bytes() []byte {
	return []byte(n.String())
}

// WriteTo writes the printed form of n to w.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	written, err := io.WriteString(w, n.String())
	return int64(written), err
}

func (n *Node) write(b *strings.Builder, lead bool) {
	if lead {
		b.WriteString(n.Lead)
	}
	if n.IsLeaf() {
		b.WriteString(n.Text)
	}
	for _, c := range n.Children {
		c.write(b, true)
	}
	b.WriteString(n.Tail)
}

// Walk calls fn for n and its descendants in pre-order. Returning false from
// fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
