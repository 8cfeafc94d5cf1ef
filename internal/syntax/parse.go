package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrUnsupportedLanguage is returned by Parse for unknown language names.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("syntax error")
)

// SyntaxError reports the first position tree-sitter could not parse.
type SyntaxError struct {
	Pos  Point
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Pos.Line, e.Pos.Column, e.Text)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// Parse parses src with the named grammar and converts the result into an
// immutable tree whose printed form equals src.
func Parse(ctx context.Context, src []byte, lang string) (*Node, error) {
	grammar, ok := GrammarForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, src)
	}

	var pos uint32
	out := build(root, "", src, &pos)
	if int(pos) < len(src) {
		out = out.clone()
		out.Tail += string(src[pos:])
	}
	return out, nil
}

// firstError descends into the leftmost erroneous subtree.
func firstError(n *sitter.Node, src []byte) *SyntaxError {
	for {
		var next *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c != nil && (c.HasError() || c.Type() == "ERROR" || c.IsMissing()) {
				next = c
				break
			}
		}
		if next == nil || next.Type() == "ERROR" || next.IsMissing() {
			if next != nil {
				n = next
			}
			break
		}
		n = next
	}
	text := n.Content(src)
	if len(text) > 40 {
		text = text[:40]
	}
	p := n.StartPoint()
	return &SyntaxError{Pos: Point{Line: int(p.Row) + 1, Column: int(p.Column) + 1}, Text: text}
}

// build converts a tree-sitter node. pos is the end of the text consumed so
// far; any gap between pos and a node's start becomes that node's Lead.
func build(n *sitter.Node, field string, src []byte, pos *uint32) *Node {
	p := n.StartPoint()
	out := &Node{
		Kind:  n.Type(),
		Field: field,
		Named: n.IsNamed(),
		Start: Point{Line: int(p.Row) + 1, Column: int(p.Column) + 1},
	}
	if start := n.StartByte(); start > *pos {
		out.Lead = string(src[*pos:start])
		*pos = start
	}

	count := int(n.ChildCount())
	if count == 0 {
		if end := n.EndByte(); end > *pos {
			out.Text = string(src[*pos:end])
			*pos = end
		}
		return out
	}

	out.Children = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		out.Children = append(out.Children, build(c, n.FieldNameForChild(i), src, pos))
	}
	if end := n.EndByte(); end > *pos {
		out.Tail = string(src[*pos:end])
		*pos = end
	}

	if out.Kind == "class_body" {
		out.Children = foldDecorators(out.Children)
	}
	return out
}

// isMember reports whether kind is a class member that can own decorators.
func isMember(kind string) bool {
	switch kind {
	case "method_definition", "public_field_definition", "field_definition", "abstract_method_signature":
		return true
	}
	return false
}

// foldDecorators moves decorators that tree-sitter records as class body
// siblings into the member they decorate, so each member owns its
// decorator list. Comments between a decorator and its member move along.
func foldDecorators(children []*Node) []*Node {
	out := make([]*Node, 0, len(children))
	var pending []*Node
	for _, c := range children {
		if c.Kind == "decorator" || (len(pending) > 0 && c.Kind == "comment") {
			pending = append(pending, c)
			continue
		}
		if len(pending) > 0 {
			if isMember(c.Kind) {
				c = attachDecorators(pending, c)
			} else {
				out = append(out, pending...)
			}
			pending = nil
		}
		out = append(out, c)
	}
	return append(out, pending...)
}

func attachDecorators(decorators []*Node, member *Node) *Node {
	children := make([]*Node, 0, len(decorators)+len(member.Children))
	for i, d := range decorators {
		if i == 0 {
			d = d.WithLead("")
		}
		if d.Kind == "decorator" {
			d = d.WithField("decorator")
		}
		children = append(children, d)
	}
	for i, c := range member.Children {
		if i == 0 {
			c = c.WithLead(member.Lead + c.Lead)
		}
		children = append(children, c)
	}
	m := member.WithChildren(children)
	m.Lead = decorators[0].Lead
	m.Start = decorators[0].Start
	return m
}
