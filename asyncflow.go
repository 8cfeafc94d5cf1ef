package asyncflow

import (
	"context"
	"fmt"

	"github.com/jward/asyncflow/internal/flow"
	"github.com/jward/asyncflow/internal/syntax"
)

const (
	// Name identifies the transformer; it prefixes error messages and keys
	// cached results.
	Name = flow.Name

	// Version is incremented whenever output for a given input changes.
	Version = flow.Version

	// DefaultMarkerModule is always accepted as the source of the marker.
	DefaultMarkerModule = flow.DefaultMarkerModule
)

// UnresolvableMarkedExpressionError reports a marking site whose function
// is neither async nor a generator.
type UnresolvableMarkedExpressionError = flow.UnresolvableMarkedExpressionError

var (
	// ErrUnresolvableMarkedExpression matches UnresolvableMarkedExpressionError.
	ErrUnresolvableMarkedExpression = flow.ErrUnresolvableMarkedExpression

	// ErrSyntax matches sources the parser rejects.
	ErrSyntax = syntax.ErrSyntax

	// ErrUnsupportedLanguage is returned for files with unknown extensions.
	ErrUnsupportedLanguage = syntax.ErrUnsupportedLanguage
)

// Options configures a Transformer.
type Options struct {
	// MarkerModule is accepted as a source of the marker in addition to
	// DefaultMarkerModule. Empty means DefaultMarkerModule only.
	MarkerModule string
}

// Site describes one converted marking site.
type Site struct {
	Kind   string `json:"kind"`
	Name   string `json:"name,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Result is the outcome of transforming one source unit. When Changed is
// false, Output is the input slice itself.
type Result struct {
	Output   []byte
	Changed  bool
	Sites    []Site
	Language string
}

// Transformer transforms source units. It keeps no state between units.
type Transformer struct {
	core *flow.Transformer
}

// NewTransformer returns a Transformer configured by opts.
func NewTransformer(opts Options) *Transformer {
	return &Transformer{core: flow.NewTransformer(opts.MarkerModule)}
}

// Factory returns a fresh Transformer with default options.
func Factory() *Transformer {
	return NewTransformer(Options{})
}

// MarkerModule returns the configured marker module.
func (t *Transformer) MarkerModule() string {
	return t.core.MarkerModule()
}

// TransformSource parses src, rewrites its marking sites and prints the
// result. The grammar is chosen from path's extension; an empty path is
// parsed as TypeScript.
func (t *Transformer) TransformSource(ctx context.Context, path string, src []byte) (*Result, error) {
	lang := "typescript"
	if path != "" {
		l, ok := syntax.LanguageForFile(path)
		if !ok {
			return nil, fmt.Errorf("asyncflow: %s: %w", path, ErrUnsupportedLanguage)
		}
		lang = l
	}

	tree, err := syntax.Parse(ctx, src, lang)
	if err != nil {
		return nil, fmt.Errorf("asyncflow: parse %s: %w", path, err)
	}

	out, err := t.core.Transform(tree)
	if err != nil {
		return nil, err
	}
	if !out.Changed {
		return &Result{Output: src, Language: lang}, nil
	}

	sites := make([]Site, len(out.Sites))
	for i, s := range out.Sites {
		sites[i] = Site{Kind: string(s.Kind), Name: s.Name, Line: s.Pos.Line, Column: s.Pos.Column}
	}
	return &Result{
		Output:   out.Tree.Bytes(),
		Changed:  true,
		Sites:    sites,
		Language: lang,
	}, nil
}
