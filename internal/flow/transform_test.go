package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importFlow = "import { flow } from 'mobx';\n"

func mustTransform(t *testing.T, src string) *Outcome {
	t.Helper()
	out, err := NewTransformer("").Transform(parseTS(t, src))
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func TestTransform_ArrowCallSite(t *testing.T) {
	out := mustTransform(t, importFlow+
		"const fn = flow(async (input) => { return await call(input); });\n")

	assert.True(t, out.Changed)
	assert.Equal(t, importFlow+
		"const fn = (input) => { return flow(function* fn() { return yield call(input); }).call(this); };\n",
		out.Tree.String())
	require.Len(t, out.Sites, 1)
	assert.Equal(t, SiteCall, out.Sites[0].Kind)
	assert.Equal(t, "fn", out.Sites[0].Name)
	assert.Equal(t, 2, out.Sites[0].Pos.Line)
}

func TestTransform_FunctionExpressionKeepsItsName(t *testing.T) {
	out := mustTransform(t, importFlow+
		"export const fn2 = flow(async function test(input) { return await load(input); });\n")

	assert.Equal(t, importFlow+
		"export const fn2 = function test(input) { return flow(function* test() { return yield load(input); }).call(this); };\n",
		out.Tree.String())
}

func TestTransform_AnonymousWithoutDeclaration(t *testing.T) {
	out := mustTransform(t, importFlow+
		"register(flow(async function () { await x(); }));\n")

	assert.Equal(t, importFlow+
		"register(function () { return flow(function* () { yield x(); }).call(this); });\n",
		out.Tree.String())
	assert.Empty(t, out.Sites[0].Name)
}

func TestTransform_ConciseArrowBody(t *testing.T) {
	out := mustTransform(t, importFlow+
		"const f = flow(async (a) => await g(a));\n")

	assert.Equal(t, importFlow+
		"const f = (a) => { return flow(function* f() { return yield g(a); }).call(this); };\n",
		out.Tree.String())
}

func TestTransform_AliasIsHonored(t *testing.T) {
	src := "import { flow as asyncAction } from 'mobx';\n" +
		"const fn = asyncAction(async input => { return await Promise.resolve(input); });\n"
	out := mustTransform(t, src)

	assert.Equal(t, "import { flow as asyncAction } from 'mobx';\n"+
		"const fn = input => { return asyncAction(function* fn() { return yield Promise.resolve(input); }).call(this); };\n",
		out.Tree.String())
}

func TestTransform_DecoratedMethod(t *testing.T) {
	src := importFlow + `class Store {
  v = 0;
  @flow
  async method(x) {
    this.v = await call(x);
  }
}
`
	out := mustTransform(t, src)

	assert.Equal(t, importFlow+`class Store {
  v = 0;
  method(x) { return flow(function* method() {
    this.v = yield call(x);
  }).call(this); }
}
`, out.Tree.String())
	require.Len(t, out.Sites, 1)
	assert.Equal(t, SiteMethod, out.Sites[0].Kind)
	assert.Equal(t, "method", out.Sites[0].Name)
}

func TestTransform_DecoratedMethodUsesFirstBinding(t *testing.T) {
	src := "import { flow as run } from 'mobx';\n" + `class S {
  @run async load() { await fetch(); }
}
`
	out := mustTransform(t, src)

	assert.Contains(t, out.Tree.String(), "load() { return run(function* load() { yield fetch(); }).call(this); }")
	assert.NotContains(t, out.Tree.String(), "@run")
}

func TestTransform_DecoratedProperties(t *testing.T) {
	src := importFlow + `declare let randomDecorator: any;
class Test {
  @flow
  funcBound = async (n: number) => {
    await f(n);
  };

  @randomDecorator
  @flow
  funcNonBound = async function () {
    await g();
  };
}
`
	out := mustTransform(t, src)

	got := out.Tree.String()
	assert.Contains(t, got, `
  funcBound = (n: number) => { return flow(function* funcBound() {
    yield f(n);
  }).call(this); };`)
	assert.Contains(t, got, `
  @randomDecorator
  funcNonBound = function () { return flow(function* funcNonBound() {
    yield g();
  }).call(this); };`)
	assert.NotContains(t, got, "@flow")
	require.Len(t, out.Sites, 2)
	assert.Equal(t, SiteProperty, out.Sites[0].Kind)
	assert.Equal(t, SiteProperty, out.Sites[1].Kind)
}

func TestTransform_NestedBeforeOuter(t *testing.T) {
	src := importFlow + `const outer = flow(async () => {
  const inner = flow(async () => {
    await step();
  });
  await inner();
});
`
	out := mustTransform(t, src)

	assert.Equal(t, importFlow+`const outer = () => { return flow(function* outer() {
  const inner = () => { return flow(function* inner() {
    yield step();
  }).call(this); };
  yield inner();
}).call(this); };
`, out.Tree.String())
	require.Len(t, out.Sites, 2)
	assert.Equal(t, "inner", out.Sites[0].Name)
	assert.Equal(t, "outer", out.Sites[1].Name)
}

func TestTransform_AlreadyCoroutineIsNotRewrapped(t *testing.T) {
	tree := parseTS(t, importFlow+
		"const g = flow(function* (input) { yield call(input); });\n")
	out, err := NewTransformer("").Transform(tree)
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Same(t, tree, out.Tree)
	assert.Empty(t, out.Sites)
}

func TestTransform_AlreadyCoroutineConvertsNestedSites(t *testing.T) {
	src := importFlow + `const g = flow(function* () {
  const h = flow(async () => { await x(); });
  yield h();
});
`
	out := mustTransform(t, src)

	assert.True(t, out.Changed)
	assert.Equal(t, importFlow+`const g = flow(function* () {
  const h = () => { return flow(function* h() { yield x(); }).call(this); };
  yield h();
});
`, out.Tree.String())
}

func TestTransform_GeneratorMethodKeepsDecorator(t *testing.T) {
	src := importFlow + `class S {
  @flow
  *load() { yield fetch(); }
}
`
	tree := parseTS(t, src)
	out, err := NewTransformer("").Transform(tree)
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, src, out.Tree.String())
}

func TestTransform_NoMarkerImportIsIdentity(t *testing.T) {
	for _, src := range []string{
		"const fn = flow(async () => { await x(); });\n",
		"import { flow } from 'other';\nconst fn = flow(async () => { await x(); });\n",
		"import { observable } from 'mobx';\nclass A { @observable x = 1; }\n",
	} {
		tree := parseTS(t, src)
		out, err := NewTransformer("").Transform(tree)
		require.NoError(t, err)
		assert.False(t, out.Changed)
		assert.Same(t, tree, out.Tree)
	}
}

func TestTransform_MarkerImportedButUnusedIsIdentity(t *testing.T) {
	tree := parseTS(t, importFlow+"async function plain() { await x(); }\n")
	out, err := NewTransformer("").Transform(tree)
	require.NoError(t, err)
	assert.Same(t, tree, out.Tree)
}

func TestTransform_ConfiguredModule(t *testing.T) {
	src := "import { flow } from '@app/mobx';\nconst a = flow(async () => { await x(); });\n"

	out, err := NewTransformer("").Transform(parseTS(t, src))
	require.NoError(t, err)
	assert.False(t, out.Changed)

	out, err = NewTransformer("@app/mobx").Transform(parseTS(t, src))
	require.NoError(t, err)
	assert.True(t, out.Changed)
}

func TestTransform_IsIdempotent(t *testing.T) {
	src := importFlow + `const a = flow(async () => { await x(); });
class S {
  @flow
  async m() { await y(); }
}
`
	first := mustTransform(t, src)
	require.True(t, first.Changed)

	again := parseTS(t, first.Tree.String())
	second, err := NewTransformer("").Transform(again)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Same(t, again, second.Tree)
}

func TestTransform_ParenthesizesYieldOperands(t *testing.T) {
	out := mustTransform(t, importFlow+
		"const a = flow(async () => { return 1 + await f(); });\n")

	assert.Contains(t, out.Tree.String(), "return 1 + (yield f());")
}

func TestTransform_ParenthesizesFunctionStatement(t *testing.T) {
	out := mustTransform(t, importFlow+
		"flow(async function () { await x(); });\n")

	assert.Equal(t, importFlow+
		"(function () { return flow(function* () { yield x(); }).call(this); });\n",
		out.Tree.String())
}

func TestTransform_UnmarkedNestedAsyncKeepsAwait(t *testing.T) {
	out := mustTransform(t, importFlow+
		"const a = flow(async () => { const g = async () => await h(); await g(); });\n")

	got := out.Tree.String()
	assert.Contains(t, got, "const g = async () => await h();")
	assert.Contains(t, got, "yield g();")
}

func TestTransform_Unresolvable(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		source string
		line   int
	}{
		{
			name:   "identifier argument",
			src:    "const fn = flow(plainFn);",
			source: "flow(plainFn)",
			line:   2,
		},
		{
			name:   "non-async arrow",
			src:    "const fn = flow(input => {\n  this.delay(input);\n});",
			source: "flow(input => {\n  this.delay(input);\n})",
			line:   2,
		},
		{
			name:   "non-async function",
			src:    "const fn = flow(function test(input) { this.delay(input); });",
			source: "flow(function test(input) { this.delay(input); })",
			line:   2,
		},
		{
			name:   "no argument",
			src:    "const fn = flow();",
			source: "flow()",
			line:   2,
		},
		{
			name:   "extra argument",
			src:    "const fn = flow(async () => {}, 1);",
			source: "flow(async () => {}, 1)",
			line:   2,
		},
		{
			name:   "non-async method",
			src:    "class Test {\n  @flow\n  func() {\n    this.test = 5;\n  }\n}",
			source: "@flow\n  func() {\n    this.test = 5;\n  }",
			line:   3,
		},
		{
			name:   "non-async arrow property",
			src:    "class Test {\n  @flow\n  funcBound = () => {\n    this.test = 5;\n  };\n}",
			source: "@flow\n  funcBound = () => {\n    this.test = 5;\n  }",
			line:   3,
		},
		{
			name:   "identifier property",
			src:    "class Test {\n  @flow\n  funcNonBound = randomFunction;\n}",
			source: "@flow\n  funcNonBound = randomFunction",
			line:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewTransformer("").Transform(parseTS(t, importFlow+tt.src))
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrUnresolvableMarkedExpression))

			var ue *UnresolvableMarkedExpressionError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, tt.source, ue.Source)
			assert.Equal(t, tt.line, ue.Pos.Line)
			assert.Contains(t, err.Error(), "Could not resolve expression as async function")
			assert.Contains(t, err.Error(), "["+Name+"]")
		})
	}
}

func TestTransform_FailureDiscardsEarlierRewrites(t *testing.T) {
	src := importFlow + `const ok = flow(async () => { await x(); });
const bad = flow(notAFunction);
`
	out, err := NewTransformer("").Transform(parseTS(t, src))
	require.Error(t, err)
	assert.Nil(t, out)
}
