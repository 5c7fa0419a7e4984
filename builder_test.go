package nlexpr_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/njchilds90/nlexpr"
)

// ============================================================
// Build
// ============================================================

func TestBuild_PreOrder(t *testing.T) {
	tree := sampleTree(t)
	want := []nlexpr.Node{
		{Kind: nlexpr.KindCallMultivariate, Index: nlexpr.OpAdd, Parent: -1},
		{Kind: nlexpr.KindCallMultivariate, Index: nlexpr.OpMul, Parent: 0},
		{Kind: nlexpr.KindVariable, Index: 0, Parent: 1},
		{Kind: nlexpr.KindCallUnivariate, Index: mustLookup(t, "sin"), Parent: 1},
		{Kind: nlexpr.KindVariable, Index: 1, Parent: 3},
		{Kind: nlexpr.KindCallMultivariate, Index: nlexpr.OpPow, Parent: 0},
		{Kind: nlexpr.KindVariable, Index: 0, Parent: 5},
		{Kind: nlexpr.KindValue, Index: 0, Parent: 5},
	}
	if diff := cmp.Diff(want, tree.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2}, tree.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func mustLookup(t *testing.T, name string) int {
	t.Helper()
	id, ok := nlexpr.DefaultUnivariateTable.Lookup(name)
	if !ok {
		t.Fatalf("%q not registered", name)
	}
	return id
}

func TestBuild_ConstantsNumberedInOrder(t *testing.T) {
	tree := build(t, nlexpr.AddOf(nlexpr.Const(1), nlexpr.MulOf(nlexpr.Const(2), x0), nlexpr.Const(3)))
	if diff := cmp.Diff([]float64{1, 2, 3}, tree.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	var idx []int
	for _, n := range tree.Nodes {
		if n.Kind == nlexpr.KindValue {
			idx = append(idx, n.Index)
		}
	}
	if !cmp.Equal(idx, []int{0, 1, 2}) {
		t.Errorf("want value indices [0 1 2], got %v", idx)
	}
}

func TestBuild_Invalid(t *testing.T) {
	for name, e := range map[string]nlexpr.Expr{
		"pow with three args": nlexpr.Call(nlexpr.OpPow, x0, x1, x2),
		"leaf with args":      {Kind: nlexpr.KindVariable, Args: []nlexpr.Expr{x0}},
		"negative variable":   nlexpr.Var(-1),
	} {
		if _, err := nlexpr.Build(e); !errors.Is(err, nlexpr.ErrInvalidTree) {
			t.Errorf("%s: want ErrInvalidTree, got %v", name, err)
		}
	}
}

func TestBuild_DeepChain(t *testing.T) {
	const depth = 10000
	e := x0
	for i := 0; i < depth; i++ {
		e = nlexpr.AddOf(e, nlexpr.Const(1))
	}
	tree := build(t, e)
	v, s := forward(t, tree, vars(0.5))
	if v != depth+0.5 {
		t.Errorf("want %v, got %v", depth+0.5, v)
	}
	if grad := gradient(tree, s, 1); grad[0] != 1 {
		t.Errorf("want gradient 1, got %v", grad[0])
	}
}

func TestTree_DeepChainRendering(t *testing.T) {
	const depth = 100000
	e := x0
	for i := 0; i < depth; i++ {
		e = nlexpr.SinOf(e)
	}
	tree := build(t, e)
	wantString := strings.Repeat("sin(", depth) + "x[0]" + strings.Repeat(")", depth)
	if got := tree.String(); got != wantString {
		t.Errorf("String: want %d bytes, got %d", len(wantString), len(got))
	}
	wantLaTeX := strings.Repeat(`\sin\left(`, depth) + "x_{0}" + strings.Repeat(`\right)`, depth)
	if got := tree.LaTeX(); got != wantLaTeX {
		t.Errorf("LaTeX: want %d bytes, got %d", len(wantLaTeX), len(got))
	}
	again := build(t, tree.Expr())
	if diff := cmp.Diff(tree.Nodes, again.Nodes); diff != "" {
		t.Errorf("Expr round trip (-want +got):\n%s", diff)
	}
}

func TestTree_ExprRoundTrip(t *testing.T) {
	for _, tc := range smoothCases {
		tree := build(t, tc.expr)
		if diff := cmp.Diff(tc.expr, tree.Expr(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s: Expr mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestTree_String(t *testing.T) {
	tests := []struct {
		expr nlexpr.Expr
		want string
	}{
		{smoothCases[0].expr, "((x[0] * sin(x[1])) + (x[0] ^ 2))"},
		{nlexpr.NegOf(x0), "-x[0]"},
		{nlexpr.Atan2Of(x0, x2), "atan(x[0], x[2])"},
		{nlexpr.AddOf(nlexpr.Param(0), nlexpr.Subexpr(3), nlexpr.Const(0.5)), "(p[0] + s[3] + 0.5)"},
		{nlexpr.IfElseOf(nlexpr.LessEqOf(x0, nlexpr.Const(1)), x1, x2), "ifelse((x[0] <= 1), x[1], x[2])"},
		{nlexpr.And(nlexpr.LessEqOf(x0, nlexpr.Const(1)), nlexpr.GreaterOf(x1, nlexpr.Const(0))), "((x[0] <= 1) && (x[1] > 0))"},
		{nlexpr.MaxOf(x0, x1), "max(x[0], x[1])"},
	}
	for _, tc := range tests {
		if got := build(t, tc.expr).String(); got != tc.want {
			t.Errorf("want %s, got %s", tc.want, got)
		}
	}
}

func TestFuncOf_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want a panic for an unknown operator")
		}
	}()
	nlexpr.FuncOf("nosuchfunc", x0)
}
