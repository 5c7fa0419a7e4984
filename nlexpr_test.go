package nlexpr_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/njchilds90/nlexpr"
)

// ============================================================
// Tree construction
// ============================================================

func node(kind nlexpr.NodeKind, index, parent int) nlexpr.Node {
	return nlexpr.Node{Kind: kind, Index: index, Parent: parent}
}

// x[0]*sin(x[1]) + x[0]^2
func sampleTree(t *testing.T) *nlexpr.Tree {
	t.Helper()
	x, y := nlexpr.Var(0), nlexpr.Var(1)
	tree, err := nlexpr.Build(nlexpr.AddOf(
		nlexpr.MulOf(x, nlexpr.SinOf(y)),
		nlexpr.PowOf(x, nlexpr.Const(2)),
	))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func TestTree_ParentsPrecedeChildren(t *testing.T) {
	tree := sampleTree(t)
	if tree.Nodes[0].Parent != -1 {
		t.Fatalf("root parent: want -1, got %d", tree.Nodes[0].Parent)
	}
	for k := 1; k < tree.Len(); k++ {
		if p := tree.Nodes[k].Parent; p < 0 || p >= k {
			t.Errorf("node %d: parent %d does not precede it", k, p)
		}
	}
}

func TestTree_Adjacency(t *testing.T) {
	tree := sampleTree(t)
	wantColPtr := []int{0, 2, 4, 4, 5, 5, 7, 7, 7}
	wantRowVal := []int{1, 5, 2, 3, 4, 6, 7}
	if diff := cmp.Diff(wantColPtr, tree.Adj.ColPtr); diff != "" {
		t.Errorf("ColPtr mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantRowVal, tree.Adj.RowVal); diff != "" {
		t.Errorf("RowVal mismatch (-want +got):\n%s", diff)
	}
	if got := tree.Adj.Children(5); !cmp.Equal(got, []int{6, 7}) {
		t.Errorf("children of 5: want [6 7], got %v", got)
	}
	if n := tree.Adj.NumChildren(2); n != 0 {
		t.Errorf("leaf should have no children, got %d", n)
	}
	if c := tree.Adj.FirstChild(3); c != 4 {
		t.Errorf("first child of sin: want 4, got %d", c)
	}
}

func TestTree_AdjacencyMatchesParents(t *testing.T) {
	tree := sampleTree(t)
	seen := 0
	for k := 0; k < tree.Len(); k++ {
		prev := k
		for _, c := range tree.Adj.Children(k) {
			if tree.Nodes[c].Parent != k {
				t.Errorf("node %d listed under %d but has parent %d", c, k, tree.Nodes[c].Parent)
			}
			if c <= prev {
				t.Errorf("children of %d not increasing: %v", k, tree.Adj.Children(k))
			}
			prev = c
			seen++
		}
	}
	if seen != tree.Len()-1 {
		t.Errorf("want %d edges, got %d", tree.Len()-1, seen)
	}
}

func TestTree_SingleLeaf(t *testing.T) {
	tree, err := nlexpr.NewTree([]nlexpr.Node{node(nlexpr.KindVariable, 0, -1)}, nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if len(tree.Adj.ColPtr) != 2 || len(tree.Adj.RowVal) != 0 {
		t.Errorf("want ColPtr of 2 and no RowVal, got %v %v", tree.Adj.ColPtr, tree.Adj.RowVal)
	}
}

func TestTree_InputSizes(t *testing.T) {
	tree, err := nlexpr.Build(nlexpr.AddOf(nlexpr.Var(3), nlexpr.Param(1), nlexpr.Var(0)))
	if err != nil {
		t.Fatal(err)
	}
	v, p, s := tree.InputSizes()
	if v != 4 || p != 2 || s != 0 {
		t.Errorf("want 4 2 0, got %d %d %d", v, p, s)
	}
}

func TestNewTree_Invalid(t *testing.T) {
	call := func(op, parent int) nlexpr.Node { return node(nlexpr.KindCallMultivariate, op, parent) }
	v := func(i, parent int) nlexpr.Node { return node(nlexpr.KindVariable, i, parent) }
	tests := []struct {
		name   string
		nodes  []nlexpr.Node
		values []float64
	}{
		{"empty", nil, nil},
		{"root with parent", []nlexpr.Node{v(0, 0)}, nil},
		{"parent after child", []nlexpr.Node{call(nlexpr.OpAdd, -1), v(0, 2), v(1, 0)}, nil},
		{"second root", []nlexpr.Node{call(nlexpr.OpAdd, -1), v(0, -1)}, nil},
		{"leaf parent", []nlexpr.Node{v(0, -1), v(1, 0)}, nil},
		{"negative index", []nlexpr.Node{v(-1, -1)}, nil},
		{"value out of range", []nlexpr.Node{node(nlexpr.KindValue, 1, -1)}, []float64{1}},
		{"unknown kind", []nlexpr.Node{node(nlexpr.NodeKind(99), 0, -1)}, nil},
		{"pow arity", []nlexpr.Node{call(nlexpr.OpPow, -1), v(0, 0)}, nil},
		{"div arity", []nlexpr.Node{call(nlexpr.OpDiv, -1), v(0, 0), v(1, 0), v(2, 0)}, nil},
		{"ifelse arity", []nlexpr.Node{call(nlexpr.OpIfElse, -1), v(0, 0), v(1, 0)}, nil},
		{"sub arity", []nlexpr.Node{call(nlexpr.OpSub, -1), v(0, 0), v(1, 0), v(2, 0)}, nil},
		{"call without args", []nlexpr.Node{call(nlexpr.OpAdd, -1)}, nil},
		{"univariate arity", []nlexpr.Node{node(nlexpr.KindCallUnivariate, 0, -1), v(0, 0), v(1, 0)}, nil},
		{"comparison arity", []nlexpr.Node{node(nlexpr.KindComparison, nlexpr.CmpLess, -1), v(0, 0)}, nil},
		{"logic arity", []nlexpr.Node{node(nlexpr.KindLogic, nlexpr.LogicAnd, -1), v(0, 0)}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := nlexpr.NewTree(tc.nodes, tc.values)
			if !errors.Is(err, nlexpr.ErrInvalidTree) {
				t.Errorf("want ErrInvalidTree, got %v", err)
			}
		})
	}
}

func TestNewTree_UnknownOperatorAccepted(t *testing.T) {
	// Operator ids are checked when evaluating.
	nodes := []nlexpr.Node{
		node(nlexpr.KindCallMultivariate, 42, -1),
		node(nlexpr.KindVariable, 0, 0),
	}
	if _, err := nlexpr.NewTree(nodes, nil); err != nil {
		t.Errorf("want no error, got %v", err)
	}
}

func TestNodeKind_String(t *testing.T) {
	if s := nlexpr.KindCallUnivariate.String(); s == "" {
		t.Error("want a name for KindCallUnivariate")
	}
	if !nlexpr.KindSubexpression.IsLeaf() || nlexpr.KindComparison.IsLeaf() {
		t.Error("IsLeaf misclassifies kinds")
	}
}
