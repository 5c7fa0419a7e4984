// Package nlexpr evaluates scalar expression trees for nonlinear optimization.
//
// A Tree is a flat slice of nodes in which every node's parent sits at a
// smaller position than the node itself, with the root at position 0. Scanning
// the slice backwards therefore visits children before parents, and the two
// evaluators are plain backward loops:
//   - ForwardEval computes every node's value and the partial derivative of
//     each node's parent with respect to it (one reverse-mode seed per node,
//     valid because each node has exactly one parent).
//   - ForwardEvalEps reuses those partials to push up to MaxChunk directional
//     derivatives through the tree at once.
//
// Trees are immutable once built and may be shared between goroutines; each
// goroutine evaluates into its own Storage.
package nlexpr

import (
	"github.com/pkg/errors"
)

// ============================================================
// Node
// ============================================================

// NodeKind is the type tag of a node.
type NodeKind uint8

const (
	KindVariable NodeKind = iota
	KindValue
	KindParameter
	KindSubexpression
	KindCallMultivariate
	KindCallUnivariate
	KindComparison
	KindLogic
)

var kindNames = [...]string{
	KindVariable:         "variable",
	KindValue:            "value",
	KindParameter:        "parameter",
	KindSubexpression:    "subexpression",
	KindCallMultivariate: "multivariate call",
	KindCallUnivariate:   "univariate call",
	KindComparison:       "comparison",
	KindLogic:            "logic",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsLeaf reports whether nodes of this kind read an input slice instead of
// combining children.
func (k NodeKind) IsLeaf() bool { return k <= KindSubexpression }

// Node is one element of a Tree. For leaves Index points into the matching
// input slice; for calls it is the operator id. Parent is -1 for the root.
type Node struct {
	Kind   NodeKind
	Index  int
	Parent int
}

// ============================================================
// Adjacency
// ============================================================

// Adjacency stores the children of every node in compressed sparse column
// form: the children of node k are RowVal[ColPtr[k]:ColPtr[k+1]], left to
// right.
type Adjacency struct {
	ColPtr []int
	RowVal []int
}

func (a *Adjacency) Children(k int) []int  { return a.RowVal[a.ColPtr[k]:a.ColPtr[k+1]] }
func (a *Adjacency) NumChildren(k int) int { return a.ColPtr[k+1] - a.ColPtr[k] }
func (a *Adjacency) FirstChild(k int) int  { return a.RowVal[a.ColPtr[k]] }

// newAdjacency counting-sorts nodes by parent. Siblings keep their position
// order, which is the order they were written in.
func newAdjacency(nodes []Node) Adjacency {
	n := len(nodes)
	colptr := make([]int, n+1)
	for k := 1; k < n; k++ {
		colptr[nodes[k].Parent+1]++
	}
	for k := 0; k < n; k++ {
		colptr[k+1] += colptr[k]
	}
	rowval := make([]int, colptr[n])
	next := make([]int, n)
	copy(next, colptr[:n])
	for k := 1; k < n; k++ {
		p := nodes[k].Parent
		rowval[next[p]] = k
		next[p]++
	}
	return Adjacency{ColPtr: colptr, RowVal: rowval}
}

// ============================================================
// Tree
// ============================================================

// Tree is an immutable expression: its nodes, their adjacency, and the
// constant table that KindValue nodes index into.
type Tree struct {
	Nodes  []Node
	Adj    Adjacency
	Values []float64
}

// NewTree validates nodes and builds their adjacency. The root must be at
// position 0 with Parent -1, every other node's parent must come before it and
// must be a call, leaves must have non-negative indices, and operators with a
// fixed arity must have it.
func NewTree(nodes []Node, values []float64) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, errors.Wrap(ErrInvalidTree, "no nodes")
	}
	if nodes[0].Parent != -1 {
		return nil, errors.Wrapf(ErrInvalidTree, "root has parent %d", nodes[0].Parent)
	}
	for k, node := range nodes {
		if k > 0 {
			p := node.Parent
			if p < 0 || p >= k {
				return nil, errors.Wrapf(ErrInvalidTree, "node %d: parent %d does not precede it", k, p)
			}
			if nodes[p].Kind.IsLeaf() {
				return nil, errors.Wrapf(ErrInvalidTree, "node %d: parent %d is a %s", k, p, nodes[p].Kind)
			}
		}
		if node.Kind > KindLogic {
			return nil, errors.Wrapf(ErrInvalidTree, "node %d: unknown kind %d", k, node.Kind)
		}
		if node.Kind.IsLeaf() && node.Index < 0 {
			return nil, errors.Wrapf(ErrInvalidTree, "node %d: negative %s index %d", k, node.Kind, node.Index)
		}
		if node.Kind == KindValue && node.Index >= len(values) {
			return nil, errors.Wrapf(ErrInvalidTree, "node %d: value index %d out of range", k, node.Index)
		}
	}
	t := &Tree{Nodes: nodes, Adj: newAdjacency(nodes), Values: values}
	for k, node := range nodes {
		if err := checkArity(node, t.Adj.NumChildren(k)); err != nil {
			return nil, errors.Wrapf(err, "node %d", k)
		}
	}
	return t, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// InputSizes returns the minimum lengths of the variable, parameter and
// subexpression inputs the leaves of t reference.
func (t *Tree) InputSizes() (variables, parameters, subexpressions int) {
	for _, node := range t.Nodes {
		switch node.Kind {
		case KindVariable:
			variables = max(variables, node.Index+1)
		case KindParameter:
			parameters = max(parameters, node.Index+1)
		case KindSubexpression:
			subexpressions = max(subexpressions, node.Index+1)
		}
	}
	return
}

func checkArity(node Node, n int) error {
	bad := func(want string) error {
		return errors.Wrapf(ErrInvalidTree, "%s %s takes %s children, has %d",
			node.Kind, operatorName(node.Kind, node.Index), want, n)
	}
	switch node.Kind {
	case KindVariable, KindValue, KindParameter, KindSubexpression:
		if n != 0 {
			return bad("no")
		}
	case KindCallUnivariate:
		if n != 1 {
			return bad("1")
		}
	case KindComparison:
		if n < 2 {
			return bad("at least 2")
		}
	case KindLogic:
		if n != 2 {
			return bad("2")
		}
	case KindCallMultivariate:
		switch node.Index {
		case OpSub:
			if n < 1 || n > 2 {
				return bad("1 or 2")
			}
		case OpPow, OpDiv, OpAtan2:
			if n != 2 {
				return bad("2")
			}
		case OpIfElse:
			if n != 3 {
				return bad("3")
			}
		default:
			if n < 1 {
				return bad("at least 1")
			}
		}
	}
	return nil
}

// ============================================================
// Storage
// ============================================================

// Storage holds the per-node buffers written by the evaluators. It is sized
// once per tree and overwritten on every call.
type Storage struct {
	Forward     []float64
	Partials    []float64
	ForwardEps  []Partials
	PartialsEps []Partials
}

// NewStorage allocates buffers for a tree of n nodes.
func NewStorage(n int) *Storage {
	return &Storage{
		Forward:     make([]float64, n),
		Partials:    make([]float64, n),
		ForwardEps:  make([]Partials, n),
		PartialsEps: make([]Partials, n),
	}
}

// Inputs are the leaf values for ForwardEval. A nil Values falls back to the
// tree's own constant table.
type Inputs struct {
	Variables      []float64
	Values         []float64
	Parameters     []float64
	Subexpressions []float64
}

// EpsInputs are the directional seeds for ForwardEvalEps.
type EpsInputs struct {
	Variables      []Partials
	Subexpressions []Partials
}
