package nlexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Expr: nested form
// ============================================================

// Expr is the nested form of an expression. Build flattens it into a Tree.
// For leaves Index is the input index (Value holds the literal of a
// KindValue leaf); for calls Index is the operator id and Args the operands.
type Expr struct {
	Kind  NodeKind
	Index int
	Value float64
	Args  []Expr
}

func Var(i int) Expr       { return Expr{Kind: KindVariable, Index: i} }
func Const(v float64) Expr { return Expr{Kind: KindValue, Value: v} }
func Param(i int) Expr     { return Expr{Kind: KindParameter, Index: i} }
func Subexpr(i int) Expr   { return Expr{Kind: KindSubexpression, Index: i} }

// Call applies multivariate operator op.
func Call(op int, args ...Expr) Expr { return Expr{Kind: KindCallMultivariate, Index: op, Args: args} }

// Univariate applies univariate operator op.
func Univariate(op int, arg Expr) Expr {
	return Expr{Kind: KindCallUnivariate, Index: op, Args: []Expr{arg}}
}

// Compare chains comparison op across args.
func Compare(op int, args ...Expr) Expr { return Expr{Kind: KindComparison, Index: op, Args: args} }

func And(a, b Expr) Expr { return Expr{Kind: KindLogic, Index: LogicAnd, Args: []Expr{a, b}} }
func Or(a, b Expr) Expr  { return Expr{Kind: KindLogic, Index: LogicOr, Args: []Expr{a, b}} }

func AddOf(args ...Expr) Expr     { return Call(OpAdd, args...) }
func SubOf(a, b Expr) Expr        { return Call(OpSub, a, b) }
func NegOf(a Expr) Expr           { return Call(OpSub, a) }
func MulOf(args ...Expr) Expr     { return Call(OpMul, args...) }
func PowOf(base, exp Expr) Expr   { return Call(OpPow, base, exp) }
func DivOf(num, den Expr) Expr    { return Call(OpDiv, num, den) }
func IfElseOf(c, a, b Expr) Expr  { return Call(OpIfElse, c, a, b) }
func Atan2Of(y, x Expr) Expr      { return Call(OpAtan2, y, x) }
func MinOf(args ...Expr) Expr     { return Call(OpMin, args...) }
func MaxOf(args ...Expr) Expr     { return Call(OpMax, args...) }
func SinOf(arg Expr) Expr         { return FuncOf("sin", arg) }
func CosOf(arg Expr) Expr         { return FuncOf("cos", arg) }
func ExpOf(arg Expr) Expr         { return FuncOf("exp", arg) }
func LogOf(arg Expr) Expr         { return FuncOf("log", arg) }
func SqrtOf(arg Expr) Expr        { return FuncOf("sqrt", arg) }
func LessEqOf(args ...Expr) Expr  { return Compare(CmpLessEq, args...) }
func GreaterOf(args ...Expr) Expr { return Compare(CmpGreater, args...) }

// FuncOf applies the DefaultUnivariateTable operator called name. It panics
// on an unknown name.
func FuncOf(name string, arg Expr) Expr {
	id, ok := DefaultUnivariateTable.Lookup(name)
	if !ok {
		panic("nlexpr: unknown univariate operator " + strconv.Quote(name))
	}
	return Univariate(id, arg)
}

// ============================================================
// Build: nested form to Tree
// ============================================================

// Build flattens e into a Tree by a depth-first pre-order walk, which puts
// every parent before its children and keeps arguments in order. KindValue
// leaves are numbered in the order they are met.
func Build(e Expr) (*Tree, error) {
	type item struct {
		e      *Expr
		parent int
	}
	var (
		nodes  []Node
		values []float64
	)
	stack := []item{{&e, -1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := Node{Kind: it.e.Kind, Index: it.e.Index, Parent: it.parent}
		if it.e.Kind == KindValue {
			node.Index = len(values)
			values = append(values, it.e.Value)
		}
		k := len(nodes)
		nodes = append(nodes, node)
		for i := len(it.e.Args) - 1; i >= 0; i-- {
			stack = append(stack, item{&it.e.Args[i], k})
		}
	}
	return NewTree(nodes, values)
}

// Expr rebuilds the nested form of t.
func (t *Tree) Expr() Expr {
	exprs := make([]Expr, t.Len())
	for k := t.Len() - 1; k >= 0; k-- {
		node := t.Nodes[k]
		e := Expr{Kind: node.Kind, Index: node.Index}
		if node.Kind == KindValue {
			e.Index, e.Value = 0, t.Values[node.Index]
		}
		for _, c := range t.Adj.Children(k) {
			e.Args = append(e.Args, exprs[c])
		}
		exprs[k] = e
	}
	return exprs[0]
}

// ============================================================
// Printing
// ============================================================

// piece is literal text, or with node >= 0 a subtree still to be rendered.
type piece struct {
	node int
	text string
}

func lit(s string) piece { return piece{node: -1, text: s} }
func sub(k int) piece    { return piece{node: k} }

// render walks t depth first on an explicit stack. expand returns the
// pieces of node k in output order.
func (t *Tree) render(expand func(k int) []piece) string {
	var sb strings.Builder
	stack := []piece{sub(0)}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.node < 0 {
			sb.WriteString(p.text)
			continue
		}
		ps := expand(p.node)
		for i := len(ps) - 1; i >= 0; i-- {
			stack = append(stack, ps[i])
		}
	}
	return sb.String()
}

// join lists ch between open and end, separated by sep.
func join(open string, ch []int, sep, end string) []piece {
	ps := make([]piece, 0, 2*len(ch)+1)
	ps = append(ps, lit(open))
	for i, c := range ch {
		if i > 0 {
			ps = append(ps, lit(sep))
		}
		ps = append(ps, sub(c))
	}
	return append(ps, lit(end))
}

// String renders t in infix form, naming leaves x[i], p[i] and s[i].
func (t *Tree) String() string { return t.render(t.format) }

func (t *Tree) format(k int) []piece {
	node := t.Nodes[k]
	ch := t.Adj.Children(k)
	switch node.Kind {
	case KindVariable:
		return []piece{lit(fmt.Sprintf("x[%d]", node.Index))}
	case KindValue:
		return []piece{lit(strconv.FormatFloat(t.Values[node.Index], 'g', -1, 64))}
	case KindParameter:
		return []piece{lit(fmt.Sprintf("p[%d]", node.Index))}
	case KindSubexpression:
		return []piece{lit(fmt.Sprintf("s[%d]", node.Index))}
	case KindCallMultivariate:
		name := operatorName(node.Kind, node.Index)
		switch {
		case node.Index == OpSub && len(ch) == 1:
			return []piece{lit("-"), sub(ch[0])}
		case node.Index <= OpDiv:
			return join("(", ch, " "+name+" ", ")")
		default:
			return join(name+"(", ch, ", ", ")")
		}
	case KindCallUnivariate:
		return join(operatorName(node.Kind, node.Index)+"(", ch, ", ", ")")
	case KindComparison, KindLogic:
		return join("(", ch, " "+operatorName(node.Kind, node.Index)+" ", ")")
	}
	return nil
}
