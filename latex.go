package nlexpr

import (
	"fmt"
	"strconv"
)

// ============================================================
// LaTeX
// ============================================================

// LaTeX renders t for display, naming leaves x_{i}, p_{i} and s_{i}.
// Univariate names come from DefaultUnivariateTable.
func (t *Tree) LaTeX() string { return t.render(t.latex) }

var latexComparison = [...]string{
	CmpLessEq:    " \\le ",
	CmpEq:        " = ",
	CmpGreaterEq: " \\ge ",
	CmpLess:      " < ",
	CmpGreater:   " > ",
}

func (t *Tree) latex(k int) []piece {
	node := t.Nodes[k]
	ch := t.Adj.Children(k)
	switch node.Kind {
	case KindVariable:
		return []piece{lit(fmt.Sprintf("x_{%d}", node.Index))}
	case KindValue:
		return []piece{lit(strconv.FormatFloat(t.Values[node.Index], 'g', -1, 64))}
	case KindParameter:
		return []piece{lit(fmt.Sprintf("p_{%d}", node.Index))}
	case KindSubexpression:
		return []piece{lit(fmt.Sprintf("s_{%d}", node.Index))}
	case KindCallUnivariate:
		return t.latexFunc(operatorName(node.Kind, node.Index), ch[0])
	case KindComparison:
		sep := " ? "
		if node.Index >= 0 && node.Index < len(latexComparison) {
			sep = latexComparison[node.Index]
		}
		return t.latexJoin(ch, sep, false)
	case KindLogic:
		sep := " \\lor "
		if node.Index == LogicAnd {
			sep = " \\land "
		}
		return t.latexJoin(ch, sep, true)
	}

	switch node.Index {
	case OpAdd:
		return t.latexJoin(ch, " + ", false)
	case OpSub:
		if len(ch) == 1 {
			return append([]piece{lit("-")}, t.grouped(ch[0], false)...)
		}
		return append([]piece{sub(ch[0]), lit(" - ")}, t.grouped(ch[1], false)...)
	case OpMul:
		return t.latexJoin(ch, " \\cdot ", true)
	case OpPow:
		return append(t.grouped(ch[0], true), lit("^{"), sub(ch[1]), lit("}"))
	case OpDiv:
		return []piece{lit("\\frac{"), sub(ch[0]), lit("}{"), sub(ch[1]), lit("}")}
	case OpIfElse:
		return []piece{
			lit("\\begin{cases} "), sub(ch[1]), lit(" & \\text{if } "), sub(ch[0]),
			lit(" \\\\ "), sub(ch[2]), lit(" & \\text{otherwise} \\end{cases}"),
		}
	case OpAtan2:
		return join("\\operatorname{atan2}\\left(", ch, ", ", "\\right)")
	case OpMin, OpMax:
		return join("\\"+operatorName(node.Kind, node.Index)+"\\left(", ch, ", ", "\\right)")
	}
	return join("\\operatorname{"+operatorName(node.Kind, node.Index)+"}\\left(", ch, ", ", "\\right)")
}

func (t *Tree) latexJoin(ch []int, sep string, group bool) []piece {
	var ps []piece
	for i, c := range ch {
		if i > 0 {
			ps = append(ps, lit(sep))
		}
		if group {
			ps = append(ps, t.grouped(c, false)...)
		} else {
			ps = append(ps, sub(c))
		}
	}
	return ps
}

// grouped wraps node k in \left( \right) when it binds looser than a product
// or, with strict set, whenever it is not a plain leaf.
func (t *Tree) grouped(k int, strict bool) []piece {
	node := t.Nodes[k]
	wrap := false
	switch {
	case node.Kind == KindValue:
		wrap = t.Values[node.Index] < 0
	case node.Kind.IsLeaf():
	case strict:
		wrap = true
	case node.Kind == KindComparison, node.Kind == KindLogic:
		wrap = true
	case node.Kind == KindCallMultivariate:
		wrap = node.Index == OpAdd || node.Index == OpSub
	}
	if wrap {
		return []piece{lit("\\left("), sub(k), lit("\\right)")}
	}
	return []piece{sub(k)}
}

func (t *Tree) latexFunc(name string, c int) []piece {
	around := func(open, end string) []piece { return []piece{lit(open), sub(c), lit(end)} }
	switch name {
	case "+":
		return []piece{sub(c)}
	case "-":
		return append([]piece{lit("-")}, t.grouped(c, false)...)
	case "sqrt":
		return around("\\sqrt{", "}")
	case "cbrt":
		return around("\\sqrt[3]{", "}")
	case "abs":
		return around("\\left|", "\\right|")
	case "abs2":
		return around("\\left|", "\\right|^{2}")
	case "inv":
		return around("\\frac{1}{", "}")
	case "log":
		return around("\\ln\\left(", "\\right)")
	case "sin", "cos", "tan", "sec", "csc", "cot", "exp", "sinh", "cosh", "tanh", "coth":
		return around("\\"+name+"\\left(", "\\right)")
	case "asin":
		return around("\\arcsin\\left(", "\\right)")
	case "acos":
		return around("\\arccos\\left(", "\\right)")
	case "atan":
		return around("\\arctan\\left(", "\\right)")
	case "gamma":
		return around("\\Gamma\\left(", "\\right)")
	case "digamma":
		return around("\\psi\\left(", "\\right)")
	}
	return around("\\operatorname{"+name+"}\\left(", "\\right)")
}
