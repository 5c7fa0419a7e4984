package nlexpr

import (
	"math"

	"github.com/pkg/errors"
)

// ============================================================
// Value and partial evaluation
// ============================================================

// ForwardEval overwrites s.Forward with the value of every node of t and
// s.Partials with, for every non-root node, the derivative of its parent with
// respect to it. It returns the root value. ops may be nil to use
// DefaultUnivariateTable.
//
// s must hold at least t.Len() entries and in must cover every index the leaves
// reference; violations panic. On error the buffers must not be trusted.
func ForwardEval(t *Tree, s *Storage, in Inputs, ops *UnivariateTable) (float64, error) {
	if ops == nil {
		ops = DefaultUnivariateTable
	}
	values := in.Values
	if values == nil {
		values = t.Values
	}
	n := len(t.Nodes)
	forward := s.Forward[:n]
	partials := s.Partials[:n]
	colptr, children := t.Adj.ColPtr, t.Adj.RowVal
	partials[0] = 0
	// Parents precede children, so a backward scan is a post-order walk.
	for k := n - 1; k >= 0; k-- {
		node := t.Nodes[k]
		switch node.Kind {
		case KindVariable:
			forward[k] = in.Variables[node.Index]
		case KindValue:
			forward[k] = values[node.Index]
		case KindParameter:
			forward[k] = in.Parameters[node.Index]
		case KindSubexpression:
			forward[k] = in.Subexpressions[node.Index]
		case KindCallMultivariate:
			v, err := evalMultivariate(node.Index, children[colptr[k]:colptr[k+1]], forward, partials)
			if err != nil {
				return 0, err
			}
			forward[k] = v
		case KindCallUnivariate:
			c := children[colptr[k]]
			fx, dfx, err := ops.Eval(node.Index, forward[c])
			if err != nil {
				return 0, err
			}
			forward[k] = fx
			partials[c] = dfx
		case KindComparison:
			if node.Index < 0 || node.Index >= len(comparisonNames) {
				return 0, unsupported(KindComparison, node.Index)
			}
			ch := children[colptr[k]:colptr[k+1]]
			result := true
			for i := 1; i < len(ch); i++ {
				if !compare(node.Index, forward[ch[i-1]], forward[ch[i]]) {
					result = false
					break
				}
			}
			for _, c := range ch {
				partials[c] = 0
			}
			forward[k] = boolValue(result)
		case KindLogic:
			lhs, rhs := children[colptr[k]], children[colptr[k+1]-1]
			a, b := forward[lhs] == 1, forward[rhs] == 1
			partials[lhs], partials[rhs] = 0, 0
			switch node.Index {
			case LogicAnd:
				forward[k] = boolValue(a && b)
			case LogicOr:
				forward[k] = boolValue(a || b)
			default:
				return 0, unsupported(KindLogic, node.Index)
			}
		default:
			return 0, errors.Errorf("nlexpr: node %d has unknown kind %d", k, node.Kind)
		}
	}
	return forward[0], nil
}

// evalMultivariate returns the value of a multivariate call over children ch
// and writes the partial of the call with respect to each child.
func evalMultivariate(op int, ch []int, forward, partials []float64) (float64, error) {
	switch op {
	case OpAdd:
		sum := 0.0
		for _, c := range ch {
			sum += forward[c]
			partials[c] = 1
		}
		return sum, nil
	case OpSub:
		lhs := ch[0]
		if len(ch) == 1 {
			partials[lhs] = -1
			return -forward[lhs], nil
		}
		rhs := ch[1]
		partials[lhs], partials[rhs] = 1, -1
		return forward[lhs] - forward[rhs], nil
	case OpMul:
		prod := 1.0
		for _, c := range ch {
			prod *= forward[c]
		}
		if prod == 0 || len(ch) <= 2 {
			// Product of the others, without dividing. This also keeps binary
			// products exact.
			for _, c := range ch {
				others := 1.0
				for _, c2 := range ch {
					if c2 != c {
						others *= forward[c2]
					}
				}
				partials[c] = others
			}
		} else {
			for _, c := range ch {
				partials[c] = prod / forward[c]
			}
		}
		return prod, nil
	case OpPow:
		base, exp := ch[0], ch[1]
		b, e := forward[base], forward[exp]
		var v float64
		switch e {
		case 2:
			v = b * b
			partials[base] = 2 * b
		case 1:
			v = b
			partials[base] = 1
		default:
			v = math.Pow(b, e)
			partials[base] = e * math.Pow(b, e-1)
		}
		partials[exp] = v * math.Log(b)
		return v, nil
	case OpDiv:
		num, den := ch[0], ch[1]
		r := 1 / forward[den]
		partials[num] = r
		partials[den] = -forward[num] * r * r
		return forward[num] / forward[den], nil
	case OpIfElse:
		cond, then, els := ch[0], ch[1], ch[2]
		partials[cond] = 0
		if forward[cond] == 1 {
			partials[then], partials[els] = 1, 0
			return forward[then], nil
		}
		partials[then], partials[els] = 0, 1
		return forward[els], nil
	case OpAtan2:
		y, x := ch[0], ch[1]
		yv, xv := forward[y], forward[x]
		r := 1 / (xv*xv + yv*yv)
		partials[y] = xv * r
		partials[x] = -yv * r
		return math.Atan2(yv, xv), nil
	case OpMin, OpMax:
		best := ch[0]
		for _, c := range ch[1:] {
			partials[c] = 0
			if (op == OpMin && forward[c] < forward[best]) || (op == OpMax && forward[c] > forward[best]) {
				best = c
			}
		}
		partials[ch[0]] = 0
		partials[best] = 1
		return forward[best], nil
	}
	return 0, unsupported(KindCallMultivariate, op)
}
