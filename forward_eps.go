package nlexpr

import (
	"math"

	"github.com/pkg/errors"
)

// ============================================================
// Directional evaluation
// ============================================================

// ForwardEvalEps overwrites s.ForwardEps with the directional derivative of
// every node along the seeds in in, and s.PartialsEps with the directional
// derivative of each entry of s.Partials. It returns the root's directional
// derivative.
//
// ForwardEval must have been run on the same tree, storage and input point
// first; this is not checked. s.Forward and s.Partials are only read. Trees
// holding a univariate operator without a second derivative fail with an
// *UnsupportedOperatorError.
func ForwardEvalEps(t *Tree, s *Storage, in EpsInputs, ops *UnivariateTable) (Partials, error) {
	if ops == nil {
		ops = DefaultUnivariateTable
	}
	n := len(t.Nodes)
	forward := s.Forward[:n]
	partials := s.Partials[:n]
	fEps := s.ForwardEps[:n]
	pEps := s.PartialsEps[:n]
	colptr, children := t.Adj.ColPtr, t.Adj.RowVal
	for k := n - 1; k >= 0; k-- {
		node := t.Nodes[k]
		// Written here for the root; the parent overwrites it for other nodes.
		pEps[k] = Partials{}
		switch node.Kind {
		case KindVariable:
			fEps[k] = in.Variables[node.Index]
			continue
		case KindValue, KindParameter:
			fEps[k] = Partials{}
			continue
		case KindSubexpression:
			fEps[k] = in.Subexpressions[node.Index]
			continue
		case KindCallMultivariate, KindCallUnivariate, KindComparison, KindLogic:
		default:
			return Partials{}, errors.Errorf("nlexpr: node %d has unknown kind %d", k, node.Kind)
		}
		ch := children[colptr[k]:colptr[k+1]]
		var acc Partials
		for _, c := range ch {
			p := partials[c]
			// A constant exponent over a negative base has a NaN partial that
			// must not leak into the sum.
			if (math.IsNaN(p) || math.IsInf(p, 0)) && fEps[c].IsZero() {
				continue
			}
			acc.addScaled(&fEps[c], p)
		}
		fEps[k] = acc
		switch node.Kind {
		case KindCallMultivariate:
			if err := evalMultivariateEps(node.Index, k, ch, forward, fEps, pEps); err != nil {
				return Partials{}, err
			}
		case KindCallUnivariate:
			c := ch[0]
			d2, err := ops.SecondDerivative(node.Index, forward[c], forward[k])
			if err != nil {
				return Partials{}, err
			}
			pEps[c] = fEps[c].Scale(d2)
		}
		// Comparison and logic partials are constant zero.
	}
	return fEps[0], nil
}

// evalMultivariateEps writes the directional derivative of the partials of
// node k with respect to each child. Operators whose partials are locally
// constant leave the zeros written when each child was visited.
func evalMultivariateEps(op, k int, ch []int, forward []float64, fEps, pEps []Partials) error {
	dual := func(c int) Dual { return Dual{forward[c], fEps[c]} }
	switch op {
	case OpAdd, OpSub, OpIfElse, OpMin, OpMax:
		return nil
	case OpMul:
		prod := Real(1)
		for _, c := range ch {
			prod = prod.Mul(dual(c))
		}
		if prod.Value == 0 || len(ch) <= 2 {
			for _, c := range ch {
				others := Real(1)
				for _, c2 := range ch {
					if c2 != c {
						others = others.Mul(dual(c2))
					}
				}
				pEps[c] = others.Eps
			}
			return nil
		}
		for _, c := range ch {
			pEps[c] = prod.Div(dual(c)).Eps
		}
		return nil
	case OpPow:
		base, exp := ch[0], ch[1]
		b, e := dual(base), dual(exp)
		switch e.Value {
		case 2:
			pEps[base] = b.Eps.Scale(2)
		case 1:
			pEps[base] = Partials{}
		default:
			pEps[base] = e.Mul(b.Pow(e.Sub(Real(1)))).Eps
		}
		result := Dual{forward[k], fEps[k]}
		pEps[exp] = result.Mul(b.Log()).Eps
		return nil
	case OpDiv:
		num, den := dual(ch[0]), dual(ch[1])
		r := den.Inv()
		pEps[ch[0]] = r.Eps
		pEps[ch[1]] = num.Neg().Mul(r).Mul(r).Eps
		return nil
	case OpAtan2:
		y, x := dual(ch[0]), dual(ch[1])
		r := x.Mul(x).Add(y.Mul(y)).Inv()
		pEps[ch[0]] = x.Mul(r).Eps
		pEps[ch[1]] = y.Neg().Mul(r).Eps
		return nil
	}
	return unsupported(KindCallMultivariate, op)
}
