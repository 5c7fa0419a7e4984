package nlexpr_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/num/dual"

	"github.com/njchilds90/nlexpr"
)

// ============================================================
// Partials and Dual
// ============================================================

// lanes checks every direction of got against gonum's single-direction dual
// numbers.
func lanes(t *testing.T, op string, got nlexpr.Dual, a, b nlexpr.Dual, f func(a, b dual.Number) dual.Number) {
	t.Helper()
	for j := 0; j < nlexpr.MaxChunk; j++ {
		want := f(dual.Number{Real: a.Value, Emag: a.Eps[j]}, dual.Number{Real: b.Value, Emag: b.Eps[j]})
		if !scalar.EqualWithinAbsOrRel(got.Value, want.Real, 1e-13, 1e-13) {
			t.Errorf("%s value: want %v, got %v", op, want.Real, got.Value)
		}
		if !scalar.EqualWithinAbsOrRel(got.Eps[j], want.Emag, 1e-13, 1e-13) {
			t.Errorf("%s direction %d: want %v, got %v", op, j, want.Emag, got.Eps[j])
		}
	}
}

func TestDual_MatchesGonumDual(t *testing.T) {
	a := nlexpr.Dual{Value: 1.5, Eps: nlexpr.NewPartials(1, 2, 0, -0.5)}
	b := nlexpr.Dual{Value: 0.7, Eps: nlexpr.NewPartials(3, -1, 0.25)}

	lanes(t, "add", a.Add(b), a, b, func(x, y dual.Number) dual.Number { return dual.Add(x, y) })
	lanes(t, "sub", a.Sub(b), a, b, func(x, y dual.Number) dual.Number { return dual.Sub(x, y) })
	lanes(t, "mul", a.Mul(b), a, b, func(x, y dual.Number) dual.Number { return dual.Mul(x, y) })
	lanes(t, "div", a.Div(b), a, b, func(x, y dual.Number) dual.Number { return dual.Mul(x, dual.Inv(y)) })
	lanes(t, "inv", b.Inv(), a, b, func(_, y dual.Number) dual.Number { return dual.Inv(y) })
	lanes(t, "log", a.Log(), a, b, func(x, _ dual.Number) dual.Number { return dual.Log(x) })
	lanes(t, "pow", a.Pow(b), a, b, func(x, y dual.Number) dual.Number { return dual.Pow(x, y) })
	lanes(t, "scale", a.Scale(3), a, b, func(x, _ dual.Number) dual.Number { return dual.Scale(3, x) })
	lanes(t, "neg", a.Neg(), a, b, func(x, _ dual.Number) dual.Number { return dual.Scale(-1, x) })
}

func TestDual_PowConstantExponentOverNegativeBase(t *testing.T) {
	got := nlexpr.Dual{Value: -2, Eps: nlexpr.NewPartials(1)}.Pow(nlexpr.Real(3))
	if got.Value != -8 || got.Eps[0] != 12 {
		t.Errorf("want -8 with slope 12, got %v with %v", got.Value, got.Eps[0])
	}
	for _, e := range got.Eps {
		if math.IsNaN(e) {
			t.Fatalf("NaN leaked into %v", got.Eps)
		}
	}
}

func TestDual_PowZeroBase(t *testing.T) {
	got := nlexpr.Dual{Value: 0, Eps: nlexpr.NewPartials(1)}.Pow(nlexpr.Dual{Value: 2, Eps: nlexpr.NewPartials(1)})
	if got.Value != 0 || got.Eps[0] != 0 {
		t.Errorf("want 0 with slope 0, got %v with %v", got.Value, got.Eps[0])
	}
}

func TestPartials(t *testing.T) {
	p := nlexpr.NewPartials(1, 2)
	q := nlexpr.NewPartials(0, 1, 4)
	if got := p.Add(q); got != nlexpr.NewPartials(1, 3, 4) {
		t.Errorf("Add: want [1 3 4 ...], got %v", got)
	}
	if got := p.Scale(-2); got != nlexpr.NewPartials(-2, -4) {
		t.Errorf("Scale: want [-2 -4 ...], got %v", got)
	}
	if p.IsZero() || !(nlexpr.Partials{}).IsZero() {
		t.Error("IsZero misreports")
	}
}

func TestNewPartials_TooMany(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want a panic for more than MaxChunk components")
		}
	}()
	nlexpr.NewPartials(make([]float64, nlexpr.MaxChunk+1)...)
}
