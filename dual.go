package nlexpr

import "math"

// ============================================================
// Partials and Dual: N simultaneous directions
// ============================================================

// MaxChunk is the number of directions carried by Partials. Callers needing
// fewer seed the leading components and leave the rest zero.
const MaxChunk = 10

// Partials holds one component per direction.
type Partials [MaxChunk]float64

// NewPartials returns Partials with the leading components set to c. It
// panics if len(c) > MaxChunk.
func NewPartials(c ...float64) Partials {
	if len(c) > MaxChunk {
		panic("nlexpr: more than MaxChunk directions")
	}
	var p Partials
	copy(p[:], c)
	return p
}

func (p Partials) Add(q Partials) Partials {
	for i := range p {
		p[i] += q[i]
	}
	return p
}

func (p Partials) Scale(s float64) Partials {
	for i := range p {
		p[i] *= s
	}
	return p
}

func (p Partials) IsZero() bool { return p == Partials{} }

// addScaled accumulates s*q into p in place.
func (p *Partials) addScaled(q *Partials, s float64) {
	for i := range p {
		p[i] += s * q[i]
	}
}

// Dual is a value with its derivatives along MaxChunk directions.
type Dual struct {
	Value float64
	Eps   Partials
}

// Real returns a dual with no directional part.
func Real(v float64) Dual { return Dual{Value: v} }

func (a Dual) Add(b Dual) Dual { return Dual{a.Value + b.Value, a.Eps.Add(b.Eps)} }
func (a Dual) Sub(b Dual) Dual { return Dual{a.Value - b.Value, a.Eps.Add(b.Eps.Scale(-1))} }
func (a Dual) Neg() Dual       { return Dual{-a.Value, a.Eps.Scale(-1)} }

func (a Dual) Scale(s float64) Dual { return Dual{s * a.Value, a.Eps.Scale(s)} }

func (a Dual) Mul(b Dual) Dual {
	d := Dual{Value: a.Value * b.Value}
	for i := range d.Eps {
		d.Eps[i] = a.Value*b.Eps[i] + b.Value*a.Eps[i]
	}
	return d
}

// Inv returns 1/a.
func (a Dual) Inv() Dual {
	r := 1 / a.Value
	return Dual{r, a.Eps.Scale(-r * r)}
}

func (a Dual) Div(b Dual) Dual { return a.Mul(b.Inv()) }

// Log returns the natural logarithm of a.
func (a Dual) Log() Dual { return Dual{math.Log(a.Value), a.Eps.Scale(1 / a.Value)} }

// Pow returns a^b. The logarithmic term is dropped when b carries no
// direction, so a negative base with a constant exponent stays finite, and it
// is zero for a zero base raised to a positive power.
func (a Dual) Pow(b Dual) Dual {
	v := math.Pow(a.Value, b.Value)
	d := Dual{Value: v, Eps: a.Eps.Scale(b.Value * math.Pow(a.Value, b.Value-1))}
	if b.Eps.IsZero() || (a.Value == 0 && b.Value > 0) {
		return d
	}
	d.Eps.addScaled(&b.Eps, v*math.Log(a.Value))
	return d
}
