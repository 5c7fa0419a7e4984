package nlexpr

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mathext"
)

// ============================================================
// Univariate operator rule table
// ============================================================

// UnivariateRule is one entry of the table. Eval returns the function value
// and its first derivative together; Second returns the second derivative
// given x and the already computed f(x), and is nil when the operator has no
// closed-form second derivative.
type UnivariateRule struct {
	Name   string
	Eval   func(x float64) (fx, dfx float64)
	Second func(x, fx float64) float64
}

// UnivariateTable is a dense, id-indexed table of univariate rules. A table is
// read-only once shared: Register must not race with evaluation.
type UnivariateTable struct {
	rules []UnivariateRule
	index map[string]int
}

// DefaultUnivariateTable holds the built-in catalog.
var DefaultUnivariateTable = NewUnivariateTable()

// NewUnivariateTable returns a table holding the built-in catalog, ids in
// catalog order.
func NewUnivariateTable() *UnivariateTable {
	t := &UnivariateTable{index: make(map[string]int, len(univariateCatalog))}
	for _, r := range univariateCatalog {
		if _, err := t.Register(r.Name, r.Eval, r.Second); err != nil {
			panic(err)
		}
	}
	return t
}

// Register appends a rule and returns its id. second may be nil.
func (t *UnivariateTable) Register(name string, eval func(float64) (float64, float64), second func(x, fx float64) float64) (int, error) {
	if _, ok := t.index[name]; ok {
		return -1, errors.Wrapf(ErrDuplicateOperator, "%q", name)
	}
	if eval == nil {
		return -1, errors.Errorf("nlexpr: operator %q has no evaluation rule", name)
	}
	id := len(t.rules)
	t.rules = append(t.rules, UnivariateRule{Name: name, Eval: eval, Second: second})
	t.index[name] = id
	return id, nil
}

// Eval returns f(x) and f'(x) for operator id.
func (t *UnivariateTable) Eval(id int, x float64) (fx, dfx float64, err error) {
	if id < 0 || id >= len(t.rules) {
		return 0, 0, unsupported(KindCallUnivariate, id)
	}
	fx, dfx = t.rules[id].Eval(x)
	return fx, dfx, nil
}

// SecondDerivative returns f''(x) for operator id, given fx = f(x).
func (t *UnivariateTable) SecondDerivative(id int, x, fx float64) (float64, error) {
	if id < 0 || id >= len(t.rules) {
		return 0, unsupported(KindCallUnivariate, id)
	}
	second := t.rules[id].Second
	if second == nil {
		return 0, &UnsupportedOperatorError{Kind: KindCallUnivariate, ID: id, SecondOrder: true}
	}
	return second(x, fx), nil
}

func (t *UnivariateTable) Lookup(name string) (int, bool) {
	id, ok := t.index[name]
	return id, ok
}

func (t *UnivariateTable) Name(id int) string {
	if id < 0 || id >= len(t.rules) {
		return "#" + strconv.Itoa(id)
	}
	return t.rules[id].Name
}

func (t *UnivariateTable) Len() int { return len(t.rules) }

// HasSecondDerivative reports whether id can be used by ForwardEvalEps.
func (t *UnivariateTable) HasSecondDerivative(id int) bool {
	return id >= 0 && id < len(t.rules) && t.rules[id].Second != nil
}

// Names lists the operator names in id order.
func (t *UnivariateTable) Names() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// ============================================================
// Catalog
// ============================================================

const (
	degToRad  = math.Pi / 180
	radToDeg  = 180 / math.Pi
	twoSqrtPi = 2 / math.SqrtPi // d/dx erf(x) at 0
	halfSqrt  = math.SqrtPi / 2
)

var univariateCatalog = []UnivariateRule{
	{"+", func(x float64) (float64, float64) { return x, 1 }, zeroSecond},
	{"-", func(x float64) (float64, float64) { return -x, -1 }, zeroSecond},
	{"abs", func(x float64) (float64, float64) {
		if x >= 0 {
			return x, 1
		}
		return -x, -1
	}, zeroSecond},
	{"sqrt", func(x float64) (float64, float64) {
		f := math.Sqrt(x)
		return f, 0.5 / f
	}, func(x, f float64) float64 { return -0.25 / (x * f) }},
	{"cbrt", func(x float64) (float64, float64) {
		f := math.Cbrt(x)
		return f, 1 / (3 * f * f)
	}, func(x, f float64) float64 { return -2 / (9 * x * f * f) }},
	{"abs2", func(x float64) (float64, float64) { return x * x, 2 * x },
		func(x, f float64) float64 { return 2 }},
	{"inv", func(x float64) (float64, float64) {
		f := 1 / x
		return f, -f * f
	}, func(x, f float64) float64 { return 2 * f * f * f }},
	{"log", func(x float64) (float64, float64) { return math.Log(x), 1 / x },
		func(x, f float64) float64 { return -1 / (x * x) }},
	{"log10", func(x float64) (float64, float64) { return math.Log10(x), 1 / (x * math.Ln10) },
		func(x, f float64) float64 { return -1 / (x * x * math.Ln10) }},
	{"log2", func(x float64) (float64, float64) { return math.Log2(x), 1 / (x * math.Ln2) },
		func(x, f float64) float64 { return -1 / (x * x * math.Ln2) }},
	{"log1p", func(x float64) (float64, float64) { return math.Log1p(x), 1 / (1 + x) },
		func(x, f float64) float64 { return -1 / ((1 + x) * (1 + x)) }},
	{"exp", func(x float64) (float64, float64) {
		f := math.Exp(x)
		return f, f
	}, func(x, f float64) float64 { return f }},
	{"exp2", func(x float64) (float64, float64) {
		f := math.Exp2(x)
		return f, f * math.Ln2
	}, func(x, f float64) float64 { return f * math.Ln2 * math.Ln2 }},
	{"expm1", func(x float64) (float64, float64) { return math.Expm1(x), math.Exp(x) },
		func(x, f float64) float64 { return f + 1 }},
	{"sin", func(x float64) (float64, float64) {
		s, c := math.Sincos(x)
		return s, c
	}, func(x, f float64) float64 { return -f }},
	{"cos", func(x float64) (float64, float64) {
		s, c := math.Sincos(x)
		return c, -s
	}, func(x, f float64) float64 { return -f }},
	{"tan", func(x float64) (float64, float64) {
		f := math.Tan(x)
		return f, 1 + f*f
	}, func(x, f float64) float64 { return 2 * f * (1 + f*f) }},
	{"sec", func(x float64) (float64, float64) {
		f := 1 / math.Cos(x)
		return f, f * math.Tan(x)
	}, func(x, f float64) float64 {
		t := math.Tan(x)
		return f * (t*t + f*f)
	}},
	{"csc", func(x float64) (float64, float64) {
		f := 1 / math.Sin(x)
		return f, -f / math.Tan(x)
	}, func(x, f float64) float64 {
		c := 1 / math.Tan(x)
		return f * (c*c + f*f)
	}},
	{"cot", func(x float64) (float64, float64) {
		f := 1 / math.Tan(x)
		return f, -(1 + f*f)
	}, func(x, f float64) float64 { return 2 * f * (1 + f*f) }},
	{"sind", func(x float64) (float64, float64) {
		s, c := math.Sincos(x * degToRad)
		return s, degToRad * c
	}, func(x, f float64) float64 { return -degToRad * degToRad * f }},
	{"cosd", func(x float64) (float64, float64) {
		s, c := math.Sincos(x * degToRad)
		return c, -degToRad * s
	}, func(x, f float64) float64 { return -degToRad * degToRad * f }},
	{"tand", func(x float64) (float64, float64) {
		f := math.Tan(x * degToRad)
		return f, degToRad * (1 + f*f)
	}, func(x, f float64) float64 { return 2 * degToRad * degToRad * f * (1 + f*f) }},
	{"asin", func(x float64) (float64, float64) { return math.Asin(x), 1 / math.Sqrt(1-x*x) },
		func(x, f float64) float64 { return x / math.Pow(1-x*x, 1.5) }},
	{"acos", func(x float64) (float64, float64) { return math.Acos(x), -1 / math.Sqrt(1-x*x) },
		func(x, f float64) float64 { return -x / math.Pow(1-x*x, 1.5) }},
	{"atan", func(x float64) (float64, float64) { return math.Atan(x), 1 / (1 + x*x) },
		func(x, f float64) float64 { return -2 * x / ((1 + x*x) * (1 + x*x)) }},
	// asec, acsc and acsch have |x| in their derivative and no second
	// derivative entry.
	{"asec", func(x float64) (float64, float64) {
		return math.Acos(1 / x), 1 / (math.Abs(x) * math.Sqrt(x*x-1))
	}, nil},
	{"acsc", func(x float64) (float64, float64) {
		return math.Asin(1 / x), -1 / (math.Abs(x) * math.Sqrt(x*x-1))
	}, nil},
	{"acot", func(x float64) (float64, float64) { return math.Atan(1 / x), -1 / (1 + x*x) },
		func(x, f float64) float64 { return 2 * x / ((1 + x*x) * (1 + x*x)) }},
	{"sinh", func(x float64) (float64, float64) { return math.Sinh(x), math.Cosh(x) },
		func(x, f float64) float64 { return f }},
	{"cosh", func(x float64) (float64, float64) { return math.Cosh(x), math.Sinh(x) },
		func(x, f float64) float64 { return f }},
	{"tanh", func(x float64) (float64, float64) {
		f := math.Tanh(x)
		return f, 1 - f*f
	}, func(x, f float64) float64 { return -2 * f * (1 - f*f) }},
	{"sech", func(x float64) (float64, float64) {
		f := 1 / math.Cosh(x)
		return f, -f * math.Tanh(x)
	}, func(x, f float64) float64 {
		t := math.Tanh(x)
		return f * (t*t - f*f)
	}},
	{"csch", func(x float64) (float64, float64) {
		f := 1 / math.Sinh(x)
		return f, -f / math.Tanh(x)
	}, func(x, f float64) float64 {
		c := 1 / math.Tanh(x)
		return f * (c*c + f*f)
	}},
	{"coth", func(x float64) (float64, float64) {
		f := 1 / math.Tanh(x)
		return f, 1 - f*f
	}, func(x, f float64) float64 { return -2 * f * (1 - f*f) }},
	{"asinh", func(x float64) (float64, float64) { return math.Asinh(x), 1 / math.Sqrt(x*x+1) },
		func(x, f float64) float64 { return -x / math.Pow(x*x+1, 1.5) }},
	{"acosh", func(x float64) (float64, float64) { return math.Acosh(x), 1 / math.Sqrt(x*x-1) },
		func(x, f float64) float64 { return -x / math.Pow(x*x-1, 1.5) }},
	{"atanh", func(x float64) (float64, float64) { return math.Atanh(x), 1 / (1 - x*x) },
		func(x, f float64) float64 { return 2 * x / ((1 - x*x) * (1 - x*x)) }},
	{"asech", func(x float64) (float64, float64) {
		return math.Acosh(1 / x), -1 / (x * math.Sqrt(1-x*x))
	}, func(x, f float64) float64 { return (1 - 2*x*x) / (x * x * math.Pow(1-x*x, 1.5)) }},
	{"acsch", func(x float64) (float64, float64) {
		return math.Asinh(1 / x), -1 / (math.Abs(x) * math.Sqrt(1+x*x))
	}, nil},
	{"acoth", func(x float64) (float64, float64) { return math.Atanh(1 / x), 1 / (1 - x*x) },
		func(x, f float64) float64 { return 2 * x / ((1 - x*x) * (1 - x*x)) }},
	{"deg2rad", func(x float64) (float64, float64) { return x * degToRad, degToRad }, zeroSecond},
	{"rad2deg", func(x float64) (float64, float64) { return x * radToDeg, radToDeg }, zeroSecond},
	{"erf", func(x float64) (float64, float64) { return math.Erf(x), twoSqrtPi * math.Exp(-x*x) },
		func(x, f float64) float64 { return -2 * x * twoSqrtPi * math.Exp(-x*x) }},
	{"erfc", func(x float64) (float64, float64) { return math.Erfc(x), -twoSqrtPi * math.Exp(-x*x) },
		func(x, f float64) float64 { return 2 * x * twoSqrtPi * math.Exp(-x*x) }},
	{"erfinv", func(x float64) (float64, float64) {
		f := math.Erfinv(x)
		return f, halfSqrt * math.Exp(f*f)
	}, func(x, f float64) float64 {
		df := halfSqrt * math.Exp(f*f)
		return 2 * f * df * df
	}},
	{"erfcinv", func(x float64) (float64, float64) {
		f := math.Erfcinv(x)
		return f, -halfSqrt * math.Exp(f*f)
	}, func(x, f float64) float64 {
		df := halfSqrt * math.Exp(f*f)
		return 2 * f * df * df
	}},
	{"gamma", func(x float64) (float64, float64) {
		f := math.Gamma(x)
		return f, f * mathext.Digamma(x)
	}, func(x, f float64) float64 {
		psi := mathext.Digamma(x)
		return f * (psi*psi + trigamma(x))
	}},
	{"lgamma", func(x float64) (float64, float64) {
		f, _ := math.Lgamma(x)
		return f, mathext.Digamma(x)
	}, func(x, f float64) float64 { return trigamma(x) }},
	{"digamma", func(x float64) (float64, float64) { return mathext.Digamma(x), trigamma(x) },
		func(x, f float64) float64 { return tetragamma(x) }},
	// The derivative of tetragamma is not in the catalog.
	{"trigamma", func(x float64) (float64, float64) { return trigamma(x), tetragamma(x) }, nil},
}

func zeroSecond(x, fx float64) float64 { return 0 }

// trigamma is ψ'(x) = ζ(2, x), reflected for x <= 0. NaN is returned as is.
func trigamma(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	if x > 0 {
		return mathext.Zeta(2, x)
	}
	s := math.Sin(math.Pi * x)
	return math.Pi*math.Pi/(s*s) - trigamma(1-x)
}

// tetragamma is ψ''(x) = -2ζ(3, x), reflected for x <= 0. NaN is returned as is.
func tetragamma(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	if x > 0 {
		return -2 * mathext.Zeta(3, x)
	}
	s, c := math.Sincos(math.Pi * x)
	return tetragamma(1-x) - 2*math.Pi*math.Pi*math.Pi*c/(s*s*s)
}
