package nlexpr

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Problem: an expression with its inputs
// ============================================================

// Problem bundles an expression with one input point and, optionally,
// directional seeds. Seeds[i] holds the components of variable i along each
// direction; missing rows and components are zero.
type Problem struct {
	Expr               Expr
	Variables          []float64
	Parameters         []float64
	Subexpressions     []float64
	Seeds              [][]float64
	SubexpressionSeeds [][]float64
}

type problemDoc struct {
	Expr               exprDoc     `json:"expr" yaml:"expr"`
	Variables          []float64   `json:"variables,omitempty" yaml:"variables,omitempty"`
	Parameters         []float64   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Subexpressions     []float64   `json:"subexpressions,omitempty" yaml:"subexpressions,omitempty"`
	Seeds              [][]float64 `json:"seeds,omitempty" yaml:"seeds,omitempty"`
	SubexpressionSeeds [][]float64 `json:"subexpression_seeds,omitempty" yaml:"subexpression_seeds,omitempty"`
}

// LoadProblem reads a problem file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "nlexpr: read problem")
	}
	var p *Problem
	if strings.EqualFold(filepath.Ext(path), ".json") {
		p, err = Codec{}.DecodeProblemJSON(bytes.NewReader(data))
	} else {
		p, err = Codec{}.DecodeProblemYAML(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}

func (c Codec) DecodeProblemJSON(r io.Reader) (*Problem, error) {
	var doc problemDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "nlexpr: decode problem")
	}
	if dec.More() {
		return nil, errors.New("nlexpr: decode problem: trailing data")
	}
	return c.problem(doc)
}

func (c Codec) DecodeProblemYAML(r io.Reader) (*Problem, error) {
	var doc problemDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "nlexpr: decode problem")
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("nlexpr: decode problem: more than one document")
	}
	return c.problem(doc)
}

func (c Codec) problem(doc problemDoc) (*Problem, error) {
	e, err := c.fromDoc(doc.Expr)
	if err != nil {
		return nil, errors.Wrap(err, "expr")
	}
	return &Problem{
		Expr:               e,
		Variables:          doc.Variables,
		Parameters:         doc.Parameters,
		Subexpressions:     doc.Subexpressions,
		Seeds:              doc.Seeds,
		SubexpressionSeeds: doc.SubexpressionSeeds,
	}, nil
}

// Result is the outcome of evaluating a Problem. Forward and Partials are
// indexed by node position; the Eps fields are set only by a directional
// evaluation and hold Directions components per entry.
type Result struct {
	Expression  string      `json:"expression" yaml:"expression"`
	LaTeX       string      `json:"latex" yaml:"latex"`
	Value       float64     `json:"value" yaml:"value"`
	Forward     []float64   `json:"forward" yaml:"forward"`
	Partials    []float64   `json:"partials" yaml:"partials"`
	Directions  int         `json:"directions,omitempty" yaml:"directions,omitempty"`
	ValueEps    []float64   `json:"value_eps,omitempty" yaml:"value_eps,omitempty"`
	ForwardEps  [][]float64 `json:"forward_eps,omitempty" yaml:"forward_eps,omitempty"`
	PartialsEps [][]float64 `json:"partials_eps,omitempty" yaml:"partials_eps,omitempty"`
}

// Number encodes to JSON like a float64, except that NaN and the infinities,
// which JSON cannot represent, become the strings "NaN", "+Inf" and "-Inf".
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(f)
}

func numbers(xs []float64) []Number {
	if xs == nil {
		return nil
	}
	out := make([]Number, len(xs))
	for i, x := range xs {
		out[i] = Number(x)
	}
	return out
}

func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Expression  string     `json:"expression"`
		LaTeX       string     `json:"latex"`
		Value       Number     `json:"value"`
		Forward     []Number   `json:"forward"`
		Partials    []Number   `json:"partials"`
		Directions  int        `json:"directions,omitempty"`
		ValueEps    []Number   `json:"value_eps,omitempty"`
		ForwardEps  [][]Number `json:"forward_eps,omitempty"`
		PartialsEps [][]Number `json:"partials_eps,omitempty"`
	}
	w := wire{
		Expression: r.Expression,
		LaTeX:      r.LaTeX,
		Value:      Number(r.Value),
		Forward:    numbers(r.Forward),
		Partials:   numbers(r.Partials),
		Directions: r.Directions,
		ValueEps:   numbers(r.ValueEps),
	}
	for k := range r.ForwardEps {
		w.ForwardEps = append(w.ForwardEps, numbers(r.ForwardEps[k]))
	}
	for k := range r.PartialsEps {
		w.PartialsEps = append(w.PartialsEps, numbers(r.PartialsEps[k]))
	}
	return json.Marshal(w)
}

// Evaluate builds the tree of p and runs ForwardEval, followed by
// ForwardEvalEps when eps is set. ops may be nil.
func (p *Problem) Evaluate(ops *UnivariateTable, eps bool) (*Result, error) {
	t, err := Build(p.Expr)
	if err != nil {
		return nil, err
	}
	nv, np, ns := t.InputSizes()
	switch {
	case len(p.Variables) < nv:
		return nil, errors.Errorf("nlexpr: expression uses %d variables, got %d", nv, len(p.Variables))
	case len(p.Parameters) < np:
		return nil, errors.Errorf("nlexpr: expression uses %d parameters, got %d", np, len(p.Parameters))
	case len(p.Subexpressions) < ns:
		return nil, errors.Errorf("nlexpr: expression uses %d subexpressions, got %d", ns, len(p.Subexpressions))
	}

	s := NewStorage(t.Len())
	v, err := ForwardEval(t, s, Inputs{
		Variables:      p.Variables,
		Parameters:     p.Parameters,
		Subexpressions: p.Subexpressions,
	}, ops)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Expression: t.String(),
		LaTeX:      t.LaTeX(),
		Value:      v,
		Forward:    append([]float64(nil), s.Forward...),
		Partials:   append([]float64(nil), s.Partials...),
	}
	if !eps {
		return res, nil
	}

	vars, width, err := seedPartials(p.Seeds, len(p.Variables), "seeds")
	if err != nil {
		return nil, err
	}
	subs, w, err := seedPartials(p.SubexpressionSeeds, len(p.Subexpressions), "subexpression_seeds")
	if err != nil {
		return nil, err
	}
	width = max(width, w)
	root, err := ForwardEvalEps(t, s, EpsInputs{Variables: vars, Subexpressions: subs}, ops)
	if err != nil {
		return nil, err
	}
	res.Directions = width
	res.ValueEps = append([]float64(nil), root[:width]...)
	res.ForwardEps = make([][]float64, t.Len())
	res.PartialsEps = make([][]float64, t.Len())
	for k := range res.ForwardEps {
		res.ForwardEps[k] = append([]float64(nil), s.ForwardEps[k][:width]...)
		res.PartialsEps[k] = append([]float64(nil), s.PartialsEps[k][:width]...)
	}
	return res, nil
}

// seedPartials widens rows to n Partials and reports the longest row.
func seedPartials(rows [][]float64, n int, name string) ([]Partials, int, error) {
	if len(rows) > n {
		return nil, 0, errors.Errorf("nlexpr: %s has %d rows for %d inputs", name, len(rows), n)
	}
	out := make([]Partials, n)
	width := 0
	for i, row := range rows {
		if len(row) > MaxChunk {
			return nil, 0, errors.Errorf("nlexpr: %s[%d] has %d directions, at most %d allowed", name, i, len(row), MaxChunk)
		}
		out[i] = NewPartials(row...)
		width = max(width, len(row))
	}
	return out, width, nil
}
