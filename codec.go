package nlexpr

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ============================================================
// JSON / YAML serialization
// ============================================================

// exprDoc is the object form of an Expr:
//
//	{"type": "call", "op": "*", "args": [{"type": "var", "index": 0}, {"type": "const", "value": 2}]}
//
// Types are var, const, param, subexpr, call, univariate, compare and logic.
type exprDoc struct {
	Type  string    `json:"type" yaml:"type"`
	Op    string    `json:"op,omitempty" yaml:"op,omitempty"`
	Index int       `json:"index,omitempty" yaml:"index,omitempty"`
	Value float64   `json:"value,omitempty" yaml:"value,omitempty"`
	Args  []exprDoc `json:"args,omitempty" yaml:"args,omitempty"`
}

var docTypes = [...]string{
	KindVariable:         "var",
	KindValue:            "const",
	KindParameter:        "param",
	KindSubexpression:    "subexpr",
	KindCallMultivariate: "call",
	KindCallUnivariate:   "univariate",
	KindComparison:       "compare",
	KindLogic:            "logic",
}

// Codec converts expressions and problems to and from JSON and YAML. Ops
// resolves univariate operator names; nil means DefaultUnivariateTable.
type Codec struct {
	Ops *UnivariateTable
}

func (c Codec) ops() *UnivariateTable {
	if c.Ops == nil {
		return DefaultUnivariateTable
	}
	return c.Ops
}

func MarshalExprJSON(e Expr) ([]byte, error)     { return Codec{}.MarshalJSON(e) }
func UnmarshalExprJSON(data []byte) (Expr, error) { return Codec{}.UnmarshalJSON(data) }
func MarshalExprYAML(e Expr) ([]byte, error)     { return Codec{}.MarshalYAML(e) }
func UnmarshalExprYAML(data []byte) (Expr, error) { return Codec{}.UnmarshalYAML(data) }

func (c Codec) MarshalJSON(e Expr) ([]byte, error) {
	doc, err := c.toDoc(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (c Codec) UnmarshalJSON(data []byte) (Expr, error) {
	var doc exprDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Expr{}, errors.Wrap(err, "nlexpr: decode expression")
	}
	return c.fromDoc(doc)
}

func (c Codec) MarshalYAML(e Expr) ([]byte, error) {
	doc, err := c.toDoc(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "nlexpr: encode expression")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "nlexpr: encode expression")
	}
	return buf.Bytes(), nil
}

func (c Codec) UnmarshalYAML(data []byte) (Expr, error) {
	var doc exprDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Expr{}, errors.Wrap(err, "nlexpr: decode expression")
	}
	return c.fromDoc(doc)
}

func (c Codec) toDoc(e Expr) (exprDoc, error) {
	if int(e.Kind) >= len(docTypes) {
		return exprDoc{}, errors.Errorf("nlexpr: unknown kind %d", e.Kind)
	}
	doc := exprDoc{Type: docTypes[e.Kind]}
	switch e.Kind {
	case KindValue:
		doc.Value = e.Value
	case KindVariable, KindParameter, KindSubexpression:
		doc.Index = e.Index
	case KindCallUnivariate:
		if e.Index < 0 || e.Index >= c.ops().Len() {
			return exprDoc{}, unsupported(e.Kind, e.Index)
		}
		doc.Op = c.ops().Name(e.Index)
	default:
		doc.Op = operatorName(e.Kind, e.Index)
		if doc.Op[0] == '#' {
			return exprDoc{}, unsupported(e.Kind, e.Index)
		}
	}
	for i, a := range e.Args {
		d, err := c.toDoc(a)
		if err != nil {
			return exprDoc{}, errors.Wrapf(err, "%s: args[%d]", doc.Type, i)
		}
		doc.Args = append(doc.Args, d)
	}
	return doc, nil
}

func (c Codec) fromDoc(doc exprDoc) (Expr, error) {
	kind, ok := lookupName(docTypes[:], doc.Type)
	if !ok {
		return Expr{}, errors.Errorf("nlexpr: unknown expression type %q", doc.Type)
	}
	e := Expr{Kind: NodeKind(kind)}
	switch e.Kind {
	case KindValue:
		e.Value = doc.Value
	case KindVariable, KindParameter, KindSubexpression:
		if doc.Index < 0 {
			return Expr{}, errors.Errorf("nlexpr: %s: negative index %d", doc.Type, doc.Index)
		}
		e.Index = doc.Index
	default:
		var id int
		switch e.Kind {
		case KindCallMultivariate:
			id, ok = MultivariateOperator(doc.Op)
		case KindCallUnivariate:
			id, ok = c.ops().Lookup(doc.Op)
		case KindComparison:
			id, ok = ComparisonOperator(doc.Op)
		case KindLogic:
			id, ok = LogicOperator(doc.Op)
		}
		if !ok {
			return Expr{}, errors.Errorf("nlexpr: %s: unknown operator %q", doc.Type, doc.Op)
		}
		e.Index = id
	}
	if e.Kind.IsLeaf() && len(doc.Args) > 0 {
		return Expr{}, errors.Errorf("nlexpr: %s takes no args", doc.Type)
	}
	for i, a := range doc.Args {
		arg, err := c.fromDoc(a)
		if err != nil {
			return Expr{}, errors.Wrapf(err, "%s: args[%d]", doc.Type, i)
		}
		e.Args = append(e.Args, arg)
	}
	return e, nil
}
