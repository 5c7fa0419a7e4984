package nlexpr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall dispatches req against DefaultUnivariateTable.
func HandleToolCall(req ToolRequest) ToolResponse {
	getProblem := func(key string) (*Problem, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		if _, ok := v.(map[string]interface{}); !ok {
			return nil, fmt.Errorf("param %s must be a problem object", key)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "param %s", key)
		}
		p, err := Codec{}.DecodeProblemJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "param %s", key)
		}
		return p, nil
	}
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return Expr{}, fmt.Errorf("missing param: %s", key)
		}
		if _, ok := v.(map[string]interface{}); !ok {
			return Expr{}, fmt.Errorf("invalid type for param %s", key)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return Expr{}, errors.Wrapf(err, "param %s", key)
		}
		return UnmarshalExprJSON(raw)
	}
	evaluate := func(eps bool) ToolResponse {
		p, err := getProblem("problem")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		res, err := p.Evaluate(nil, eps)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: res, LaTeX: res.LaTeX, String: strconv.FormatFloat(res.Value, 'g', 10, 64)}
	}

	switch req.Tool {
	case "evaluate":
		return evaluate(false)

	case "evaluate_eps":
		return evaluate(true)

	case "format":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		t, err := Build(e)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{
			Result: map[string]interface{}{"nodes": t.Len(), "values": len(t.Values)},
			LaTeX:  t.LaTeX(),
			String: t.String(),
		}

	case "operators":
		return ToolResponse{Result: Operators()}

	case "mcp_spec":
		return ToolResponse{String: MCPToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// Catalog lists the operator names accepted in the "op" field of each
// expression type.
type Catalog struct {
	Multivariate []string `json:"call"`
	Univariate   []string `json:"univariate"`
	Comparison   []string `json:"compare"`
	Logic        []string `json:"logic"`
	// FirstOrderOnly are univariate operators that ForwardEvalEps rejects.
	FirstOrderOnly []string `json:"first_order_only"`
}

// Operators returns the catalog of DefaultUnivariateTable and the fixed
// operator sets.
func Operators() Catalog {
	c := Catalog{
		Multivariate: MultivariateOperators(),
		Univariate:   DefaultUnivariateTable.Names(),
		Comparison:   ComparisonOperators(),
		Logic:        LogicOperators(),
	}
	for id, name := range c.Univariate {
		if !DefaultUnivariateTable.HasSecondDerivative(id) {
			c.FirstOrderOnly = append(c.FirstOrderOnly, name)
		}
	}
	return c
}

// MCPToolSpec returns the JSON schema of the tools HandleToolCall serves.
func MCPToolSpec() string {
	problem := "Problem object: {expr, variables, parameters, subexpressions, seeds, subexpression_seeds}"
	tools := []map[string]interface{}{
		ts("evaluate", "Value of every node and the partial of each parent w.r.t. its child. "+problem,
			[]string{"problem"}, map[string]string{"problem": "object"}),
		ts("evaluate_eps", "evaluate plus directional derivatives along up to 10 seeds per variable. "+problem,
			[]string{"problem"}, map[string]string{"problem": "object"}),
		ts("format", "Flatten an expression and print it in infix and LaTeX form", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("operators", "List operator names by expression type", []string{}, map[string]string{}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
