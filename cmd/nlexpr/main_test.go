package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const problem = `
expr:
  type: call
  op: "+"
  args:
    - type: call
      op: "*"
      args: [{type: var, index: 0}, {type: var, index: 1}]
    - {type: param, index: 0}
variables: [3, 4]
parameters: [1]
seeds: [[1], [0]]
`

func writeProblem(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.yaml")
	if err := os.WriteFile(path, []byte(problem), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_YAML(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-eps", writeProblem(t)}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	var out struct {
		Value    float64   `yaml:"value"`
		ValueEps []float64 `yaml:"value_eps"`
	}
	if err := yaml.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, stdout.String())
	}
	if out.Value != 13 {
		t.Errorf("want 13, got %v", out.Value)
	}
	if len(out.ValueEps) != 1 || out.ValueEps[0] != 4 {
		t.Errorf("want [4], got %v", out.ValueEps)
	}
}

func TestRun_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-format", "json", writeProblem(t)}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	var out struct {
		Expression string    `json:"expression"`
		Partials   []float64 `json:"partials"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if out.Expression != "((x[0] * x[1]) + p[0])" {
		t.Errorf("expression: got %s", out.Expression)
	}
	// 0 +, 1 *, 2 x0, 3 x1, 4 p0
	want := []float64{0, 1, 4, 3, 1}
	for i, w := range want {
		if out.Partials[i] != w {
			t.Errorf("partial %d: want %v, got %v", i, w, out.Partials[i])
		}
	}
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-format", "xml", "p.yaml"},
		{"-log-level", "loud", "p.yaml"},
		{"-nosuchflag"},
	} {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != 2 {
			t.Errorf("%v: want exit 2, got %d", args, code)
		}
	}
}

func TestRun_Failures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr); code != 1 {
		t.Errorf("missing file: want exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "load problem") {
		t.Errorf("want a load error logged, got %s", stderr.String())
	}
}
