// cmd/nlexpr/main.go: evaluate a problem file from the command line
//
// Usage:
//
//	nlexpr [-eps] [-format json|yaml] problem.yaml
//
// The problem file holds an expression and its inputs:
//
//	expr:
//	  type: call
//	  op: "*"
//	  args:
//	    - {type: var, index: 0}
//	    - {type: univariate, op: sin, args: [{type: var, index: 1}]}
//	variables: [2, 0.5]
//	seeds: [[1, 0], [0, 1]]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/nlexpr"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nlexpr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		eps      = fs.Bool("eps", false, "Also propagate the directional seeds")
		format   = fs.String("format", "yaml", "Output format: json or yaml")
		logLevel = fs.String("log-level", "warn", "Log level: debug, info, warn or error")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: nlexpr [-eps] [-format json|yaml] problem.yaml")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		return 2
	}
	if fs.NArg() != 1 || (*format != "json" && *format != "yaml") {
		fs.Usage()
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	path := fs.Arg(0)
	p, err := nlexpr.LoadProblem(path)
	if err != nil {
		logger.Error("load problem", slog.String("path", path), slog.Any("error", err))
		return 1
	}
	logger.Debug("problem loaded",
		slog.String("path", path),
		slog.Int("variables", len(p.Variables)),
		slog.Bool("eps", *eps))

	res, err := p.Evaluate(nil, *eps)
	if err != nil {
		logger.Error("evaluate", slog.String("path", path), slog.Any("error", err))
		return 1
	}
	logger.Info("evaluated",
		slog.String("expression", res.Expression),
		slog.Int("nodes", len(res.Forward)))

	if err := write(stdout, *format, res); err != nil {
		logger.Error("write result", slog.Any("error", err))
		return 1
	}
	return 0
}

func write(w io.Writer, format string, res *nlexpr.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(res), "encode json")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return errors.Wrap(enc.Close(), "encode yaml")
}
