// cmd/mcp-server/main.go: Standalone HTTP MCP server for nlexpr
//
// Exposes the expression evaluators as an HTTP endpoint for agent frameworks.
//
// Usage:
//
//	go run ./cmd/mcp-server -port 8080
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njchilds90/nlexpr"
)

var (
	// toolCalls counts tool calls. result is "ok", "tool_error", "bad_request" or "panic".
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nlexpr_tool_calls_total",
		Help: "Tool calls by tool and result",
	}, []string{"tool", "result"})

	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nlexpr_tool_duration_seconds",
		Help:    "Tool call duration",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	}, []string{"tool"})
)

var (
	tracerOnce sync.Once
	tracer     trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		tracer = otel.Tracer("nlexpr/mcp-server")
	})
	return tracer
}

type config struct {
	addr         string
	maxBodyBytes int64
	readTimeout  time.Duration
	writeTimeout time.Duration
	logLevel     slog.Level
}

func main() {
	var (
		cfg      config
		port     = flag.Int("port", 8080, "Port to listen on")
		addr     = flag.String("addr", "", "Listen address; overrides -port")
		logLevel = flag.String("log-level", "info", "Log level: debug, info, warn or error")
	)
	flag.Int64Var(&cfg.maxBodyBytes, "max-body", 1<<20, "Maximum request body size in bytes")
	flag.DurationVar(&cfg.readTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	flag.DurationVar(&cfg.writeTimeout, "write-timeout", 15*time.Second, "HTTP write timeout")
	flag.Parse()

	if err := cfg.logLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	cfg.addr = *addr
	if cfg.addr == "" {
		cfg.addr = fmt.Sprintf(":%d", *port)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel}))
	slog.SetDefault(logger)

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           newMux(cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.readTimeout,
		WriteTimeout:      cfg.writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("nlexpr MCP server listening",
		slog.String("addr", cfg.addr),
		slog.String("routes", "POST /tool, GET /schema, GET /health, GET /metrics"))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func newMux(cfg config, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// POST /tool: handle a tool call
	mux.HandleFunc("/tool", func(w http.ResponseWriter, r *http.Request) {
		tool := "unknown"
		defer func() {
			if rec := recover(); rec != nil {
				toolCalls.WithLabelValues(tool, "panic").Inc()
				logger.ErrorContext(r.Context(), "panic in /tool",
					slog.String("tool", tool),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.maxBodyBytes)
		defer r.Body.Close()

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req nlexpr.ToolRequest
		if err := dec.Decode(&req); err != nil {
			toolCalls.WithLabelValues(tool, "bad_request").Inc()
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		// Ensure there's no trailing junk.
		if dec.More() {
			toolCalls.WithLabelValues(tool, "bad_request").Inc()
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
			return
		}
		tool = toolLabel(req.Tool)

		resp := callTool(r.Context(), req)
		result := "ok"
		if resp.Error != "" {
			result = "tool_error"
			logger.DebugContext(r.Context(), "tool call failed",
				slog.String("tool", tool),
				slog.String("error", resp.Error))
		}
		toolCalls.WithLabelValues(tool, result).Inc()
		writeJSON(w, http.StatusOK, resp)
	})

	// GET /schema: return tool schema for agent registration
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, nlexpr.MCPToolSpec())
	})

	// GET /health: liveness check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// callTool runs req inside a span and records its duration.
func callTool(ctx context.Context, req nlexpr.ToolRequest) nlexpr.ToolResponse {
	start := time.Now()
	_, span := getTracer().Start(ctx, "nlexpr.HandleToolCall",
		trace.WithAttributes(attribute.String("tool", req.Tool)),
	)
	defer span.End()

	resp := nlexpr.HandleToolCall(req)
	toolDuration.WithLabelValues(toolLabel(req.Tool)).Observe(time.Since(start).Seconds())

	if res, ok := resp.Result.(*nlexpr.Result); ok {
		span.SetAttributes(
			attribute.Int("node_count", len(res.Forward)),
			attribute.Int("directions", res.Directions),
		)
	}
	if resp.Error != "" {
		span.SetStatus(codes.Error, firstLine(resp.Error))
		return resp
	}
	span.SetStatus(codes.Ok, "")
	return resp
}

var knownTools = map[string]bool{
	"evaluate":     true,
	"evaluate_eps": true,
	"format":       true,
	"operators":    true,
	"mcp_spec":     true,
}

// toolLabel keeps metric label values bounded.
func toolLabel(tool string) string {
	if knownTools[tool] {
		return tool
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
