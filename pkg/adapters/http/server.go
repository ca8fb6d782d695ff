package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/lockstep"
	"github.com/aretw0/lockstep/internal/compiler"
	"github.com/aretw0/lockstep/internal/presentation/graph"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBodyBytes bounds the size of a puzzle text accepted over HTTP.
const DefaultMaxBodyBytes = 1 << 20

// Solver answers puzzle texts.
type Solver interface {
	Solve(ctx context.Context, input []byte, mode report.Mode, opts ...lockstep.Option) (*report.Report, error)
}

// Server holds the HTTP handlers.
type Server struct {
	Solver   Solver
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	MaxBody  int64
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithGatherer sets the registry served on /metrics. Without one the route is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.MaxBody = n
	}
}

// NewHandler creates the HTTP handler for a solver.
func NewHandler(solver Solver, opts ...Option) http.Handler {
	server := &Server{
		Solver:  solver,
		Logger:  slog.Default(),
		MaxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/solve", server.Solve)
	r.Post("/graph", server.Graph)
	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string         `json:"error"`
	Report *report.Report `json:"report,omitempty"`
}

// Solve handles the POST /solve request. The body is the puzzle text.
// Query parameters: mode, start, goal, start_suffix, goal_suffix.
func (s *Server) Solve(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, bodyStatus(err), err, nil)
		return
	}

	q := r.URL.Query()
	mode, err := report.ParseMode(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, nil)
		return
	}

	rep, err := s.Solver.Solve(r.Context(), body, mode, queryOptions(q.Get)...)
	if err != nil {
		status := StatusFor(err)
		s.Logger.Warn("Solve failed", "status", status, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, status, err, rep)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Graph handles the POST /graph request and returns a Mermaid flowchart.
// The optional trace parameter highlights the cycle of one token.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, bodyStatus(err), err, nil)
		return
	}

	q := r.URL.Query()
	maxSteps := 0
	if v := q.Get("max_steps"); v != "" {
		if maxSteps, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_steps: %w", err), nil)
			return
		}
	}

	chart, err := RenderMermaid(r.Context(), body, q.Get("trace"), q.Get("start_suffix"), q.Get("goal_suffix"), maxSteps)
	if err != nil {
		writeError(w, StatusFor(err), err, nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, chart)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lockstep-http",
		"version": strings.TrimSpace(lockstep.Version),
	})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxBody))
	if err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return body, nil
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// RenderMermaid parses a puzzle text and renders its network. Start and goal
// nodes are selected by suffix (defaults A and Z); trace, when set, names the
// token whose path is highlighted.
func RenderMermaid(ctx context.Context, input []byte, trace, startSuffix, goalSuffix string, maxSteps int) (string, error) {
	doc, err := compiler.NewParser().Parse(bytes.NewReader(input))
	if err != nil {
		return "", err
	}
	g, err := doc.Network()
	if err != nil {
		return "", err
	}
	if startSuffix == "" {
		startSuffix = "A"
	}
	if goalSuffix == "" {
		goalSuffix = "Z"
	}

	overlay := &graph.GraphOverlay{
		Starts: g.Select(domain.HasSuffix(startSuffix)),
		Goals:  g.Select(domain.HasSuffix(goalSuffix)),
	}
	if trace != "" {
		start := domain.NodeID(trace)
		if !g.Has(start) {
			return "", &domain.NodeError{Node: start, Err: domain.ErrUnknownNode}
		}
		if maxSteps <= 0 {
			maxSteps = g.Len()*doc.Instructions.Len() + 1
		}
		overlay.Visited, overlay.Cycle, err = graph.Trace(ctx, g, doc.Instructions, start, maxSteps)
		if err != nil {
			return "", err
		}
	}
	return graph.GenerateMermaid(g.Records(), overlay), nil
}

func queryOptions(get func(string) string) []lockstep.Option {
	var opts []lockstep.Option
	if start, goal := get("start"), get("goal"); start != "" || goal != "" {
		if start == "" {
			start = "AAA"
		}
		if goal == "" {
			goal = "ZZZ"
		}
		opts = append(opts, lockstep.WithSingleGoal(domain.NodeID(start), domain.NodeID(goal)))
	}
	if ss, gs := get("start_suffix"), get("goal_suffix"); ss != "" || gs != "" {
		if ss == "" {
			ss = "A"
		}
		if gs == "" {
			gs = "Z"
		}
		opts = append(opts, lockstep.WithMultiGoal(ss, gs))
	}
	return opts
}

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case domain.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrNoGoalReachedWithinCycle),
		errors.Is(err, domain.ErrAmbiguousPeriod),
		errors.Is(err, domain.ErrNoCommonSolution),
		errors.Is(err, domain.ErrBoundExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error, rep *report.Report) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Report: rep})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
