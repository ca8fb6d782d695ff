package lockstep

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/aretw0/lockstep/internal/compiler"
	"github.com/aretw0/lockstep/pkg/cycle"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/aretw0/lockstep/pkg/network"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/aretw0/lockstep/pkg/synchronizer"
	"golang.org/x/sync/errgroup"
)

// Settings holds the analysis parameters of an Engine.
type Settings struct {
	// MaxSteps caps each token walk. Zero uses |nodes|×L+1.
	MaxSteps int
	// SearchBound caps each pairwise congruence merge.
	SearchBound int
	// Concurrency limits how many tokens are analyzed at once.
	Concurrency int
	// StrictPeriods rejects tokens whose goal hits do not reduce to a single value.
	StrictPeriods bool

	Start domain.NodeID
	Goal  domain.NodeID

	StartSuffix string
	GoalSuffix  string
}

// DefaultSettings walks AAA to ZZZ and synchronizes every **A token on **Z nodes.
func DefaultSettings() Settings {
	return Settings{
		SearchBound: synchronizer.DefaultSearchBound,
		Concurrency: runtime.NumCPU(),
		Start:       "AAA",
		Goal:        "ZZZ",
		StartSuffix: "A",
		GoalSuffix:  "Z",
	}
}

// Engine is the high-level entry point of the library.
// It pairs one immutable network with one instruction sequence.
type Engine struct {
	network  *network.Network
	seq      instructions.Sequence
	digest   string
	settings Settings
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
// Hooks are invoked from concurrent analyses and must be safe for concurrent use.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithSettings replaces all analysis parameters.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithMaxSteps caps each token walk.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.settings.MaxSteps = n
	}
}

// WithSearchBound caps each pairwise congruence merge.
func WithSearchBound(n int) Option {
	return func(e *Engine) {
		e.settings.SearchBound = n
	}
}

// WithConcurrency limits how many tokens are analyzed at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.settings.Concurrency = n
	}
}

// WithStrictPeriods makes any irreducible set of goal hits an error.
func WithStrictPeriods(strict bool) Option {
	return func(e *Engine) {
		e.settings.StrictPeriods = strict
	}
}

// WithSingleGoal configures the start and goal of the single-goal mode.
func WithSingleGoal(start, goal domain.NodeID) Option {
	return func(e *Engine) {
		e.settings.Start, e.settings.Goal = start, goal
	}
}

// WithMultiGoal configures the suffixes selecting starts and goals of the multi-goal mode.
func WithMultiGoal(startSuffix, goalSuffix string) Option {
	return func(e *Engine) {
		e.settings.StartSuffix, e.settings.GoalSuffix = startSuffix, goalSuffix
	}
}

// New creates an Engine over an already built network and sequence.
func New(g *network.Network, seq instructions.Sequence, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, errors.New("network is required")
	}
	if seq.Len() == 0 {
		return nil, domain.ErrEmptyInstructionSequence
	}

	eng := &Engine{
		network:  g,
		seq:      seq,
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.settings.Concurrency < 1 {
		eng.settings.Concurrency = 1
	}
	return eng, nil
}

// Load reads puzzle text and creates an Engine for it.
func Load(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return Parse(data, opts...)
}

// Parse creates an Engine from puzzle text.
func Parse(data []byte, opts ...Option) (*Engine, error) {
	doc, err := compiler.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	g, err := doc.Network()
	if err != nil {
		return nil, err
	}

	eng, err := New(g, doc.Instructions, opts...)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	eng.digest = hex.EncodeToString(sum[:])
	eng.logger = eng.logger.With("digest", eng.digest[:12])
	return eng, nil
}

// Network returns the network the engine walks.
func (e *Engine) Network() *network.Network {
	return e.network
}

// Instructions returns the instruction sequence.
func (e *Engine) Instructions() instructions.Sequence {
	return e.seq
}

// Settings returns the analysis parameters.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Digest identifies the input text. It is empty for engines built with New.
func (e *Engine) Digest() string {
	return e.digest
}

// Inspect returns every record of the network in sorted order.
func (e *Engine) Inspect() []domain.Record {
	return e.network.Records()
}

// Steps walks the single-goal token and returns the step of its first arrival.
func (e *Engine) Steps(ctx context.Context) (int, error) {
	start, goal := e.settings.Start, e.settings.Goal
	if !e.network.Has(start) {
		return 0, &domain.NodeError{Node: start, Err: domain.ErrUnknownNode}
	}

	e.fire(ctx, e.hooks.OnAnalysisStart, domain.NewTokenEvent(domain.EventAnalysisStart, start))
	steps, err := cycle.FirstHit(ctx, e.network, e.seq, start, domain.Exactly(goal), e.cycleOptions(ctx, start)...)

	done := domain.NewTokenEvent(domain.EventAnalysisFinish, start)
	done.Step, done.Err = steps, err
	e.fire(ctx, e.hooks.OnAnalysisFinish, done)

	if err != nil {
		e.logger.Debug("single goal failed", "start", start, "goal", goal, "error", err)
		return 0, err
	}
	e.logger.Debug("single goal reached", "start", start, "goal", goal, "steps", steps)
	return steps, nil
}

// Tokens returns the start nodes of the multi-goal mode.
func (e *Engine) Tokens() []domain.NodeID {
	return e.network.Select(domain.HasSuffix(e.settings.StartSuffix))
}

// Analyze derives the goal schedule of one multi-goal token.
func (e *Engine) Analyze(ctx context.Context, start domain.NodeID) (cycle.Record, error) {
	e.fire(ctx, e.hooks.OnAnalysisStart, domain.NewTokenEvent(domain.EventAnalysisStart, start))

	rec, err := cycle.Analyze(ctx, e.network, e.seq, start, domain.HasSuffix(e.settings.GoalSuffix), e.cycleOptions(ctx, start)...)

	done := domain.NewTokenEvent(domain.EventAnalysisFinish, start)
	done.Step, done.Err = rec.Phase, err
	e.fire(ctx, e.hooks.OnAnalysisFinish, done)

	if err != nil {
		return cycle.Record{}, err
	}
	e.logger.Debug("token analyzed",
		"start", start,
		"phase", rec.Phase,
		"period", rec.Period,
		"cycle_start", rec.CycleStart,
		"cycle_length", rec.CycleLength,
		"simple", rec.Simple,
		"transient_only", rec.TransientOnly,
	)
	return rec, nil
}

// Synchronize analyzes every multi-goal token concurrently and combines their schedules.
func (e *Engine) Synchronize(ctx context.Context) (*report.MultiAnswer, error) {
	starts := e.Tokens()
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: no node ends with %q", domain.ErrUnknownNode, e.settings.StartSuffix)
	}

	records := make([]cycle.Record, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.Concurrency)
	for i, start := range starts {
		g.Go(func() error {
			rec, err := e.Analyze(gctx, start)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Debug("synchronization aborted", "error", err)
		return nil, err
	}

	res, err := synchronizer.Combine(records, synchronizer.WithSearchBound(e.settings.SearchBound))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("tokens synchronized", "tokens", len(records), "steps", res.Steps, "method", res.Method)

	return &report.MultiAnswer{
		StartSuffix: e.settings.StartSuffix,
		GoalSuffix:  e.settings.GoalSuffix,
		Steps:       res.Steps,
		Method:      res.Method,
		Tokens:      records,
	}, nil
}

// Solve answers the questions selected by mode.
// A mode that fails is recorded in the report; the error is returned only when
// every requested mode failed.
func (e *Engine) Solve(ctx context.Context, mode report.Mode) (*report.Report, error) {
	rep := &report.Report{
		Digest:       e.digest,
		Mode:         mode,
		Nodes:        e.network.Len(),
		Instructions: e.seq.Len(),
	}

	var errs []error
	requested := 0

	if mode.Includes(report.ModeSingle) {
		requested++
		steps, err := e.Steps(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("single: %w", err))
			rep.Failures = append(rep.Failures, report.Failure{Mode: report.ModeSingle, Error: err.Error()})
		} else {
			rep.Single = &report.SingleAnswer{Start: string(e.settings.Start), Goal: string(e.settings.Goal), Steps: steps}
		}
	}

	if mode.Includes(report.ModeMulti) {
		requested++
		multi, err := e.Synchronize(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("multi: %w", err))
			rep.Failures = append(rep.Failures, report.Failure{Mode: report.ModeMulti, Error: err.Error()})
		} else {
			rep.Multi = multi
		}
	}

	if requested == 0 {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if len(errs) == requested {
		return rep, errors.Join(errs...)
	}
	return rep, nil
}

// CacheKey identifies a solve of this input under the current settings.
func (e *Engine) CacheKey(mode report.Mode) string {
	s := e.settings
	return fmt.Sprintf("%s:%s:%s>%s:%s>%s:%d:%t",
		e.digest, mode, s.Start, s.Goal, s.StartSuffix, s.GoalSuffix, s.MaxSteps, s.StrictPeriods)
}

func (e *Engine) cycleOptions(ctx context.Context, start domain.NodeID) []cycle.Option {
	opts := []cycle.Option{
		cycle.WithMaxSteps(e.settings.MaxSteps),
		cycle.WithStrictPeriods(e.settings.StrictPeriods),
	}
	if hook := e.hooks.OnGoalHit; hook != nil {
		opts = append(opts, cycle.WithGoalObserver(func(step int, node domain.NodeID) {
			ev := domain.NewTokenEvent(domain.EventGoalHit, start)
			ev.Step, ev.Node = step, node
			hook(ctx, ev)
		}))
	}
	if hook := e.hooks.OnCycleDetected; hook != nil {
		opts = append(opts, cycle.WithCycleObserver(func(cycleStart, length int) {
			ev := domain.NewTokenEvent(domain.EventCycleDetected, start)
			ev.Step, ev.CycleLength = cycleStart, length
			hook(ctx, ev)
		}))
	}
	return opts
}

func (e *Engine) fire(ctx context.Context, hook func(context.Context, *domain.TokenEvent), ev *domain.TokenEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}
