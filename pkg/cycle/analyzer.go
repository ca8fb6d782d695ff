package cycle

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/aretw0/lockstep/pkg/walker"
)

const ctxCheckInterval = 1024

// Sized is implemented by graphs that know their node count.
// Analyze uses it to derive the pigeonhole bound when no explicit bound is set.
type Sized interface {
	Len() int
}

// Option configures an analysis.
type Option func(*options)

type options struct {
	maxSteps int
	strict   bool
	onGoal   func(step int, node domain.NodeID)
	onCycle  func(start, length int)
}

// WithMaxSteps caps the number of steps walked. Zero derives the bound from the graph size.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithStrictPeriods fails with domain.ErrAmbiguousPeriod whenever more than one
// irreducible hit remains after Reduce, even if the hits form a single residue class.
//
// Strict mode is off by default. Hits such as 2 and 5 on a cycle of length 3
// reduce to two candidates yet describe one schedule (step ≡ 2 mod 3), which
// the general synchronizer path answers. Without strict mode the ambiguity
// check is applied to residue classes instead: in-cycle hits falling into more
// than one class of the pattern period still fail with domain.ErrAmbiguousPeriod.
func WithStrictPeriods(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithGoalObserver registers a callback invoked on every goal hit.
func WithGoalObserver(fn func(step int, node domain.NodeID)) Option {
	return func(o *options) {
		o.onGoal = fn
	}
}

// WithCycleObserver registers a callback invoked once the repeating position is found.
func WithCycleObserver(fn func(start, length int)) Option {
	return func(o *options) {
		o.onCycle = fn
	}
}

func newOptions(g walker.Graph, seq instructions.Sequence, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxSteps <= 0 {
		if s, ok := g.(Sized); ok {
			o.maxSteps = s.Len()*seq.Len() + 1
		}
	}
	return o
}

// Analyze walks a token from start until its position repeats and derives its Record.
func Analyze(ctx context.Context, g walker.Graph, seq instructions.Sequence, start domain.NodeID, goal domain.Predicate, opts ...Option) (Record, error) {
	o := newOptions(g, seq, opts)
	w := walker.New(g, seq, start)

	seen := map[domain.Position]int{w.Position(): 0}
	var hits []int
	cycleStart, cycleLength := 0, 0

	for {
		if err := checkBounds(ctx, o, w.Steps()); err != nil {
			return Record{}, fmt.Errorf("token %s: %w", start, err)
		}

		step, node, err := w.Next()
		if err != nil {
			return Record{}, fmt.Errorf("token %s at step %d: %w", start, step, err)
		}

		if goal(node) {
			hits = append(hits, step)
			if o.onGoal != nil {
				o.onGoal(step, node)
			}
		}

		pos := w.Position()
		if first, ok := seen[pos]; ok {
			cycleStart, cycleLength = first, step-first
			break
		}
		seen[pos] = step
	}

	if o.onCycle != nil {
		o.onCycle(cycleStart, cycleLength)
	}

	return summarise(start, hits, cycleStart, cycleLength, o.strict)
}

// FirstHit walks a token from start and returns the step of its first goal hit.
func FirstHit(ctx context.Context, g walker.Graph, seq instructions.Sequence, start domain.NodeID, goal domain.Predicate, opts ...Option) (int, error) {
	o := newOptions(g, seq, opts)
	w := walker.New(g, seq, start)
	seen := map[domain.Position]struct{}{w.Position(): {}}

	for {
		if err := checkBounds(ctx, o, w.Steps()); err != nil {
			return 0, fmt.Errorf("token %s: %w", start, err)
		}

		step, node, err := w.Next()
		if err != nil {
			return 0, fmt.Errorf("token %s at step %d: %w", start, step, err)
		}
		if goal(node) {
			if o.onGoal != nil {
				o.onGoal(step, node)
			}
			return step, nil
		}

		pos := w.Position()
		if _, ok := seen[pos]; ok {
			return 0, fmt.Errorf("token %s: %w after %d steps", start, domain.ErrNoGoalReachedWithinCycle, step)
		}
		seen[pos] = struct{}{}
	}
}

func checkBounds(ctx context.Context, o *options, steps int) error {
	if o.maxSteps > 0 && steps >= o.maxSteps {
		return fmt.Errorf("%w: %d steps", domain.ErrBoundExceeded, o.maxSteps)
	}
	if steps%ctxCheckInterval == 0 {
		return ctx.Err()
	}
	return nil
}

func summarise(start domain.NodeID, hits []int, cycleStart, cycleLength int, strict bool) (Record, error) {
	if len(hits) == 0 {
		return Record{}, fmt.Errorf("token %s: %w", start, domain.ErrNoGoalReachedWithinCycle)
	}

	candidates := Reduce(hits)
	if strict && len(candidates) > 1 {
		return Record{}, &domain.PeriodError{Start: start, Candidates: candidates}
	}

	// Hits in (cycleStart, cycleStart+cycleLength] cover every position of the cycle once.
	inCycle := make(map[int]bool)
	var entry int
	for _, h := range hits {
		if h > cycleStart {
			if entry == 0 {
				entry = h
			}
			inCycle[h%cycleLength] = true
		}
	}
	if len(inCycle) == 0 {
		// Hits before the repeating position never recur; HitAt answers from Hits alone.
		return Record{
			Start:         start,
			Phase:         hits[0],
			CycleStart:    cycleStart,
			CycleLength:   cycleLength,
			Hits:          hits,
			Candidates:    candidates,
			TransientOnly: true,
		}, nil
	}

	period := patternPeriod(inCycle, cycleLength)
	residues := make(map[int]bool)
	for r := range inCycle {
		residues[r%period] = true
	}
	if len(residues) > 1 {
		return Record{}, &domain.PeriodError{Start: start, Candidates: candidates, Residues: slices.Sorted(maps.Keys(residues))}
	}

	rec := Record{
		Start:       start,
		Phase:       hits[0],
		Period:      period,
		Residue:     entry % period,
		CycleStart:  cycleStart,
		CycleLength: cycleLength,
		Hits:        hits,
		Candidates:  candidates,
	}
	rec.Simple = isSimple(rec)
	return rec, nil
}

// isSimple checks that the goal is hit at exactly the multiples of Period,
// starting with Period itself.
func isSimple(r Record) bool {
	if r.Phase != r.Period || r.Residue != 0 {
		return false
	}
	last := r.CycleStart + r.CycleLength
	if len(r.Hits) != last/r.Period {
		return false
	}
	for _, h := range r.Hits {
		if h%r.Period != 0 {
			return false
		}
	}
	return true
}
