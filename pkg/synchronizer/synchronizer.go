// Package synchronizer combines per-token goal schedules into the first step
// at which every token stands on a goal node at once.
package synchronizer

import (
	"errors"
	"fmt"

	"github.com/aretw0/lockstep/pkg/cycle"
	"github.com/aretw0/lockstep/pkg/domain"
)

// Method names the algorithm that produced a Result.
type Method string

const (
	// MethodLCM is the least common multiple of the periods, valid when every token is simple.
	MethodLCM Method = "lcm"
	// MethodCongruence is the pairwise congruence merge.
	MethodCongruence Method = "congruence"
	// MethodTransient means the tokens met before all of them settled into their cycles.
	MethodTransient Method = "transient"
)

// Result is the synchronization step and how it was obtained.
type Result struct {
	Steps  int    `json:"steps"`
	Method Method `json:"method"`
}

// DefaultSearchBound caps the candidates tried by each pairwise merge.
const DefaultSearchBound = 10_000_000

// Option configures Combine and Solve.
type Option func(*options)

type options struct {
	bound      int
	forceMerge bool
}

// WithSearchBound sets the per-merge candidate bound.
func WithSearchBound(n int) Option {
	return func(o *options) {
		o.bound = n
	}
}

// WithoutShortcut disables the LCM path so every input goes through the congruence merge.
func WithoutShortcut() Option {
	return func(o *options) {
		o.forceMerge = true
	}
}

func newOptions(opts []Option) *options {
	o := &options{bound: DefaultSearchBound}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LCM returns the least common multiple of periods.
func LCM(periods ...int) (int, error) {
	if len(periods) == 0 {
		return 0, errors.New("no periods")
	}
	result := 1
	for _, p := range periods {
		if p < 1 {
			return 0, fmt.Errorf("invalid period %d", p)
		}
		var err error
		if result, err = lcm(result, p); err != nil {
			return 0, err
		}
	}
	return result, nil
}

// Solve returns the smallest step ≥ max(1, lower) satisfying every congruence.
func Solve(congruences []Congruence, lower int, opts ...Option) (int, error) {
	if len(congruences) == 0 {
		return 0, errors.New("no congruences")
	}
	o := newOptions(opts)

	acc := congruences[0].Normalize()
	for _, c := range congruences[1:] {
		var err error
		if acc, err = Merge(acc, c, o.bound); err != nil {
			return 0, err
		}
	}

	if lower < 1 {
		lower = 1
	}
	step := acc.Residue
	if step < lower {
		k := (lower - step + acc.Modulus - 1) / acc.Modulus
		step += k * acc.Modulus
	}
	return step, nil
}

// Combine finds the first step at which every token is at a goal.
// Simple tokens are combined by LCM; otherwise each token contributes its
// residue class and hits seen before it settled into its cycle are checked first.
// A transient-only token limits the search to its last hit and fails with
// domain.ErrNoCommonSolution when no earlier step is shared.
func Combine(records []cycle.Record, opts ...Option) (Result, error) {
	if len(records) == 0 {
		return Result{}, errors.New("no tokens to synchronize")
	}
	o := newOptions(opts)

	if !o.forceMerge && allSimple(records) {
		periods := make([]int, len(records))
		for i, r := range records {
			periods[i] = r.Period
		}
		steps, err := LCM(periods...)
		if err != nil {
			return Result{}, err
		}
		return Result{Steps: steps, Method: MethodLCM}, nil
	}

	settled, lastChance := 0, 0
	for _, r := range records {
		if r.TransientOnly {
			if len(r.Hits) == 0 {
				return Result{}, fmt.Errorf("token %s: transient record without hits", r.Start)
			}
			if lastChance == 0 || r.LastHit() < lastChance {
				lastChance = r.LastHit()
			}
			continue
		}
		if r.Period < 1 {
			return Result{}, fmt.Errorf("token %s: invalid period %d", r.Start, r.Period)
		}
		settled = max(settled, r.CycleStart)
	}

	// A token that leaves its goals for good bounds the search by its last hit.
	if lastChance > 0 {
		for step := 1; step <= lastChance; step++ {
			if allHit(records, step) {
				return Result{Steps: step, Method: MethodTransient}, nil
			}
		}
		return Result{}, fmt.Errorf("%w: a token stops reaching goals after step %d", domain.ErrNoCommonSolution, lastChance)
	}

	// Before every token is inside its cycle only the recorded hits can coincide.
	for step := 1; step <= settled; step++ {
		if allHit(records, step) {
			return Result{Steps: step, Method: MethodTransient}, nil
		}
	}

	congruences := make([]Congruence, len(records))
	for i, r := range records {
		congruences[i] = Congruence{Residue: r.Residue, Modulus: r.Period}
	}
	steps, err := Solve(congruences, settled+1, opts...)
	if err != nil {
		return Result{}, err
	}
	// Tokens built by hand may have a first hit later than their residue suggests.
	for !allHit(records, steps) {
		l, lerr := lcmOf(congruences)
		if lerr != nil {
			return Result{}, lerr
		}
		if steps > maxPhase(records)+l {
			return Result{}, fmt.Errorf("%w: no step satisfies every token", domain.ErrNoCommonSolution)
		}
		steps += l
	}
	return Result{Steps: steps, Method: MethodCongruence}, nil
}

func allSimple(records []cycle.Record) bool {
	for _, r := range records {
		if !r.Simple {
			return false
		}
	}
	return true
}

func allHit(records []cycle.Record, step int) bool {
	for _, r := range records {
		if !r.HitAt(step) {
			return false
		}
	}
	return true
}

func lcmOf(cs []Congruence) (int, error) {
	periods := make([]int, len(cs))
	for i, c := range cs {
		periods[i] = c.Modulus
	}
	return LCM(periods...)
}

func maxPhase(records []cycle.Record) int {
	m := 0
	for _, r := range records {
		m = max(m, r.Phase)
	}
	return m
}
