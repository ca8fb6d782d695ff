package cycle

import (
	"slices"

	"github.com/aretw0/lockstep/pkg/domain"
)

// Record summarises when a token stands on a goal node.
type Record struct {
	Start domain.NodeID `json:"start"`
	// Phase is the step of the first goal hit.
	Phase int `json:"phase"`
	// Period is the distance between consecutive goal hits once the walk has entered its cycle.
	Period int `json:"period"`
	// Residue is the class of in-cycle hits: step ≡ Residue (mod Period).
	Residue int `json:"residue"`
	// CycleStart is the step at which the repeating position was first seen.
	CycleStart int `json:"cycle_start"`
	// CycleLength is the number of steps between two visits of the repeating position.
	CycleLength int `json:"cycle_length"`
	// Hits lists every goal hit up to CycleStart+CycleLength.
	Hits []int `json:"hits,omitempty"`
	// Candidates are the hits left after dropping multiples of smaller hits.
	Candidates []int `json:"candidates,omitempty"`
	// Simple is set when the goal is hit exactly at every multiple of Period.
	Simple bool `json:"simple"`
	// TransientOnly is set when every hit lies before CycleStart, so the token
	// never stands on a goal again. Period and Residue are zero.
	TransientOnly bool `json:"transient_only,omitempty"`
}

// Periodic builds a Record for a token known to hit goals at phase, phase+period, phase+2·period, ...
func Periodic(start domain.NodeID, phase, period int) Record {
	return Record{
		Start:   start,
		Phase:   phase,
		Period:  period,
		Residue: mod(phase, period),
		Simple:  phase == period,
	}
}

// HitAt reports whether the token stands on a goal node after step moves.
func (r Record) HitAt(step int) bool {
	if step < 1 {
		return false
	}
	if r.TransientOnly || step <= r.CycleStart {
		_, ok := slices.BinarySearch(r.Hits, step)
		return ok
	}
	if r.Period < 1 {
		return false
	}
	return step >= r.Phase && mod(step-r.Residue, r.Period) == 0
}

// Transient returns the hits that occur before the walk enters its cycle and never recur.
func (r Record) Transient() []int {
	if r.TransientOnly {
		return slices.Clone(r.Hits)
	}
	var out []int
	for _, h := range r.Hits {
		if h > r.CycleStart {
			break
		}
		if mod(h-r.Residue, r.Period) != 0 {
			out = append(out, h)
		}
	}
	return out
}

// LastHit returns the final recorded hit, or 0 without hits.
func (r Record) LastHit() int {
	if len(r.Hits) == 0 {
		return 0
	}
	return r.Hits[len(r.Hits)-1]
}

func mod(a, m int) int {
	if m == 0 {
		return a
	}
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
