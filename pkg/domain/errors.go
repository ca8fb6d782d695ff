package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned when an input line cannot be decomposed into a node record
// or an instruction character is not recognized.
var ErrMalformedRecord = errors.New("malformed record")

// ErrDuplicateNode is returned when the same node is defined twice.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrUnknownNode is returned when a lookup references a node absent from the network.
var ErrUnknownNode = errors.New("unknown node")

// ErrEmptyInstructionSequence is returned when an instruction sequence has no entries.
var ErrEmptyInstructionSequence = errors.New("empty instruction sequence")

// ErrAmbiguousPeriod is returned when goal hits cannot be reduced to a single period.
var ErrAmbiguousPeriod = errors.New("ambiguous period")

// ErrNoGoalReachedWithinCycle is returned when a walk enters its cycle without ever reaching a goal.
var ErrNoGoalReachedWithinCycle = errors.New("no goal reached within cycle")

// ErrNoCommonSolution is returned when the tokens can never be at a goal simultaneously.
var ErrNoCommonSolution = errors.New("no common solution")

// ErrBoundExceeded is returned when a search exceeds its configured iteration bound.
var ErrBoundExceeded = errors.New("bound exceeded")

// ErrResultNotFound is returned when a result cannot be found in the store.
var ErrResultNotFound = errors.New("result not found")

// RecordError carries the offending input line of a parse failure.
type RecordError struct {
	Line int
	Text string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// NodeError names the node involved in a lookup or construction failure.
type NodeError struct {
	Node NodeID
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Node)
}

func (e *NodeError) Unwrap() error { return e.Err }

// PeriodError describes the goal hits that could not be reduced for a token.
type PeriodError struct {
	Start      NodeID
	Candidates []int
	Residues   []int
}

func (e *PeriodError) Error() string {
	if len(e.Residues) > 1 {
		return fmt.Sprintf("%v: token %s hits goals at residues %v", ErrAmbiguousPeriod, e.Start, e.Residues)
	}
	return fmt.Sprintf("%v: token %s has irreducible hits %v", ErrAmbiguousPeriod, e.Start, e.Candidates)
}

func (e *PeriodError) Unwrap() error { return ErrAmbiguousPeriod }

// IsInputError reports whether err stems from malformed input rather than from analysis.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedRecord) ||
		errors.Is(err, ErrDuplicateNode) ||
		errors.Is(err, ErrEmptyInstructionSequence)
}
