// Package walker advances a single token through a network under an instruction sequence.
package walker

import (
	"iter"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
)

// Graph is the read-only view of a network the walker needs.
type Graph interface {
	Lookup(id domain.NodeID, dir domain.Direction) (domain.NodeID, error)
}

// Step applies one instruction: the token on node at stepIndex moves along
// the edge selected by seq at stepIndex.
func Step(g Graph, seq instructions.Sequence, node domain.NodeID, stepIndex int) (domain.NodeID, error) {
	dir, _ := seq.Next(stepIndex)
	return g.Lookup(node, dir)
}

// Walker drives a token step by step. It holds no hidden state beyond the
// current node and step counter, so a fresh Walker with the same start
// reproduces the same sequence.
type Walker struct {
	graph Graph
	seq   instructions.Sequence
	start domain.NodeID
	node  domain.NodeID
	step  int
	err   error
}

// New creates a Walker standing on start at step 0.
func New(g Graph, seq instructions.Sequence, start domain.NodeID) *Walker {
	return &Walker{graph: g, seq: seq, start: start, node: start}
}

// Next moves the token one step and returns the new step count and node.
// Once a lookup fails the Walker stays failed.
func (w *Walker) Next() (int, domain.NodeID, error) {
	if w.err != nil {
		return w.step, w.node, w.err
	}
	next, err := Step(w.graph, w.seq, w.node, w.step)
	if err != nil {
		w.err = err
		return w.step, w.node, err
	}
	w.node = next
	w.step++
	return w.step, w.node, nil
}

// Position returns the current (node, cursor) pair.
func (w *Walker) Position() domain.Position {
	return domain.Position{Node: w.node, Cursor: w.seq.Cursor(w.step)}
}

// Steps returns how many steps have been taken.
func (w *Walker) Steps() int {
	return w.step
}

// Node returns the node the token stands on.
func (w *Walker) Node() domain.NodeID {
	return w.node
}

// Err returns the lookup failure that stopped the walker, if any.
func (w *Walker) Err() error {
	return w.err
}

// Reset puts the token back on its start node at step 0.
func (w *Walker) Reset() {
	w.node = w.start
	w.step = 0
	w.err = nil
}

// All returns an iterator over (step, node) pairs starting with the first move.
// The sequence is infinite unless a lookup fails, in which case it ends and
// Err reports the failure.
func (w *Walker) All() iter.Seq2[int, domain.NodeID] {
	return func(yield func(int, domain.NodeID) bool) {
		for {
			step, node, err := w.Next()
			if err != nil {
				return
			}
			if !yield(step, node) {
				return
			}
		}
	}
}

// Walk is shorthand for New(g, seq, start).All().
func Walk(g Graph, seq instructions.Sequence, start domain.NodeID) iter.Seq2[int, domain.NodeID] {
	return New(g, seq, start).All()
}
