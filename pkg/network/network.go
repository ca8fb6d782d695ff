// Package network holds the immutable two-choice graph that tokens walk.
package network

import (
	"fmt"
	"slices"

	"github.com/aretw0/lockstep/pkg/domain"
)

// Network maps each node to its Left and Right successors.
// It is immutable after construction and safe for concurrent use.
type Network struct {
	nodes map[domain.NodeID]domain.Record
}

// New builds a Network from records.
// Successors are not required to exist; a walk reaching a missing node fails on lookup.
func New(records []domain.Record) (*Network, error) {
	nodes := make(map[domain.NodeID]domain.Record, len(records))
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: node missing ID", domain.ErrMalformedRecord)
		}
		if _, ok := nodes[r.ID]; ok {
			return nil, &domain.NodeError{Node: r.ID, Err: domain.ErrDuplicateNode}
		}
		nodes[r.ID] = r
	}
	return &Network{nodes: nodes}, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(records ...domain.Record) *Network {
	n, err := New(records)
	if err != nil {
		panic(err)
	}
	return n
}

// Lookup returns the successor of id selected by dir.
func (n *Network) Lookup(id domain.NodeID, dir domain.Direction) (domain.NodeID, error) {
	r, ok := n.nodes[id]
	if !ok {
		return "", &domain.NodeError{Node: id, Err: domain.ErrUnknownNode}
	}
	return r.Successor(dir), nil
}

// Get returns the record of id.
func (n *Network) Get(id domain.NodeID) (domain.Record, bool) {
	r, ok := n.nodes[id]
	return r, ok
}

// Has reports whether id is defined.
func (n *Network) Has(id domain.NodeID) bool {
	_, ok := n.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (n *Network) Len() int {
	return len(n.nodes)
}

// Nodes returns all node identifiers in sorted order.
func (n *Network) Nodes() []domain.NodeID {
	ids := make([]domain.NodeID, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Records returns all records sorted by node identifier.
func (n *Network) Records() []domain.Record {
	ids := n.Nodes()
	records := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, n.nodes[id])
	}
	return records
}

// Select returns the sorted identifiers of nodes matching pred.
func (n *Network) Select(pred domain.Predicate) []domain.NodeID {
	var ids []domain.NodeID
	for _, id := range n.Nodes() {
		if pred(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
