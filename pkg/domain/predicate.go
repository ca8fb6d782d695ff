package domain

import (
	"slices"
	"strings"
)

// Predicate decides whether a token standing on a node has arrived.
type Predicate func(NodeID) bool

// Exactly matches a single node.
func Exactly(id NodeID) Predicate {
	return func(n NodeID) bool { return n == id }
}

// HasSuffix matches every node whose identifier ends with suffix.
func HasSuffix(suffix string) Predicate {
	return func(n NodeID) bool { return strings.HasSuffix(string(n), suffix) }
}

// In matches any of the given nodes.
func In(ids ...NodeID) Predicate {
	set := slices.Clone(ids)
	return func(n NodeID) bool { return slices.Contains(set, n) }
}
