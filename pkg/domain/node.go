package domain

import "fmt"

// NodeID is the opaque label of a network node.
type NodeID string

// Direction selects one of the two outgoing edges of a node.
type Direction uint8

const (
	// Left follows the first successor.
	Left Direction = iota
	// Right follows the second successor.
	Right
)

// ParseDirection converts an instruction character into a Direction.
func ParseDirection(c rune) (Direction, error) {
	switch c {
	case 'L', 'l':
		return Left, nil
	case 'R', 'r':
		return Right, nil
	default:
		return 0, fmt.Errorf("%w: invalid instruction %q", ErrMalformedRecord, c)
	}
}

func (d Direction) String() string {
	if d == Right {
		return "R"
	}
	return "L"
}

// Record is a node together with its two successors.
type Record struct {
	ID    NodeID `json:"id" yaml:"id"`
	Left  NodeID `json:"left" yaml:"left"`
	Right NodeID `json:"right" yaml:"right"`
}

// Successor returns the successor selected by d.
func (r Record) Successor(d Direction) NodeID {
	if d == Right {
		return r.Right
	}
	return r.Left
}

// Position is the complete state of a walking token: the node it stands on
// and the instruction cursor modulo the sequence length.
type Position struct {
	Node   NodeID `json:"node"`
	Cursor int    `json:"cursor"`
}

func (p Position) String() string {
	return fmt.Sprintf("%s@%d", p.Node, p.Cursor)
}
