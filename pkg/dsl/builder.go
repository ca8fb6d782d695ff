package dsl

import (
	"fmt"
	"strings"

	"github.com/aretw0/lockstep"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/aretw0/lockstep/pkg/network"
)

// Builder manages the network construction.
// Nodes keep the order in which they were first added.
type Builder struct {
	instructions string
	order        []domain.NodeID
	nodes        map[domain.NodeID]*NodeBuilder
}

// New creates a new network builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[domain.NodeID]*NodeBuilder),
	}
}

// Instructions sets the instruction line, e.g. "LLR".
func (b *Builder) Instructions(line string) *Builder {
	b.instructions = line
	return b
}

// Add creates a new node in the network.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	nid := domain.NodeID(id)
	if nb, ok := b.nodes[nid]; ok {
		return nb
	}
	nb := &NodeBuilder{
		record:  domain.Record{ID: nid},
		builder: b,
	}
	b.nodes[nid] = nb
	b.order = append(b.order, nid)
	return nb
}

// Records returns the records in insertion order.
// A node with an unset successor is reported as malformed.
func (b *Builder) Records() ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(b.order))
	for _, id := range b.order {
		r := b.nodes[id].record
		if r.Left == "" || r.Right == "" {
			return nil, &domain.NodeError{
				Node: id,
				Err:  fmt.Errorf("%w: both successors must be set", domain.ErrMalformedRecord),
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// Build compiles the nodes into a Network.
func (b *Builder) Build() (*network.Network, error) {
	records, err := b.Records()
	if err != nil {
		return nil, err
	}
	g, err := network.New(records)
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}
	return g, nil
}

// Engine compiles the network and instruction line into an engine.
func (b *Builder) Engine(opts ...lockstep.Option) (*lockstep.Engine, error) {
	seq, err := instructions.Parse(b.instructions)
	if err != nil {
		return nil, err
	}
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return lockstep.New(g, seq, opts...)
}

// Text renders the puzzle text the builder describes.
// Unset successors are rendered empty, which the parser rejects.
func (b *Builder) Text() string {
	var sb strings.Builder
	sb.WriteString(b.instructions)
	sb.WriteString("\n\n")
	for _, id := range b.order {
		r := b.nodes[id].record
		fmt.Fprintf(&sb, "%s = (%s, %s)\n", r.ID, r.Left, r.Right)
	}
	return sb.String()
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	record  domain.Record
	builder *Builder
}

// Left sets the successor taken on an L instruction.
func (n *NodeBuilder) Left(target string) *NodeBuilder {
	n.record.Left = domain.NodeID(target)
	return n
}

// Right sets the successor taken on an R instruction.
func (n *NodeBuilder) Right(target string) *NodeBuilder {
	n.record.Right = domain.NodeID(target)
	return n
}

// To sets both successors.
func (n *NodeBuilder) To(left, right string) *NodeBuilder {
	return n.Left(left).Right(right)
}

// Both sends either instruction to the same target.
func (n *NodeBuilder) Both(target string) *NodeBuilder {
	return n.To(target, target)
}

// Loop makes the node its own successor in both directions.
func (n *NodeBuilder) Loop() *NodeBuilder {
	return n.Both(string(n.record.ID))
}

// Add continues the chain with another node of the same builder.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// Record returns the underlying domain.Record.
func (n *NodeBuilder) Record() domain.Record {
	return n.record
}
