package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/aretw0/lockstep/pkg/walker"
)

// GraphOverlay contains traversal data to visualize on the graph.
type GraphOverlay struct {
	Starts  []domain.NodeID
	Goals   []domain.NodeID
	Visited []domain.NodeID
	// Cycle lists the nodes a traced token keeps revisiting.
	Cycle []domain.NodeID
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a list of records.
// It applies semantic styling:
// - Start: ((Circle))
// - Goal: (((Double circle)))
// - Default: [Rectangle]
// Edges are labelled with the instruction that follows them; a record whose
// successors coincide gets a single L/R edge.
// It also applies overlay styles (visited/cycle) if provided.
func GenerateMermaid(records []domain.Record, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	starts, goals := map[domain.NodeID]bool{}, map[domain.NodeID]bool{}
	if overlay != nil {
		for _, id := range overlay.Starts {
			starts[id] = true
		}
		for _, id := range overlay.Goals {
			goals[id] = true
		}
	}

	for _, rec := range records {
		safeID := sanitizeMermaidID(rec.ID)

		opener, closer := "[", "]"
		switch {
		case starts[rec.ID]:
			opener, closer = "((", "))"
		case goals[rec.ID]:
			opener, closer = "(((", ")))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, rec.ID, closer)

		if rec.Left == rec.Right {
			fmt.Fprintf(&sb, "    %s -- \"L/R\" --> %s\n", safeID, sanitizeMermaidID(rec.Left))
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"L\" --> %s\n", safeID, sanitizeMermaidID(rec.Left))
		fmt.Fprintf(&sb, "    %s -- \"R\" --> %s\n", safeID, sanitizeMermaidID(rec.Right))
	}

	if overlay != nil && (len(overlay.Visited) > 0 || len(overlay.Cycle) > 0) {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef cycle fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		inCycle := make(map[string]bool)
		for _, id := range overlay.Cycle {
			inCycle[sanitizeMermaidID(id)] = true
		}

		styled := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(id)
			if styled[safeID] || inCycle[safeID] || safeID == "" {
				continue
			}
			styled[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		for _, id := range overlay.Cycle {
			safeID := sanitizeMermaidID(id)
			if styled[safeID] {
				continue
			}
			styled[safeID] = true
			fmt.Fprintf(&sb, "    class %s cycle;\n", safeID)
		}
	}

	return sb.String()
}

// Trace walks one token until its position repeats and returns the nodes it
// passed through before and inside its cycle. maxSteps <= 0 means unbounded.
func Trace(ctx context.Context, g walker.Graph, seq instructions.Sequence, start domain.NodeID, maxSteps int) (visited, cycle []domain.NodeID, err error) {
	w := walker.New(g, seq, start)
	seen := map[domain.Position]int{w.Position(): 0}
	path := []domain.NodeID{start}

	for {
		if maxSteps > 0 && w.Steps() >= maxSteps {
			return nil, nil, fmt.Errorf("trace %s: %w: %d steps", start, domain.ErrBoundExceeded, maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		step, node, err := w.Next()
		if err != nil {
			return nil, nil, fmt.Errorf("trace %s at step %d: %w", start, step, err)
		}
		pos := w.Position()
		if first, ok := seen[pos]; ok {
			return dedupe(path[:first]), dedupe(path[first:]), nil
		}
		seen[pos] = step
		path = append(path, node)
	}
}

func dedupe(ids []domain.NodeID) []domain.NodeID {
	seen := make(map[domain.NodeID]bool, len(ids))
	out := make([]domain.NodeID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sanitizeMermaidID(id domain.NodeID) string {
	s := strings.ReplaceAll(string(id), ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
