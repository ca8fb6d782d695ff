package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/lockstep/internal/presentation/graph"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/aretw0/lockstep/pkg/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, l, r string) domain.Record {
	return domain.Record{ID: domain.NodeID(id), Left: domain.NodeID(l), Right: domain.NodeID(r)}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		records  []domain.Record
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name:    "Distinct Successors",
			records: []domain.Record{rec("AAA", "BBB", "CCC")},
			contains: []string{
				"AAA[\"AAA\"]",
				"AAA -- \"L\" --> BBB",
				"AAA -- \"R\" --> CCC",
			},
		},
		{
			name:     "Shared Successor",
			records:  []domain.Record{rec("ZZZ", "ZZZ", "ZZZ")},
			contains: []string{"ZZZ -- \"L/R\" --> ZZZ"},
			excludes: []string{"-- \"L\" -->"},
		},
		{
			name:    "Start And Goal Shapes",
			records: []domain.Record{rec("11A", "11Z", "11Z"), rec("11Z", "11A", "11A")},
			overlay: &graph.GraphOverlay{Starts: []domain.NodeID{"11A"}, Goals: []domain.NodeID{"11Z"}},
			contains: []string{
				"11A((\"11A\"))",
				"11Z(((\"11Z\")))",
			},
			excludes: []string{"classDef"},
		},
		{
			name:    "ID Sanitization",
			records: []domain.Record{rec("a.b-c", "a.b-c", "a.b-c")},
			contains: []string{
				"a_b_c[\"a.b-c\"]",
			},
		},
		{
			name:    "Overlay",
			records: []domain.Record{rec("AAA", "BBB", "BBB"), rec("BBB", "BBB", "BBB")},
			overlay: &graph.GraphOverlay{Visited: []domain.NodeID{"AAA", "AAA", "BBB"}, Cycle: []domain.NodeID{"BBB"}},
			contains: []string{
				"classDef visited",
				"class AAA visited;",
				"class BBB cycle;",
			},
			excludes: []string{"class BBB visited;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.records, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph LR\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
			assert.LessOrEqual(t, strings.Count(got, "class AAA visited;"), 1)
		})
	}
}

func TestTrace(t *testing.T) {
	g := network.MustNew(
		rec("22A", "22B", "XXX"),
		rec("22B", "22C", "22C"),
		rec("22C", "22Z", "22Z"),
		rec("22Z", "22B", "22B"),
		rec("XXX", "XXX", "XXX"),
	)
	seq, err := instructions.Parse("LR")
	require.NoError(t, err)

	visited, cycle, err := graph.Trace(context.Background(), g, seq, "22A", 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{"22A"}, visited)
	assert.ElementsMatch(t, []domain.NodeID{"22B", "22C", "22Z"}, cycle)
}

func TestTrace_Errors(t *testing.T) {
	seq, err := instructions.Parse("L")
	require.NoError(t, err)

	_, _, err = graph.Trace(context.Background(), network.MustNew(rec("AAA", "BBB", "BBB")), seq, "AAA", 0)
	assert.ErrorIs(t, err, domain.ErrUnknownNode)

	loop := network.MustNew(rec("AAA", "BBB", "BBB"), rec("BBB", "CCC", "CCC"), rec("CCC", "AAA", "AAA"))
	_, _, err = graph.Trace(context.Background(), loop, seq, "AAA", 2)
	assert.ErrorIs(t, err, domain.ErrBoundExceeded)
}
