package network_test

import (
	"testing"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []domain.Record {
	return []domain.Record{
		{ID: "BBB", Left: "AAA", Right: "ZZZ"},
		{ID: "AAA", Left: "BBB", Right: "BBB"},
		{ID: "ZZZ", Left: "ZZZ", Right: "ZZZ"},
	}
}

func TestNew(t *testing.T) {
	n, err := network.New(sample())
	require.NoError(t, err)

	assert.Equal(t, 3, n.Len())
	assert.Equal(t, []domain.NodeID{"AAA", "BBB", "ZZZ"}, n.Nodes())
	assert.True(t, n.Has("ZZZ"))
	assert.False(t, n.Has("QQQ"))

	records := n.Records()
	require.Len(t, records, 3)
	assert.Equal(t, domain.NodeID("AAA"), records[0].ID)
}

func TestNew_DuplicateNode(t *testing.T) {
	records := append(sample(), domain.Record{ID: "AAA", Left: "ZZZ", Right: "ZZZ"})

	_, err := network.New(records)
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
	assert.Contains(t, err.Error(), "AAA")
}

func TestNew_MissingID(t *testing.T) {
	_, err := network.New([]domain.Record{{Left: "A", Right: "B"}})
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestLookup(t *testing.T) {
	n := network.MustNew(sample()...)

	next, err := n.Lookup("BBB", domain.Left)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeID("AAA"), next)

	next, err = n.Lookup("BBB", domain.Right)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeID("ZZZ"), next)

	_, err = n.Lookup("QQQ", domain.Left)
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestSelect(t *testing.T) {
	n := network.MustNew(
		domain.Record{ID: "22A", Left: "22B", Right: "XXX"},
		domain.Record{ID: "11A", Left: "11B", Right: "XXX"},
		domain.Record{ID: "11Z", Left: "11B", Right: "XXX"},
	)

	assert.Equal(t, []domain.NodeID{"11A", "22A"}, n.Select(domain.HasSuffix("A")))
	assert.Empty(t, n.Select(domain.HasSuffix("Q")))
}
