package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name string
		hits []int
		want []int
	}{
		{"multiples collapse", []int{2, 4, 6, 8}, []int{2}},
		{"coprime hits stay", []int{3, 5, 10}, []int{3, 5}},
		{"empty", nil, nil},
		{"non positive ignored", []int{0, 4, 8}, []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.hits))
		})
	}
}

func TestPatternPeriod(t *testing.T) {
	assert.Equal(t, 3, patternPeriod(map[int]bool{0: true, 3: true}, 6))
	assert.Equal(t, 1, patternPeriod(map[int]bool{0: true, 1: true}, 2))
	assert.Equal(t, 5, patternPeriod(map[int]bool{1: true, 3: true}, 5))
	assert.Equal(t, 4, patternPeriod(map[int]bool{2: true}, 4))
}

func TestPeriodic(t *testing.T) {
	r := Periodic("A", 2, 6)
	assert.False(t, r.Simple)
	assert.Equal(t, 2, r.Residue)
	assert.True(t, r.HitAt(2))
	assert.True(t, r.HitAt(8))
	assert.False(t, r.HitAt(6))
	assert.False(t, r.HitAt(0))

	s := Periodic("B", 4, 4)
	assert.True(t, s.Simple)
	assert.False(t, s.HitAt(2))
	assert.True(t, s.HitAt(12))
}

func TestTransient(t *testing.T) {
	r := Record{Phase: 1, Period: 3, Residue: 2, CycleStart: 3, CycleLength: 3, Hits: []int{1, 5}}
	assert.Equal(t, []int{1}, r.Transient())
	assert.True(t, r.HitAt(1))
	assert.False(t, r.HitAt(2))
	assert.True(t, r.HitAt(5))
	assert.True(t, r.HitAt(8))
}
