package synchronizer_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/aretw0/lockstep/pkg/cycle"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/synchronizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCM(t *testing.T) {
	got, err := synchronizer.LCM(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	got, err = synchronizer.LCM(4, 6, 10)
	require.NoError(t, err)
	assert.Equal(t, 60, got)

	_, err = synchronizer.LCM()
	assert.Error(t, err)

	_, err = synchronizer.LCM(3, 0)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	c, err := synchronizer.Merge(
		synchronizer.Congruence{Residue: 2, Modulus: 6},
		synchronizer.Congruence{Residue: 4, Modulus: 8},
		0,
	)
	require.NoError(t, err)
	assert.Equal(t, synchronizer.Congruence{Residue: 20, Modulus: 24}, c)

	_, err = synchronizer.Merge(
		synchronizer.Congruence{Residue: 2, Modulus: 6},
		synchronizer.Congruence{Residue: 5, Modulus: 8},
		0,
	)
	assert.ErrorIs(t, err, domain.ErrNoCommonSolution)

	_, err = synchronizer.Merge(
		synchronizer.Congruence{Residue: 0, Modulus: 1000},
		synchronizer.Congruence{Residue: 500, Modulus: 999},
		5,
	)
	assert.ErrorIs(t, err, domain.ErrBoundExceeded)
}

func TestCombine_LCMPath(t *testing.T) {
	records := []cycle.Record{
		cycle.Periodic("11A", 2, 2),
		cycle.Periodic("22A", 3, 3),
	}

	res, err := synchronizer.Combine(records)
	require.NoError(t, err)
	assert.Equal(t, synchronizer.Result{Steps: 6, Method: synchronizer.MethodLCM}, res)
}

func TestCombine_GeneralPath(t *testing.T) {
	res, err := synchronizer.Combine([]cycle.Record{
		cycle.Periodic("A", 2, 6),
		cycle.Periodic("B", 4, 8),
	})
	require.NoError(t, err)
	assert.Equal(t, synchronizer.MethodCongruence, res.Method)
	assert.Equal(t, 20, res.Steps)
}

func TestCombine_Incompatible(t *testing.T) {
	records := []cycle.Record{
		cycle.Periodic("A", 2, 6),
		cycle.Periodic("B", 5, 8),
	}

	_, err := synchronizer.Combine(records)
	assert.ErrorIs(t, err, domain.ErrNoCommonSolution)

	// Brute force up to the product of the periods agrees there is no common step.
	for step := 1; step <= 6*8; step++ {
		assert.False(t, step%6 == 2 && step%8 == 5, "step %d", step)
	}
}

func TestCombine_TransientMeeting(t *testing.T) {
	// Both tokens hit a goal at step 1 before entering cycles that never align.
	records := []cycle.Record{
		{Start: "A", Phase: 1, Period: 2, Residue: 0, CycleStart: 1, CycleLength: 2, Hits: []int{1, 2}},
		{Start: "B", Phase: 1, Period: 2, Residue: 1, CycleStart: 1, CycleLength: 2, Hits: []int{1, 3}},
	}

	res, err := synchronizer.Combine(records)
	require.NoError(t, err)
	assert.Equal(t, synchronizer.Result{Steps: 1, Method: synchronizer.MethodTransient}, res)
}

func TestCombine_TransientOnly(t *testing.T) {
	// A leaves its goals for good after step 3.
	gone := cycle.Record{Start: "A", Phase: 1, CycleStart: 4, CycleLength: 2, Hits: []int{1, 3}, TransientOnly: true}

	t.Run("meets before the last hit", func(t *testing.T) {
		res, err := synchronizer.Combine([]cycle.Record{gone, cycle.Periodic("B", 3, 3)})
		require.NoError(t, err)
		assert.Equal(t, synchronizer.Result{Steps: 3, Method: synchronizer.MethodTransient}, res)
	})

	t.Run("no shared step", func(t *testing.T) {
		_, err := synchronizer.Combine([]cycle.Record{gone, cycle.Periodic("B", 2, 2)})
		assert.ErrorIs(t, err, domain.ErrNoCommonSolution)
	})

	t.Run("alone", func(t *testing.T) {
		res, err := synchronizer.Combine([]cycle.Record{gone})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Steps)
	})

	t.Run("without hits", func(t *testing.T) {
		_, err := synchronizer.Combine([]cycle.Record{{Start: "A", TransientOnly: true}})
		assert.Error(t, err)
	})
}

func TestCombine_Empty(t *testing.T) {
	_, err := synchronizer.Combine(nil)
	assert.Error(t, err)
}

// The LCM shortcut is a special case of the congruence merge.
func TestCombine_PathsAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.IntN(4)
		records := make([]cycle.Record, n)
		for i := range records {
			p := 1 + rng.IntN(30)
			records[i] = cycle.Periodic(domain.NodeID(string(rune('A'+i))), p, p)
		}

		fast, err := synchronizer.Combine(records)
		require.NoError(t, err)
		slow, err := synchronizer.Combine(records, synchronizer.WithoutShortcut())
		require.NoError(t, err)

		assert.Equal(t, synchronizer.MethodLCM, fast.Method)
		assert.Equal(t, synchronizer.MethodCongruence, slow.Method)
		assert.Equal(t, fast.Steps, slow.Steps, "records %+v", records)
	}
}

// The general path finds the smallest common step, checked by enumeration.
func TestCombine_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for trial := 0; trial < 300; trial++ {
		n := 2 + rng.IntN(2)
		records := make([]cycle.Record, n)
		limit := 1
		for i := range records {
			period := 1 + rng.IntN(12)
			phase := 1 + rng.IntN(period)
			records[i] = cycle.Periodic(domain.NodeID(string(rune('A'+i))), phase, period)
			limit *= period
		}
		limit += 12

		want := 0
		for step := 1; step <= limit && want == 0; step++ {
			ok := true
			for _, r := range records {
				if step < r.Phase || (step-r.Phase)%r.Period != 0 {
					ok = false
					break
				}
			}
			if ok {
				want = step
			}
		}

		got, err := synchronizer.Combine(records, synchronizer.WithoutShortcut())
		if want == 0 {
			assert.True(t, errors.Is(err, domain.ErrNoCommonSolution), "records %+v: %v", records, err)
			continue
		}
		require.NoError(t, err, "records %+v", records)
		assert.Equal(t, want, got.Steps, "records %+v", records)
	}
}

func TestSolve_LowerBound(t *testing.T) {
	steps, err := synchronizer.Solve([]synchronizer.Congruence{{Residue: 0, Modulus: 4}}, 9)
	require.NoError(t, err)
	assert.Equal(t, 12, steps)

	steps, err = synchronizer.Solve([]synchronizer.Congruence{{Residue: -1, Modulus: 5}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, steps)
}
