package lockstep_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/lockstep"
	"github.com/aretw0/lockstep/internal/testutils"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/aretw0/lockstep/pkg/synchronizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Steps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"direct route", testutils.CamelInput, 2},
		{"instructions repeat", testutils.RepeatInput, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := lockstep.Load(strings.NewReader(tt.input))
			require.NoError(t, err)

			steps, err := eng.Steps(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, steps)
		})
	}
}

func TestEngine_Steps_StartIsGoal(t *testing.T) {
	eng, err := lockstep.Parse([]byte("LR\n\nAAA = (AAA, AAA)\n"), lockstep.WithSingleGoal("AAA", "AAA"))
	require.NoError(t, err)

	steps, err := eng.Steps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, steps, "the start state never counts as an arrival")
}

func TestEngine_Steps_UnknownStart(t *testing.T) {
	eng, err := lockstep.Parse([]byte(testutils.GhostInput))
	require.NoError(t, err)

	_, err = eng.Steps(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestEngine_Synchronize(t *testing.T) {
	eng, err := lockstep.Parse([]byte(testutils.GhostInput), lockstep.WithConcurrency(1))
	require.NoError(t, err)

	assert.Equal(t, []domain.NodeID{"11A", "22A"}, eng.Tokens())

	multi, err := eng.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, multi.Steps)
	require.Len(t, multi.Tokens, 2)
	assert.Equal(t, domain.NodeID("11A"), multi.Tokens[0].Start)
	assert.Equal(t, 2, multi.Tokens[0].Period)
	assert.Equal(t, 3, multi.Tokens[1].Period)
}

func TestEngine_Synchronize_NoTokens(t *testing.T) {
	eng, err := lockstep.Parse([]byte(testutils.RepeatInput), lockstep.WithMultiGoal("Q", "Z"))
	require.NoError(t, err)

	_, err = eng.Synchronize(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestEngine_Synchronize_GoalNeverReached(t *testing.T) {
	input := "L\n\nAAA = (BBB, BBB)\nBBB = (AAA, AAA)\nCCA = (CCZ, CCZ)\nCCZ = (CCA, CCA)\n"
	eng, err := lockstep.Parse([]byte(input))
	require.NoError(t, err)

	_, err = eng.Synchronize(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoGoalReachedWithinCycle)
}

func TestEngine_Synchronize_TransientOnlyGoal(t *testing.T) {
	// AAA passes 11Z once and then circles XXX forever.
	input := "L\n\nAAA = (11Z, 11Z)\n11Z = (XXX, XXX)\nXXX = (XXX, XXX)\n"
	eng, err := lockstep.Parse([]byte(input))
	require.NoError(t, err)

	multi, err := eng.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, multi.Steps)
	assert.Equal(t, synchronizer.MethodTransient, multi.Method)
	require.Len(t, multi.Tokens, 1)
	assert.True(t, multi.Tokens[0].TransientOnly)
}

func TestEngine_Synchronize_TransientOnlyMiss(t *testing.T) {
	// 11A stands on 11Z only at step 1; 22A first reaches 22Z at step 2.
	input := "L\n\n11A = (11Z, 11Z)\n11Z = (XXX, XXX)\nXXX = (XXX, XXX)\n" +
		"22A = (22B, 22B)\n22B = (22Z, 22Z)\n22Z = (22B, 22B)\n"
	eng, err := lockstep.Parse([]byte(input))
	require.NoError(t, err)

	_, err = eng.Synchronize(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoCommonSolution)
}

// randomInput builds a small network where node 0 is always a token start.
func randomInput(rng *rand.Rand) string {
	n := 2 + rng.IntN(6)
	ids := make([]string, n)
	for i := range ids {
		suffix := "ABZZ"[rng.IntN(4)]
		if i == 0 {
			suffix = 'A'
		}
		ids[i] = fmt.Sprintf("N%d%c", i, suffix)
	}

	var sb strings.Builder
	for range 1 + rng.IntN(4) {
		sb.WriteByte("LR"[rng.IntN(2)])
	}
	sb.WriteString("\n\n")
	for _, id := range ids {
		fmt.Fprintf(&sb, "%s = (%s, %s)\n", id, ids[rng.IntN(n)], ids[rng.IntN(n)])
	}
	return sb.String()
}

// lockstepWalk moves every token together until all stand on a goal or the
// joint state repeats, returning 0 in the latter case.
func lockstepWalk(t *testing.T, input string) int {
	t.Helper()
	head, body, ok := strings.Cut(input, "\n\n")
	require.True(t, ok)

	left, right := map[string]string{}, map[string]string{}
	var tokens []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		f := strings.Fields(strings.NewReplacer("=", " ", "(", " ", ",", " ", ")", " ").Replace(line))
		require.Len(t, f, 3, line)
		id := f[0]
		left[id], right[id] = f[1], f[2]
		if strings.HasSuffix(id, "A") {
			tokens = append(tokens, id)
		}
	}

	seen := map[string]bool{fmt.Sprint(0, tokens): true}
	for step := 1; ; step++ {
		dir := head[(step-1)%len(head)]
		done := true
		for i, node := range tokens {
			if dir == 'L' {
				tokens[i] = left[node]
			} else {
				tokens[i] = right[node]
			}
			done = done && strings.HasSuffix(tokens[i], "Z")
		}
		if done {
			return step
		}
		state := fmt.Sprint(step%len(head), tokens)
		if seen[state] {
			return 0
		}
		seen[state] = true
	}
}

// Synchronize agrees with moving every token together, including tokens that
// meet before entering their cycles and tokens whose goals never recur.
func TestEngine_Synchronize_MatchesLockstepWalk(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 7))
	ctx := context.Background()
	transient := 0

	for trial := 0; trial < 500; trial++ {
		input := randomInput(rng)
		want := lockstepWalk(t, input)

		eng, err := lockstep.Parse([]byte(input))
		require.NoError(t, err, input)

		multi, err := eng.Synchronize(ctx)
		switch {
		case errors.Is(err, domain.ErrAmbiguousPeriod):
			// Several residue classes per token are out of reach of one congruence.
			continue
		case err != nil:
			assert.Zero(t, want, "input:\n%s\nerror: %v", input, err)
			assert.True(t, errors.Is(err, domain.ErrNoGoalReachedWithinCycle) || errors.Is(err, domain.ErrNoCommonSolution),
				"input:\n%s\nerror: %v", input, err)
			continue
		}
		assert.Equal(t, want, multi.Steps, "input:\n%s", input)
		if multi.Method == synchronizer.MethodTransient {
			transient++
		}
	}
	assert.Positive(t, transient)
}

func TestEngine_Solve(t *testing.T) {
	ctx := context.Background()

	t.Run("both modes", func(t *testing.T) {
		eng, err := lockstep.Parse([]byte(testutils.RepeatInput))
		require.NoError(t, err)

		rep, err := eng.Solve(ctx, report.ModeBoth)
		require.NoError(t, err)
		assert.True(t, rep.OK())
		assert.Equal(t, 6, rep.Single.Steps)
		// AAA is the only **A token and ZZZ the only **Z node.
		assert.Equal(t, 6, rep.Multi.Steps)
		assert.Equal(t, 3, rep.Nodes)
		assert.Equal(t, 3, rep.Instructions)
		assert.Len(t, rep.Digest, 64)
	})

	t.Run("partial failure is reported", func(t *testing.T) {
		eng, err := lockstep.Parse([]byte(testutils.GhostInput))
		require.NoError(t, err)

		rep, err := eng.Solve(ctx, report.ModeBoth)
		require.NoError(t, err)
		assert.False(t, rep.OK())
		assert.Nil(t, rep.Single)
		require.NotNil(t, rep.Multi)
		assert.Equal(t, 6, rep.Multi.Steps)
		require.Len(t, rep.Failures, 1)
		assert.Equal(t, report.ModeSingle, rep.Failures[0].Mode)
	})

	t.Run("every mode failed", func(t *testing.T) {
		eng, err := lockstep.Parse([]byte(testutils.GhostInput))
		require.NoError(t, err)

		rep, err := eng.Solve(ctx, report.ModeSingle)
		assert.ErrorIs(t, err, domain.ErrUnknownNode)
		require.NotNil(t, rep)
		assert.Len(t, rep.Failures, 1)
	})
}

func TestEngine_Solve_LCMPath(t *testing.T) {
	eng, err := lockstep.Parse([]byte(testutils.GhostInput))
	require.NoError(t, err)

	rep, err := eng.Solve(context.Background(), report.ModeMulti)
	require.NoError(t, err)
	assert.Equal(t, synchronizer.MethodLCM, rep.Multi.Method)
}

func TestParse_MalformedRecord(t *testing.T) {
	_, err := lockstep.Parse([]byte("LR\n\nAAA (BBB, CCC)\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)

	var recErr *domain.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 3, recErr.Line)
}

func TestParse_DuplicateNode(t *testing.T) {
	_, err := lockstep.Parse([]byte("L\n\nAAA = (AAA, AAA)\nAAA = (AAA, AAA)\n"))
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
}

func TestEngine_CacheKey(t *testing.T) {
	a, err := lockstep.Parse([]byte(testutils.RepeatInput))
	require.NoError(t, err)
	b, err := lockstep.Parse([]byte(testutils.RepeatInput), lockstep.WithSingleGoal("AAA", "BBB"))
	require.NoError(t, err)

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.CacheKey(report.ModeBoth), b.CacheKey(report.ModeBoth))
	assert.NotEqual(t, a.CacheKey(report.ModeSingle), a.CacheKey(report.ModeMulti))
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events = map[domain.EventType]int{}
	)
	record := func(_ context.Context, ev *domain.TokenEvent) {
		mu.Lock()
		defer mu.Unlock()
		events[ev.Type]++
	}

	eng, err := lockstep.Parse([]byte(testutils.GhostInput), lockstep.WithLifecycleHooks(domain.LifecycleHooks{
		OnAnalysisStart:  record,
		OnGoalHit:        record,
		OnCycleDetected:  record,
		OnAnalysisFinish: record,
	}))
	require.NoError(t, err)

	_, err = eng.Synchronize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, events[domain.EventAnalysisStart])
	assert.Equal(t, 2, events[domain.EventAnalysisFinish])
	assert.Equal(t, 2, events[domain.EventCycleDetected])
	assert.Positive(t, events[domain.EventGoalHit])
}

func TestService_Solve_Caches(t *testing.T) {
	svc := lockstep.NewService()
	ctx := context.Background()

	first, err := svc.Solve(ctx, []byte(testutils.RepeatInput), report.ModeBoth)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Solve(ctx, []byte(testutils.RepeatInput), report.ModeBoth)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Single.Steps, second.Single.Steps)

	other, err := svc.Solve(ctx, []byte(testutils.RepeatInput), report.ModeSingle)
	require.NoError(t, err)
	assert.False(t, other.Cached)
}

func TestService_Solve_DoesNotCacheFailures(t *testing.T) {
	svc := lockstep.NewService()
	ctx := context.Background()

	_, err := svc.Solve(ctx, []byte(testutils.GhostInput), report.ModeBoth)
	require.NoError(t, err)

	again, err := svc.Solve(ctx, []byte(testutils.GhostInput), report.ModeBoth)
	require.NoError(t, err)
	assert.False(t, again.Cached)
}

func TestService_Solve_InputError(t *testing.T) {
	svc := lockstep.NewService()

	_, err := svc.Solve(context.Background(), []byte(""), report.ModeBoth)
	require.Error(t, err)
	assert.True(t, domain.IsInputError(err))
}
