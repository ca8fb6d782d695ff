package observability_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnAnalysisStart(ctx, domain.NewTokenEvent(domain.EventAnalysisStart, "11A"))
	hooks.OnGoalHit(ctx, domain.NewTokenEvent(domain.EventGoalHit, "11A"))
	hooks.OnGoalHit(ctx, domain.NewTokenEvent(domain.EventGoalHit, "11A"))

	cycled := domain.NewTokenEvent(domain.EventCycleDetected, "11A")
	cycled.CycleLength = 6
	hooks.OnCycleDetected(ctx, cycled)

	hooks.OnAnalysisFinish(ctx, domain.NewTokenEvent(domain.EventAnalysisFinish, "11A"))

	failed := domain.NewTokenEvent(domain.EventAnalysisFinish, "22A")
	failed.Err = fmt.Errorf("token 22A: %w", domain.ErrNoGoalReachedWithinCycle)
	hooks.OnAnalysisStart(ctx, domain.NewTokenEvent(domain.EventAnalysisStart, "22A"))
	hooks.OnAnalysisFinish(ctx, failed)

	count, err := testutil.GatherAndCount(reg,
		"lockstep_goal_hits_total",
		"lockstep_token_analyses_total",
		"lockstep_cycle_length_steps",
		"lockstep_token_analysis_duration_seconds",
		"lockstep_token_analyses_in_flight",
	)
	require.NoError(t, err)
	// Two outcome series plus one series for each remaining collector.
	assert.Equal(t, 6, count)

	expected := `
# HELP lockstep_goal_hits_total Total number of goal hits observed while walking tokens
# TYPE lockstep_goal_hits_total counter
lockstep_goal_hits_total 2
# HELP lockstep_token_analyses_in_flight Number of token analyses currently running
# TYPE lockstep_token_analyses_in_flight gauge
lockstep_token_analyses_in_flight 0
# HELP lockstep_token_analyses_total Total number of token analyses by outcome
# TYPE lockstep_token_analyses_total counter
lockstep_token_analyses_total{outcome="no_goal"} 1
lockstep_token_analyses_total{outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected),
		"lockstep_goal_hits_total", "lockstep_token_analyses_in_flight", "lockstep_token_analyses_total"))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&domain.PeriodError{Start: "A"}, "ambiguous_period"},
		{fmt.Errorf("x: %w", domain.ErrBoundExceeded), "bound_exceeded"},
		{&domain.NodeError{Node: "A", Err: domain.ErrUnknownNode}, "unknown_node"},
		{context.Canceled, "canceled"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, observability.Outcome(tt.err))
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	hooks := observability.Logging(logger)
	ctx := context.Background()

	hooks.OnAnalysisStart(ctx, domain.NewTokenEvent(domain.EventAnalysisStart, "AAA"))
	assert.Empty(t, buf.String())

	ev := domain.NewTokenEvent(domain.EventAnalysisFinish, "AAA")
	ev.Err = domain.ErrNoGoalReachedWithinCycle
	hooks.OnAnalysisFinish(ctx, ev)
	assert.Contains(t, buf.String(), "analysis_failed")
	assert.Contains(t, buf.String(), "start=AAA")
}
