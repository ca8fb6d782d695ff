package observability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lockstep"

// Metrics records token analyses as Prometheus collectors.
type Metrics struct {
	analyses    *prometheus.CounterVec
	goalHits    prometheus.Counter
	cycleLength prometheus.Histogram
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge

	mu      sync.Mutex
	started map[domain.NodeID][]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_analyses_total",
				Help:      "Total number of token analyses by outcome",
			},
			[]string{"outcome"},
		),
		goalHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_hits_total",
			Help:      "Total number of goal hits observed while walking tokens",
		}),
		cycleLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_length_steps",
			Help:      "Length of the cycle each token settles into",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_analysis_duration_seconds",
			Help:      "Duration of token analyses",
			Buckets:   prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "token_analyses_in_flight",
			Help:      "Number of token analyses currently running",
		}),
		started: make(map[domain.NodeID][]time.Time),
	}
	reg.MustRegister(m.analyses, m.goalHits, m.cycleLength, m.duration, m.inFlight)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnalysisStart: func(_ context.Context, e *domain.TokenEvent) {
			m.inFlight.Inc()
			m.mu.Lock()
			m.started[e.Start] = append(m.started[e.Start], e.Timestamp)
			m.mu.Unlock()
		},
		OnGoalHit: func(context.Context, *domain.TokenEvent) {
			m.goalHits.Inc()
		},
		OnCycleDetected: func(_ context.Context, e *domain.TokenEvent) {
			m.cycleLength.Observe(float64(e.CycleLength))
		},
		OnAnalysisFinish: func(_ context.Context, e *domain.TokenEvent) {
			m.inFlight.Dec()
			m.analyses.WithLabelValues(Outcome(e.Err)).Inc()
			if begin, ok := m.popStart(e.Start); ok {
				m.duration.Observe(e.Timestamp.Sub(begin).Seconds())
			}
		},
	}
}

func (m *Metrics) popStart(start domain.NodeID) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	times := m.started[start]
	if len(times) == 0 {
		return time.Time{}, false
	}
	begin := times[0]
	if len(times) == 1 {
		delete(m.started, start)
	} else {
		m.started[start] = times[1:]
	}
	return begin, true
}

// Outcome maps an analysis error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoGoalReachedWithinCycle):
		return "no_goal"
	case errors.Is(err, domain.ErrAmbiguousPeriod):
		return "ambiguous_period"
	case errors.Is(err, domain.ErrBoundExceeded):
		return "bound_exceeded"
	case errors.Is(err, domain.ErrUnknownNode):
		return "unknown_node"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// Logging returns lifecycle hooks that log every event at debug level,
// except failed analyses which are logged as warnings.
func Logging(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnalysisStart: func(ctx context.Context, e *domain.TokenEvent) {
			logger.DebugContext(ctx, "analysis_start", "start", e.Start)
		},
		OnCycleDetected: func(ctx context.Context, e *domain.TokenEvent) {
			logger.DebugContext(ctx, "cycle_detected", "start", e.Start, "cycle_start", e.Step, "cycle_length", e.CycleLength)
		},
		OnAnalysisFinish: func(ctx context.Context, e *domain.TokenEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "analysis_failed", "start", e.Start, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "analysis_finish", "start", e.Start, "first_hit", e.Step)
		},
	}
}
