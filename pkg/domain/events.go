package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAnalysisStart  EventType = "analysis_start"
	EventGoalHit        EventType = "goal_hit"
	EventCycleDetected  EventType = "cycle_detected"
	EventAnalysisFinish EventType = "analysis_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TokenEvent reports progress of a single token's analysis.
type TokenEvent struct {
	EventBase
	Start NodeID `json:"start"`
	Node  NodeID `json:"node,omitempty"`
	Step  int    `json:"step"`
	// CycleLength is set on cycle detection.
	CycleLength int   `json:"cycle_length,omitempty"`
	Err         error `json:"-"`
}

// NewTokenEvent stamps a TokenEvent with the current time.
func NewTokenEvent(typ EventType, start NodeID) *TokenEvent {
	return &TokenEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: typ},
		Start:     start,
	}
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks may be invoked from several goroutines at once.
type LifecycleHooks struct {
	OnAnalysisStart  func(context.Context, *TokenEvent)
	OnGoalHit        func(context.Context, *TokenEvent)
	OnCycleDetected  func(context.Context, *TokenEvent)
	OnAnalysisFinish func(context.Context, *TokenEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnAnalysisStart:  chain(h.OnAnalysisStart, other.OnAnalysisStart),
		OnGoalHit:        chain(h.OnGoalHit, other.OnGoalHit),
		OnCycleDetected:  chain(h.OnCycleDetected, other.OnCycleDetected),
		OnAnalysisFinish: chain(h.OnAnalysisFinish, other.OnAnalysisFinish),
	}
}

func chain(a, b func(context.Context, *TokenEvent)) func(context.Context, *TokenEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *TokenEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
