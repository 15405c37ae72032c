package careauth

import (
	"context"
	"log"
	"sync/atomic"
)

// Engine defines a public type used by careauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	api      APIClient
	sessions *SessionStore
	events   *eventDispatcher
	metrics  *Metrics
	clock    Clock
	warnFn   func(msg string)
	deviceID string

	// One in-flight guard per controller action. A second call while the
	// first is pending is rejected, never queued.
	loginInFlight    atomic.Bool
	mfaInFlight      atomic.Bool
	registerInFlight atomic.Bool
	refreshInFlight  atomic.Bool
	logoutInFlight   atomic.Bool

	// Tokens received from the API but never established locally, e.g. a
	// login abandoned between response and establishment. AbandonLogin
	// invalidates them best-effort.
	partialTokens atomic.Pointer[Tokens]
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.events != nil {
		e.events.Close()
	}
}

// EventsDropped describes the eventsdropped operation and its observable behavior.
//
// EventsDropped may return an error when input validation, dependency calls, or security checks fail.
// EventsDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EventsDropped() uint64 {
	if e == nil || e.events == nil {
		return 0
	}
	return e.events.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IsAuthenticated() bool {
	if e == nil || e.sessions == nil {
		return false
	}
	return e.sessions.IsAuthenticated()
}

// SessionUser describes the sessionuser operation and its observable behavior.
//
// SessionUser may return an error when input validation, dependency calls, or security checks fail.
// SessionUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SessionUser() (*User, bool) {
	if e == nil || e.sessions == nil {
		return nil, false
	}
	_, user, ok := e.sessions.Current()
	return user, ok
}

// SessionTokens describes the sessiontokens operation and its observable behavior.
//
// SessionTokens may return an error when input validation, dependency calls, or security checks fail.
// SessionTokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SessionTokens() (Tokens, bool) {
	if e == nil || e.sessions == nil {
		return Tokens{}, false
	}
	tokens, _, ok := e.sessions.Current()
	return tokens, ok
}

// RegisterCache describes the registercache operation and its observable behavior.
//
// RegisterCache may return an error when input validation, dependency calls, or security checks fail.
// RegisterCache does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RegisterCache(c SessionCache) {
	if e == nil || e.sessions == nil || c == nil {
		return
	}
	e.sessions.registerCache(c)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string) {
	if e == nil {
		return
	}
	if e.warnFn != nil {
		e.warnFn(msg)
		return
	}
	log.Println(msg)
}

func (e *Engine) emitEvent(ctx context.Context, event FlowEvent) {
	if e == nil || e.events == nil {
		return
	}
	event.Timestamp = e.clock.Now()
	e.events.Emit(ctx, event)
}

func (e *Engine) emitNavigate(ctx context.Context, nav NavTarget, metadata map[string]string) {
	e.emitEvent(ctx, FlowEvent{
		EventType: EventNavigate,
		Nav:       nav,
		Success:   true,
		Metadata:  metadata,
	})
}

// remoteMessage extracts the structured envelope message if err carries one.
func remoteMessage(err error) string {
	_, msg := apiErrorStatus(err)
	return msg
}
