package careauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Flow event types emitted on the event stream.
const (
	// EventNavigate is an exported constant or variable used by the careauth client engine.
	EventNavigate = "navigate"
	// EventVerified is an exported constant or variable used by the careauth client engine.
	EventVerified = "verified"
	// EventSessionEstablished is an exported constant or variable used by the careauth client engine.
	EventSessionEstablished = "session_established"
	// EventSessionTornDown is an exported constant or variable used by the careauth client engine.
	EventSessionTornDown = "session_torn_down"
	// EventResetConsumed is an exported constant or variable used by the careauth client engine.
	EventResetConsumed = "reset_consumed"
	// EventInviteCompleted is an exported constant or variable used by the careauth client engine.
	EventInviteCompleted = "invite_completed"
)

// FlowEvent is one observable step of an authentication flow: a navigation
// directive, a verification result, or a session lifecycle transition. The
// UI collaborator subscribes through an [EventSink].
type FlowEvent struct {
	Timestamp time.Time           `json:"timestamp"`
	EventType string              `json:"event_type"`
	Nav       NavTarget           `json:"nav,omitempty"`
	Channel   VerificationChannel `json:"channel,omitempty"`
	UserID    string              `json:"user_id,omitempty"`
	Success   bool                `json:"success"`
	Error     string              `json:"error,omitempty"`
	Metadata  map[string]string   `json:"metadata,omitempty"`
}

// EventSink defines a public type used by careauth APIs.
//
// EventSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventSink interface {
	Emit(ctx context.Context, event FlowEvent)
}

// NoOpSink defines a public type used by careauth APIs.
//
// NoOpSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpSink) Emit(context.Context, FlowEvent) {}

// ChannelSink defines a public type used by careauth APIs.
//
// ChannelSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChannelSink struct {
	events chan FlowEvent
}

// NewChannelSink describes the newchannelsink operation and its observable behavior.
//
// NewChannelSink may return an error when input validation, dependency calls, or security checks fail.
// NewChannelSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan FlowEvent, buffer),
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChannelSink) Emit(ctx context.Context, event FlowEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
//
// Events may return an error when input validation, dependency calls, or security checks fail.
// Events does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChannelSink) Events() <-chan FlowEvent {
	return s.events
}

// JSONWriterSink defines a public type used by careauth APIs.
//
// JSONWriterSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
//
// NewJSONWriterSink may return an error when input validation, dependency calls, or security checks fail.
// NewJSONWriterSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *JSONWriterSink) Emit(ctx context.Context, event FlowEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
