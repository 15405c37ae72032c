package careauth

import "sync/atomic"

// MetricID defines a public type used by careauth APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the careauth client engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the careauth client engine.
	MetricLoginFailure
	// MetricLoginRejectedInFlight is an exported constant or variable used by the careauth client engine.
	MetricLoginRejectedInFlight
	// MetricLoginGateMFA is an exported constant or variable used by the careauth client engine.
	MetricLoginGateMFA
	// MetricLoginGateSSO is an exported constant or variable used by the careauth client engine.
	MetricLoginGateSSO
	// MetricLoginGateEmail is an exported constant or variable used by the careauth client engine.
	MetricLoginGateEmail
	// MetricLoginGatePhone is an exported constant or variable used by the careauth client engine.
	MetricLoginGatePhone
	// MetricMFASuccess is an exported constant or variable used by the careauth client engine.
	MetricMFASuccess
	// MetricMFAFailure is an exported constant or variable used by the careauth client engine.
	MetricMFAFailure
	// MetricCodeSent is an exported constant or variable used by the careauth client engine.
	MetricCodeSent
	// MetricCodeRejectedLocal is an exported constant or variable used by the careauth client engine.
	MetricCodeRejectedLocal
	// MetricCodeVerified is an exported constant or variable used by the careauth client engine.
	MetricCodeVerified
	// MetricCodeFailure is an exported constant or variable used by the careauth client engine.
	MetricCodeFailure
	// MetricProfileRefreshFailure is an exported constant or variable used by the careauth client engine.
	MetricProfileRefreshFailure
	// MetricResetSubmitSuccess is an exported constant or variable used by the careauth client engine.
	MetricResetSubmitSuccess
	// MetricResetSubmitFailure is an exported constant or variable used by the careauth client engine.
	MetricResetSubmitFailure
	// MetricResetTokenMissing is an exported constant or variable used by the careauth client engine.
	MetricResetTokenMissing
	// MetricInviteCompleted is an exported constant or variable used by the careauth client engine.
	MetricInviteCompleted
	// MetricInviteRejected is an exported constant or variable used by the careauth client engine.
	MetricInviteRejected
	// MetricRegisterSuccess is an exported constant or variable used by the careauth client engine.
	MetricRegisterSuccess
	// MetricRegisterFailure is an exported constant or variable used by the careauth client engine.
	MetricRegisterFailure
	// MetricRefreshSuccess is an exported constant or variable used by the careauth client engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the careauth client engine.
	MetricRefreshFailure
	// MetricSessionEstablished is an exported constant or variable used by the careauth client engine.
	MetricSessionEstablished
	// MetricSessionRestored is an exported constant or variable used by the careauth client engine.
	MetricSessionRestored
	// MetricLogout is an exported constant or variable used by the careauth client engine.
	MetricLogout
	// MetricLogoutRemoteFailure is an exported constant or variable used by the careauth client engine.
	MetricLogoutRemoteFailure
	// MetricNetworkFailure is an exported constant or variable used by the careauth client engine.
	MetricNetworkFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by careauth APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by careauth APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics may return an error when input validation, dependency calls, or security checks fail.
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled may return an error when input validation, dependency calls, or security checks fail.
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc may return an error when input validation, dependency calls, or security checks fail.
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
//
// Value may return an error when input validation, dependency calls, or security checks fail.
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot may return an error when input validation, dependency calls, or security checks fail.
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if v := atomic.LoadUint64(&m.counters[id].value); v != 0 {
			snap.Counters[id] = v
		}
	}
	return snap
}
