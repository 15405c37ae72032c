package careauth

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// VerificationFlow is the reusable send-code / wait-cooldown / submit-code
// controller, parameterized by channel. One flow instance backs one
// verification screen; Close is mandatory on flow exit and cancels the
// cooldown countdown.
//
// The flow deliberately does not self-guard RequestCode against an active
// cooldown: the caller owns that guard and checks [VerificationFlow.ResendAllowed]
// before sending. The flow only tracks the countdown so the guard has
// something to read.
type VerificationFlow struct {
	engine  *Engine
	channel VerificationChannel
	target  string

	mu                sync.Mutex
	sentAt            time.Time
	cooldownRemaining int
	attemptsRemaining int
	codeLength        int
	sendInFlight      bool
	submitInFlight    bool
	closed            bool
	cooldownTimer     *timerHandle
}

// StartVerification describes the startverification operation and its observable behavior.
//
// StartVerification may return an error when input validation, dependency calls, or security checks fail.
// StartVerification does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartVerification(channel VerificationChannel, target string) (*VerificationFlow, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}
	switch channel {
	case ChannelEmail:
		if err := validateEmail(target); err != nil {
			return nil, err
		}
	case ChannelPhone:
		if err := validatePhone(target); err != nil {
			return nil, err
		}
	default:
		return nil, ErrEngineNotReady
	}

	return &VerificationFlow{
		engine:            e,
		channel:           channel,
		target:            target,
		attemptsRemaining: e.config.Verification.MaxAttempts,
		codeLength:        e.config.Verification.CodeLength,
	}, nil
}

// RequestCode describes the requestcode operation and its observable behavior.
//
// RequestCode may return an error when input validation, dependency calls, or security checks fail.
// RequestCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *VerificationFlow) RequestCode(ctx context.Context) error {
	e := f.engine

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	if f.sendInFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.sendInFlight = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.sendInFlight = false
		f.mu.Unlock()
	}()

	if err := e.api.SendCode(ctx, f.channel, f.target); err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return err
		}
		status, msg := apiErrorStatus(err)
		if status == http.StatusTooManyRequests {
			return flowErr(ErrVerificationRateLimited, msg)
		}
		return flowErr(ErrCodeInvalid, msg)
	}

	e.metricInc(MetricCodeSent)
	f.resetCooldown()
	return nil
}

// resetCooldown restarts the countdown at the full window. The previous
// handle, if any, is stopped first so exactly one countdown is ever live.
func (f *VerificationFlow) resetCooldown() {
	e := f.engine
	ticks := int(e.config.Verification.CooldownWindow / e.config.Verification.CooldownTick)
	if ticks < 1 {
		ticks = 1
	}

	f.mu.Lock()
	previous := f.cooldownTimer
	f.cooldownTimer = nil
	f.mu.Unlock()
	previous.Stop()

	handle := startCountdown(e.clock, ticks, e.config.Verification.CooldownTick, f.onCooldownTick)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		handle.Stop()
		return
	}
	f.sentAt = e.clock.Now()
	f.cooldownRemaining = ticks
	f.cooldownTimer = handle
	f.mu.Unlock()
}

func (f *VerificationFlow) onCooldownTick(remaining int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	// Monotonically non-increasing, never negative.
	if remaining < f.cooldownRemaining {
		f.cooldownRemaining = remaining
	}
}

// SubmitCode describes the submitcode operation and its observable behavior.
//
// SubmitCode may return an error when input validation, dependency calls, or security checks fail.
// SubmitCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *VerificationFlow) SubmitCode(ctx context.Context, code string) error {
	e := f.engine

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	if f.submitInFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitInFlight = true
	codeLength := f.codeLength
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitInFlight = false
		f.mu.Unlock()
	}()

	if err := validateCode(code, codeLength); err != nil {
		e.metricInc(MetricCodeRejectedLocal)
		return err
	}

	if err := e.api.VerifyCode(ctx, f.channel, f.target, code); err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return err
		}
		e.metricInc(MetricCodeFailure)
		return f.mapVerifyError(err)
	}

	e.metricInc(MetricCodeVerified)
	e.emitEvent(ctx, FlowEvent{
		EventType: EventVerified,
		Channel:   f.channel,
		Success:   true,
	})

	if f.channel == ChannelPhone {
		// Best-effort: the verification already succeeded server-side. A
		// failed refresh only leaves the cached verified flag stale.
		if err := e.refreshProfile(ctx); err != nil {
			e.metricInc(MetricProfileRefreshFailure)
			e.warn("careauth: profile refresh after phone verification failed: " + err.Error())
		}
	}
	return nil
}

func (f *VerificationFlow) mapVerifyError(err error) error {
	status, msg := apiErrorStatus(err)
	switch status {
	case http.StatusTooManyRequests:
		f.mu.Lock()
		if f.attemptsRemaining > 0 {
			f.attemptsRemaining--
		}
		exhausted := f.attemptsRemaining == 0
		f.mu.Unlock()
		if exhausted {
			return flowErr(ErrVerificationAttemptsExceeded, msg)
		}
		return flowErr(ErrVerificationRateLimited, msg)
	case http.StatusGone:
		return flowErr(ErrCodeExpired, msg)
	default:
		return flowErr(ErrCodeInvalid, msg)
	}
}

// ResendAllowed reports whether the caller guard permits a send. This is
// the guard the contract requires callers to check before RequestCode.
func (f *VerificationFlow) ResendAllowed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && f.cooldownRemaining == 0
}

// CooldownRemaining describes the cooldownremaining operation and its observable behavior.
//
// CooldownRemaining may return an error when input validation, dependency calls, or security checks fail.
// CooldownRemaining does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *VerificationFlow) CooldownRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldownRemaining
}

// AttemptsRemaining describes the attemptsremaining operation and its observable behavior.
//
// AttemptsRemaining may return an error when input validation, dependency calls, or security checks fail.
// AttemptsRemaining does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *VerificationFlow) AttemptsRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attemptsRemaining
}

// SentAt describes the sentat operation and its observable behavior.
//
// SentAt may return an error when input validation, dependency calls, or security checks fail.
// SentAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *VerificationFlow) SentAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sentAt
}

// Channel describes the channel operation and its observable behavior.
//
// Channel may return an error when input validation, dependency calls, or security checks fail.
// Channel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *VerificationFlow) Channel() VerificationChannel {
	return f.channel
}

// Close cancels the countdown and retires the flow. No tick callback fires
// after Close returns. Close is idempotent and mandatory on flow exit.
func (f *VerificationFlow) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.closed = true
	handle := f.cooldownTimer
	f.cooldownTimer = nil
	f.mu.Unlock()
	handle.Stop()
}
