package careauth

import (
	"context"
	"net/http"
	"sync"
)

// PasswordResetFlow drives the reset-token state machine. Transitions are
// one-directional: missing and expired are terminal failure states entered
// only from pending, consumed is the terminal success state entered only
// from valid. A flow that enters a terminal failure state schedules a
// single delayed navigation directive; Close cancels it if the flow is
// torn down first.
type PasswordResetFlow struct {
	engine *Engine
	token  string

	mu             sync.Mutex
	status         ResetStatus
	submitInFlight bool
	closed         bool
	redirectTimer  *timerHandle
}

// StartPasswordReset describes the startpasswordreset operation and its observable behavior.
//
// StartPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// StartPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartPasswordReset(token string) (*PasswordResetFlow, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}

	f := &PasswordResetFlow{
		engine: e,
		token:  token,
		status: ResetPending,
	}

	if token == "" {
		f.status = ResetMissing
		e.metricInc(MetricResetTokenMissing)
		f.scheduleRedirect(NavRequestNewReset)
		return f, nil
	}

	// Reset tokens minted as JWTs carry their expiry; a token already past
	// it is terminal at entry. Opaque tokens stay pending until the server
	// rules on them.
	if claims, err := parseTokenClaims(token); err == nil && !claims.Expiry.IsZero() {
		if !e.clock.Now().Before(claims.Expiry) {
			f.status = ResetExpired
			f.scheduleRedirect(NavRequestNewReset)
			return f, nil
		}
	}

	f.status = ResetValid
	return f, nil
}

// scheduleRedirect arms the single redirect timer. Exactly one directive is
// emitted per flow; re-arming stops the previous handle first.
func (f *PasswordResetFlow) scheduleRedirect(nav NavTarget) {
	e := f.engine

	f.mu.Lock()
	previous := f.redirectTimer
	f.redirectTimer = nil
	f.mu.Unlock()
	previous.Stop()

	handle := startDelay(e.clock, e.config.PasswordReset.RedirectDelay, func() {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()
		e.emitNavigate(context.Background(), nav, nil)
	})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		handle.Stop()
		return
	}
	f.redirectTimer = handle
	f.mu.Unlock()
}

// Submit describes the submit operation and its observable behavior.
//
// Submit may return an error when input validation, dependency calls, or security checks fail.
// Submit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *PasswordResetFlow) Submit(ctx context.Context, newPassword, confirmPassword string) error {
	e := f.engine

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	switch f.status {
	case ResetMissing:
		f.mu.Unlock()
		return ErrResetTokenMissing
	case ResetExpired:
		f.mu.Unlock()
		return ErrResetTokenInvalid
	case ResetConsumed:
		f.mu.Unlock()
		return ErrResetConsumed
	}
	if f.submitInFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitInFlight = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitInFlight = false
		f.mu.Unlock()
	}()

	// Field-scoped local checks run before any network call.
	if err := validatePasswordPair(newPassword, confirmPassword, e.config.Password.MinLength); err != nil {
		return err
	}

	err := e.api.ResetPassword(ctx, ResetPasswordRequest{
		ResetToken:  f.token,
		NewPassword: newPassword,
	})
	if err != nil {
		e.metricInc(MetricResetSubmitFailure)
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return err
		}
		// Status stays valid: the form remains resubmittable and the
		// general error carries the structured message when present.
		status, msg := apiErrorStatus(err)
		if status == http.StatusTooManyRequests {
			return flowErr(ErrVerificationRateLimited, msg)
		}
		return flowErr(ErrResetTokenInvalid, msg)
	}

	f.mu.Lock()
	f.status = ResetConsumed
	f.mu.Unlock()

	e.metricInc(MetricResetSubmitSuccess)
	e.emitEvent(ctx, FlowEvent{
		EventType: EventResetConsumed,
		Success:   true,
	})
	f.scheduleRedirect(NavLogin)
	return nil
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when input validation, dependency calls, or security checks fail.
// Status does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *PasswordResetFlow) Status() ResetStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Close cancels the redirect timer and retires the flow. No navigation
// directive is emitted after Close returns. Idempotent.
func (f *PasswordResetFlow) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.closed = true
	handle := f.redirectTimer
	f.redirectTimer = nil
	f.mu.Unlock()
	handle.Stop()
}

// RequestPasswordReset asks the platform to mint a reset token for email.
// The API may acknowledge unknown addresses; no existence signal is
// surfaced either way.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.api == nil {
		return ErrEngineNotReady
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := e.api.ForgotPassword(ctx, email); err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return err
		}
		status, msg := apiErrorStatus(err)
		if status == http.StatusTooManyRequests {
			return flowErr(ErrVerificationRateLimited, msg)
		}
		// Unknown-email responses still acknowledge; anything else is a
		// generic failure with the structured message when present.
		return flowErr(ErrNetworkUnavailable, msg)
	}
	return nil
}
