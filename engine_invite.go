package careauth

import (
	"context"
	"net/http"
	"sync"
)

// InviteFlow drives invitation-based signup. Name, email, and phone arrive
// prefilled inside the invitation and are read-only; only the password is
// user-supplied. Completion authenticates directly: the registration
// response carries a full token pair and the session is established without
// a separate login round trip.
type InviteFlow struct {
	engine *Engine
	invite Invite

	mu             sync.Mutex
	status         InviteStatus
	submitInFlight bool
}

// StartInviteSignup describes the startinvitesignup operation and its observable behavior.
//
// StartInviteSignup may return an error when input validation, dependency calls, or security checks fail.
// StartInviteSignup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartInviteSignup(ctx context.Context, invite Invite) (*InviteFlow, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}

	f := &InviteFlow{
		engine: e,
		invite: invite,
		status: InvitePending,
	}

	if invite.Token == "" {
		f.status = InviteRejected
		e.metricInc(MetricInviteRejected)
		e.emitNavigate(ctx, NavLogin, nil)
		return f, nil
	}
	return f, nil
}

// Prefill returns the read-only registration fields from the invitation.
func (f *InviteFlow) Prefill() InvitePrefill {
	return f.invite.Prefill
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when input validation, dependency calls, or security checks fail.
// Status does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *InviteFlow) Status() InviteStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Submit describes the submit operation and its observable behavior.
//
// Submit may return an error when input validation, dependency calls, or security checks fail.
// Submit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *InviteFlow) Submit(ctx context.Context, password, confirmPassword string) error {
	f.mu.Lock()
	switch f.status {
	case InviteRejected:
		f.mu.Unlock()
		return ErrInviteInvalid
	case InviteCompleted:
		f.mu.Unlock()
		return ErrFlowClosed
	}
	if f.submitInFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitInFlight = true
	f.status = InviteSubmitted
	f.mu.Unlock()

	err := f.submit(ctx, password, confirmPassword)

	f.mu.Lock()
	f.submitInFlight = false
	if err == nil {
		f.status = InviteCompleted
	} else if f.status == InviteSubmitted {
		// Transient and validation failures leave the form resubmittable;
		// submit marks the invitation rejected itself when the server
		// rules it out.
		f.status = InvitePending
	}
	f.mu.Unlock()
	return err
}

func (f *InviteFlow) submit(ctx context.Context, password, confirmPassword string) error {
	e := f.engine

	if err := validatePasswordPair(password, confirmPassword, e.config.Password.MinLength); err != nil {
		return err
	}

	resp, err := e.api.RegisterWithInvite(ctx, InviteRegisterRequest{
		InviteToken: f.invite.Token,
		Password:    password,
	})
	if err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return err
		}
		status, msg := apiErrorStatus(err)
		if status == http.StatusTooManyRequests {
			return flowErr(ErrVerificationRateLimited, msg)
		}
		// Any other remote rejection means the invitation itself is no
		// longer usable.
		f.mu.Lock()
		f.status = InviteRejected
		f.mu.Unlock()
		e.metricInc(MetricInviteRejected)
		return flowErr(ErrInviteInvalid, msg)
	}

	outcome, err := decodeLoginOutcome(resp)
	if err != nil {
		return err
	}
	if !outcome.Authenticated() {
		return errLoginVariantAmbiguous
	}

	if err := e.sessions.Establish(ctx, *outcome.Tokens, outcome.User); err != nil {
		return err
	}

	e.metricInc(MetricInviteCompleted)
	e.metricInc(MetricSessionEstablished)
	e.emitEvent(ctx, FlowEvent{
		EventType: EventInviteCompleted,
		UserID:    outcome.User.UserID,
		Success:   true,
	})
	e.emitEvent(ctx, FlowEvent{
		EventType: EventSessionEstablished,
		UserID:    outcome.User.UserID,
		Success:   true,
	})
	e.emitNavigate(ctx, NavHome, nil)
	return nil
}
