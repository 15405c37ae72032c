package careauth

import (
	"context"
	"fmt"
	"net/http"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginOutcome, error) {
	if e == nil || e.api == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if !e.loginInFlight.CompareAndSwap(false, true) {
		e.metricInc(MetricLoginRejectedInFlight)
		return nil, ErrLoginInFlight
	}
	defer e.loginInFlight.Store(false)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordEmpty
	}

	resp, err := e.api.Login(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return nil, err
		}
		e.metricInc(MetricLoginFailure)
		return nil, e.mapLoginError(err)
	}

	outcome, err := decodeLoginOutcome(resp)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.warn("careauth: login response rejected: " + err.Error())
		return nil, err
	}

	return e.applyLoginOutcome(ctx, outcome)
}

// ConfirmMFA describes the confirmmfa operation and its observable behavior.
//
// ConfirmMFA may return an error when input validation, dependency calls, or security checks fail.
// ConfirmMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmMFA(ctx context.Context, challenge, code string) (*LoginOutcome, error) {
	if e == nil || e.api == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if !e.mfaInFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer e.mfaInFlight.Store(false)

	if challenge == "" {
		return nil, ErrMFAChallengeInvalid
	}
	if err := validateCode(code, e.config.Verification.CodeLength); err != nil {
		e.metricInc(MetricCodeRejectedLocal)
		return nil, err
	}

	resp, err := e.api.ConfirmMFA(ctx, MFAConfirmRequest{Challenge: challenge, Code: code})
	if err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return nil, err
		}
		e.metricInc(MetricMFAFailure)
		return nil, e.mapMFAError(err)
	}

	outcome, err := decodeLoginOutcome(resp)
	if err != nil {
		e.metricInc(MetricMFAFailure)
		return nil, err
	}
	if !outcome.Authenticated() {
		e.metricInc(MetricMFAFailure)
		return nil, fmt.Errorf("%w: non-authenticated outcome after mfa confirm", ErrMFAChallengeInvalid)
	}

	out, err := e.applyLoginOutcome(ctx, outcome)
	if err == nil {
		e.metricInc(MetricMFASuccess)
	}
	return out, err
}

// AbandonLogin best-effort invalidates any session tokens that were received
// from the API but never established locally, e.g. when a login flow is
// discarded between response and establishment. Errors are logged only.
func (e *Engine) AbandonLogin(ctx context.Context) {
	if e == nil || e.api == nil {
		return
	}
	partial := e.partialTokens.Swap(nil)
	if partial == nil || partial.RefreshToken == "" {
		return
	}
	if err := e.api.Logout(ctx, partial.RefreshToken); err != nil {
		status, _ := apiErrorStatus(err)
		if status != http.StatusNotFound {
			e.warn("careauth: abandon login invalidation failed: " + err.Error())
		}
	}
}

// applyLoginOutcome routes a decoded outcome: an authenticated variant
// establishes the session, every other variant emits the navigation
// directive for its gate and leaves the session store untouched.
func (e *Engine) applyLoginOutcome(ctx context.Context, outcome *LoginOutcome) (*LoginOutcome, error) {
	switch outcome.Kind {
	case OutcomeAuthenticated:
		tokens := *outcome.Tokens
		e.partialTokens.Store(&tokens)
		if err := e.sessions.Establish(ctx, tokens, outcome.User); err != nil {
			e.metricInc(MetricLoginFailure)
			return nil, err
		}
		e.partialTokens.Store(nil)
		e.metricInc(MetricLoginSuccess)
		e.metricInc(MetricSessionEstablished)
		e.emitEvent(ctx, FlowEvent{
			EventType: EventSessionEstablished,
			UserID:    outcome.User.UserID,
			Success:   true,
		})
		e.emitNavigate(ctx, NavHome, nil)
		return outcome, nil

	case OutcomeMFARequired:
		e.metricInc(MetricLoginGateMFA)
		e.emitNavigate(ctx, NavMFA, map[string]string{
			"challenge": outcome.MFAChallenge,
		})
		return outcome, nil

	case OutcomeSSOLinkRequired:
		e.metricInc(MetricLoginGateSSO)
		e.emitNavigate(ctx, NavSSOLink, map[string]string{
			"provider": outcome.SSOProvider,
		})
		return outcome, nil

	case OutcomeEmailVerificationRequired:
		e.metricInc(MetricLoginGateEmail)
		e.emitNavigate(ctx, NavEmailVerification, nil)
		return outcome, nil

	case OutcomePhoneVerificationRequired:
		e.metricInc(MetricLoginGatePhone)
		e.emitNavigate(ctx, NavPhoneVerification, nil)
		return outcome, nil

	default:
		return nil, errLoginVariantAmbiguous
	}
}

// decodeLoginOutcome enforces the exactly-one-variant invariant of the
// polymorphic login response. Optional-field probing stops here.
func decodeLoginOutcome(resp *LoginResponse) (*LoginOutcome, error) {
	if resp == nil {
		return nil, errLoginVariantAmbiguous
	}

	var outcome LoginOutcome
	variants := 0

	if resp.AccessToken != "" || resp.RefreshToken != "" {
		tokens := tokensFromResponse(resp)
		if !tokens.Valid() || resp.User == nil {
			return nil, fmt.Errorf("%w: partial authenticated payload", errLoginVariantAmbiguous)
		}
		outcome.Kind = OutcomeAuthenticated
		outcome.Tokens = &tokens
		outcome.User = resp.User.toUser()
		variants++
	}
	if resp.MFARequired {
		if resp.MFAChallenge == "" {
			return nil, fmt.Errorf("%w: mfa variant without challenge", errLoginVariantAmbiguous)
		}
		outcome.Kind = OutcomeMFARequired
		outcome.MFAChallenge = resp.MFAChallenge
		variants++
	}
	if resp.SSOLinkRequired {
		outcome.Kind = OutcomeSSOLinkRequired
		outcome.SSOProvider = resp.SSOProvider
		variants++
	}
	if resp.EmailVerificationRequired {
		outcome.Kind = OutcomeEmailVerificationRequired
		variants++
	}
	if resp.PhoneVerificationRequired {
		outcome.Kind = OutcomePhoneVerificationRequired
		variants++
	}

	if variants != 1 {
		return nil, errLoginVariantAmbiguous
	}
	return &outcome, nil
}

func (e *Engine) mapLoginError(err error) error {
	status, msg := apiErrorStatus(err)
	switch status {
	case http.StatusTooManyRequests:
		return flowErr(ErrVerificationRateLimited, msg)
	default:
		return flowErr(ErrInvalidCredentials, msg)
	}
}

func (e *Engine) mapMFAError(err error) error {
	status, msg := apiErrorStatus(err)
	switch status {
	case http.StatusGone:
		return flowErr(ErrMFAChallengeExpired, msg)
	case http.StatusTooManyRequests:
		return flowErr(ErrVerificationRateLimited, msg)
	case http.StatusNotFound:
		return flowErr(ErrMFAChallengeInvalid, msg)
	default:
		return flowErr(ErrCodeInvalid, msg)
	}
}
