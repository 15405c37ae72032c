package careauth

import (
	"context"
	"net/http"
)

// Register creates a new caregiver account. Registration does not
// authenticate: the platform requires email verification before first
// login, so the caller is routed to the verification screen on success.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, name, email, phone, password string) (*User, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}
	if !e.registerInFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer e.registerInFlight.Store(false)

	if name == "" {
		return nil, ErrNameEmpty
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
	}
	if err := validatePassword(password, e.config.Password.MinLength); err != nil {
		return nil, err
	}

	payload, err := e.api.Register(ctx, RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Phone:    phone,
	})
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return nil, err
		}
		status, msg := apiErrorStatus(err)
		switch status {
		case http.StatusTooManyRequests:
			return nil, flowErr(ErrVerificationRateLimited, msg)
		default:
			return nil, flowErr(ErrRegistrationInvalid, msg)
		}
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitNavigate(ctx, NavEmailVerification, nil)
	return payload.toUser(), nil
}
