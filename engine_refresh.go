package careauth

import (
	"context"
	"net/http"
)

// RefreshSession exchanges the stored refresh token for a new token pair
// and rotates the session in place. A definitive remote rejection of the
// refresh token tears the local session down: there is nothing left worth
// keeping once the server has disowned the pair.
//
// RefreshSession may return an error when input validation, dependency calls, or security checks fail.
// RefreshSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RefreshSession(ctx context.Context) error {
	if e == nil || e.api == nil {
		return ErrEngineNotReady
	}
	if !e.refreshInFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer e.refreshInFlight.Store(false)

	tokens, _, ok := e.sessions.Current()
	if !ok {
		return ErrNotAuthenticated
	}

	resp, err := e.api.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if isNetworkErr(err) {
			// Transient: the session stays as it was and the caller retries.
			e.metricInc(MetricNetworkFailure)
			return err
		}
		status, msg := apiErrorStatus(err)
		switch status {
		case http.StatusUnauthorized, http.StatusNotFound:
			e.sessions.Teardown(ctx)
			e.emitEvent(ctx, FlowEvent{
				EventType: EventSessionTornDown,
				Success:   true,
			})
			e.emitNavigate(ctx, NavLogin, nil)
			return flowErr(ErrRefreshInvalid, msg)
		case http.StatusTooManyRequests:
			return flowErr(ErrVerificationRateLimited, msg)
		default:
			return flowErr(ErrRefreshInvalid, msg)
		}
	}

	rotated := tokensFromResponse(resp)
	if !rotated.Valid() {
		e.metricInc(MetricRefreshFailure)
		return flowErr(ErrRefreshInvalid, "refresh response missing token pair")
	}

	if err := e.sessions.rotate(ctx, rotated); err != nil {
		e.metricInc(MetricRefreshFailure)
		return err
	}
	if resp.User != nil {
		e.sessions.setUser(resp.User.toUser())
	}
	e.metricInc(MetricRefreshSuccess)
	return nil
}
