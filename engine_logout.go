package careauth

import (
	"context"
	"net/http"
)

// Logout ends the session. The remote token invalidation is best effort:
// a missing token on the server counts as already done, and any other
// remote failure is logged without blocking the local teardown. The local
// cascade always runs, so IsAuthenticated reports false once Logout
// returns regardless of what the server said.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.api == nil {
		return ErrEngineNotReady
	}
	if !e.logoutInFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer e.logoutInFlight.Store(false)

	tokens, user, ok := e.sessions.Current()
	if ok && tokens.RefreshToken != "" {
		if err := e.api.Logout(ctx, tokens.RefreshToken); err != nil {
			status, _ := apiErrorStatus(err)
			if status == http.StatusNotFound {
				// The server already considers the token gone. Same end state.
				e.warn("careauth: logout token already invalid: " + ErrTokenAlreadyInvalid.Error())
			} else {
				e.metricInc(MetricLogoutRemoteFailure)
				if isNetworkErr(err) {
					e.metricInc(MetricNetworkFailure)
				}
				e.warn("careauth: remote logout failed: " + err.Error())
			}
		}
	}

	e.sessions.Teardown(ctx)
	e.metricInc(MetricLogout)

	var userID string
	if user != nil {
		userID = user.UserID
	}
	e.emitEvent(ctx, FlowEvent{
		EventType: EventSessionTornDown,
		UserID:    userID,
		Success:   true,
	})
	e.emitNavigate(ctx, NavLogin, nil)
	return nil
}
