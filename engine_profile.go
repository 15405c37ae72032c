package careauth

import "context"

// CurrentUser fetches the authoritative user record for the established
// session and updates the locally held copy, including verification flags.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CurrentUser(ctx context.Context) (*User, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}

	tokens, user, ok := e.sessions.Current()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	var userID string
	if user != nil {
		userID = user.UserID
	}

	payload, err := e.api.CurrentUser(ctx, userID, tokens.AccessToken)
	if err != nil {
		if isNetworkErr(err) {
			e.metricInc(MetricNetworkFailure)
			return nil, err
		}
		_, msg := apiErrorStatus(err)
		return nil, flowErr(ErrNotAuthenticated, msg)
	}

	fresh := payload.toUser()
	e.sessions.setUser(fresh)
	return fresh, nil
}

// refreshProfile re-reads the session user after a verification succeeds so
// locally cached flags catch up with the server. Callers treat failures as
// non-fatal.
func (e *Engine) refreshProfile(ctx context.Context) error {
	_, err := e.CurrentUser(ctx)
	return err
}
