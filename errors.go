package careauth

import "errors"

var (
	// ErrEmailInvalid is an exported constant or variable used by the careauth client engine.
	ErrEmailInvalid = errors.New("email syntactically invalid")
	// ErrEmailEmpty is an exported constant or variable used by the careauth client engine.
	ErrEmailEmpty = errors.New("email required")
	// ErrPhoneInvalid is an exported constant or variable used by the careauth client engine.
	ErrPhoneInvalid = errors.New("phone number invalid")
	// ErrPasswordEmpty is an exported constant or variable used by the careauth client engine.
	ErrPasswordEmpty = errors.New("password required")
	// ErrPasswordTooShort is an exported constant or variable used by the careauth client engine.
	ErrPasswordTooShort = errors.New("password below minimum length")
	// ErrPasswordMismatch is an exported constant or variable used by the careauth client engine.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrNameEmpty is an exported constant or variable used by the careauth client engine.
	ErrNameEmpty = errors.New("name required")
	// ErrCodeFormat is an exported constant or variable used by the careauth client engine.
	ErrCodeFormat = errors.New("verification code format invalid")
	// ErrNetworkUnavailable is an exported constant or variable used by the careauth client engine.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrInvalidCredentials is an exported constant or variable used by the careauth client engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenAlreadyInvalid is an exported constant or variable used by the careauth client engine.
	ErrTokenAlreadyInvalid = errors.New("token already invalid")
	// ErrInviteInvalid is an exported constant or variable used by the careauth client engine.
	ErrInviteInvalid = errors.New("invite invalid or expired")
	// ErrCodeInvalid is an exported constant or variable used by the careauth client engine.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrCodeExpired is an exported constant or variable used by the careauth client engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrVerificationRateLimited is an exported constant or variable used by the careauth client engine.
	ErrVerificationRateLimited = errors.New("verification rate limited")
	// ErrVerificationAttemptsExceeded is an exported constant or variable used by the careauth client engine.
	ErrVerificationAttemptsExceeded = errors.New("verification attempts exceeded")
	// ErrCooldownActive is an exported constant or variable used by the careauth client engine.
	ErrCooldownActive = errors.New("resend cooldown active")
	// ErrLoginInFlight is an exported constant or variable used by the careauth client engine.
	ErrLoginInFlight = errors.New("login already in flight")
	// ErrSubmitInFlight is an exported constant or variable used by the careauth client engine.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrResetTokenMissing is an exported constant or variable used by the careauth client engine.
	ErrResetTokenMissing = errors.New("password reset token missing")
	// ErrResetTokenInvalid is an exported constant or variable used by the careauth client engine.
	ErrResetTokenInvalid = errors.New("password reset token invalid or expired")
	// ErrResetConsumed is an exported constant or variable used by the careauth client engine.
	ErrResetConsumed = errors.New("password reset already consumed")
	// ErrMFAChallengeInvalid is an exported constant or variable used by the careauth client engine.
	ErrMFAChallengeInvalid = errors.New("mfa challenge invalid")
	// ErrMFAChallengeExpired is an exported constant or variable used by the careauth client engine.
	ErrMFAChallengeExpired = errors.New("mfa challenge expired")
	// ErrRefreshInvalid is an exported constant or variable used by the careauth client engine.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrNotAuthenticated is an exported constant or variable used by the careauth client engine.
	ErrNotAuthenticated = errors.New("no session established")
	// ErrRegistrationInvalid is an exported constant or variable used by the careauth client engine.
	ErrRegistrationInvalid = errors.New("registration rejected")
	// ErrFlowClosed is an exported constant or variable used by the careauth client engine.
	ErrFlowClosed = errors.New("flow closed")
	// ErrEngineNotReady is an exported constant or variable used by the careauth client engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// FlowError pairs a taxonomy sentinel with the user-facing message extracted
// from the remote error envelope, when one was present.
//
// FlowError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FlowError struct {
	Kind    error
	Message string
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *FlowError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap describes the unwrap operation and its observable behavior.
//
// Unwrap may return an error when input validation, dependency calls, or security checks fail.
// Unwrap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *FlowError) Unwrap() error {
	return e.Kind
}

func flowErr(kind error, message string) error {
	if message == "" {
		return kind
	}
	return &FlowError{Kind: kind, Message: message}
}
