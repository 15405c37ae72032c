package careauth

import (
	"context"
	"errors"
	"fmt"
)

// APIClient is the remote endpoint surface the engine drives. Implementations
// must translate transport failures into errors wrapping
// [ErrNetworkUnavailable] and non-2xx responses into [*APIError]; the engine
// maps those into the flow taxonomy at each controller boundary.
type APIClient interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ConfirmMFA(ctx context.Context, req MFAConfirmRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Register(ctx context.Context, req RegisterRequest) (*UserPayload, error)
	RegisterWithInvite(ctx context.Context, req InviteRegisterRequest) (*LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	SendCode(ctx context.Context, channel VerificationChannel, target string) error
	VerifyCode(ctx context.Context, channel VerificationChannel, target, code string) error
	CurrentUser(ctx context.Context, userID, accessToken string) (*UserPayload, error)
}

// LoginRequest defines a public type used by careauth APIs.
//
// LoginRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MFAConfirmRequest defines a public type used by careauth APIs.
//
// MFAConfirmRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAConfirmRequest struct {
	Challenge string `json:"challenge"`
	Code      string `json:"code"`
}

// RegisterRequest defines a public type used by careauth APIs.
//
// RegisterRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// InviteRegisterRequest defines a public type used by careauth APIs.
//
// InviteRegisterRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type InviteRegisterRequest struct {
	InviteToken string `json:"invite_token"`
	Password    string `json:"password"`
}

// ResetPasswordRequest defines a public type used by careauth APIs.
//
// ResetPasswordRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// UserPayload is the wire form of a user record.
type UserPayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	EmailVerified bool   `json:"email_verified"`
	PhoneVerified bool   `json:"phone_verified"`
	Organization  string `json:"organization"`
}

func (p *UserPayload) toUser() *User {
	if p == nil {
		return nil
	}
	return &User{
		UserID:        p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		EmailVerified: p.EmailVerified,
		PhoneVerified: p.PhoneVerified,
		Organization:  p.Organization,
	}
}

// LoginResponse is the polymorphic login wire payload. At most one variant
// group may be populated; decodeLoginOutcome rejects anything else.
type LoginResponse struct {
	AccessToken      string       `json:"access_token,omitempty"`
	RefreshToken     string       `json:"refresh_token,omitempty"`
	AccessExpiresAt  int64        `json:"access_expires_at,omitempty"`
	RefreshExpiresAt int64        `json:"refresh_expires_at,omitempty"`
	User             *UserPayload `json:"user,omitempty"`

	MFARequired  bool   `json:"mfa_required,omitempty"`
	MFAChallenge string `json:"mfa_challenge,omitempty"`

	SSOLinkRequired bool   `json:"sso_link_required,omitempty"`
	SSOProvider     string `json:"sso_provider,omitempty"`

	EmailVerificationRequired bool `json:"email_verification_required,omitempty"`
	PhoneVerificationRequired bool `json:"phone_verification_required,omitempty"`
}

var errLoginVariantAmbiguous = errors.New("login response does not select exactly one variant")

// APIError is the decoded uniform remote error envelope
// `{status, data:{message}}`. The message is treated opaquely and only
// surfaced to callers through the flow taxonomy.
type APIError struct {
	Status  int
	Message string
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// apiErrorStatus returns the envelope status, or 0 when err is not an APIError.
func apiErrorStatus(err error) (int, string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Message
	}
	return 0, ""
}

// isNetworkErr reports whether err is a transport-level failure.
func isNetworkErr(err error) bool {
	return errors.Is(err, ErrNetworkUnavailable)
}
