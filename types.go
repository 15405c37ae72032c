package careauth

import "time"

// User is the platform user record as returned by the login, invite, and
// current-user endpoints. Verification flags reflect the server's view at
// fetch time; a best-effort refresh after phone verification keeps them
// current but staleness is tolerated.
type User struct {
	UserID        string
	Name          string
	Email         string
	Phone         string
	EmailVerified bool
	PhoneVerified bool
	Organization  string
}

// Tokens is the paired access/refresh credential set. Both tokens are
// present together or both absent; a partial pair is never stored.
type Tokens struct {
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

// Valid reports whether the pair is structurally complete.
func (t Tokens) Valid() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// LoginOutcomeKind defines a public type used by careauth APIs.
//
// LoginOutcomeKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginOutcomeKind uint8

const (
	// OutcomeAuthenticated is an exported constant or variable used by the careauth client engine.
	OutcomeAuthenticated LoginOutcomeKind = iota + 1
	// OutcomeMFARequired is an exported constant or variable used by the careauth client engine.
	OutcomeMFARequired
	// OutcomeSSOLinkRequired is an exported constant or variable used by the careauth client engine.
	OutcomeSSOLinkRequired
	// OutcomeEmailVerificationRequired is an exported constant or variable used by the careauth client engine.
	OutcomeEmailVerificationRequired
	// OutcomePhoneVerificationRequired is an exported constant or variable used by the careauth client engine.
	OutcomePhoneVerificationRequired
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (k LoginOutcomeKind) String() string {
	switch k {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeMFARequired:
		return "mfa_required"
	case OutcomeSSOLinkRequired:
		return "sso_link_required"
	case OutcomeEmailVerificationRequired:
		return "email_verification_required"
	case OutcomePhoneVerificationRequired:
		return "phone_verification_required"
	default:
		return "unknown"
	}
}

// LoginOutcome is the tagged interpretation of the polymorphic login
// response. Exactly one variant holds: Kind selects it, and only the
// payload fields belonging to that Kind are populated. Decoding enforces
// the exactly-one invariant; optional-field probing is never exposed.
type LoginOutcome struct {
	Kind LoginOutcomeKind

	// Authenticated payload.
	Tokens *Tokens
	User   *User

	// MFARequired payload.
	MFAChallenge string

	// SSOLinkRequired payload.
	SSOProvider string
}

// Authenticated reports whether the outcome carries an established session.
func (o *LoginOutcome) Authenticated() bool {
	return o != nil && o.Kind == OutcomeAuthenticated
}

// VerificationChannel defines a public type used by careauth APIs.
//
// VerificationChannel instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationChannel uint8

const (
	// ChannelEmail is an exported constant or variable used by the careauth client engine.
	ChannelEmail VerificationChannel = iota + 1
	// ChannelPhone is an exported constant or variable used by the careauth client engine.
	ChannelPhone
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c VerificationChannel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// ResetStatus defines a public type used by careauth APIs.
//
// ResetStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResetStatus uint8

const (
	// ResetPending is an exported constant or variable used by the careauth client engine.
	ResetPending ResetStatus = iota
	// ResetValid is an exported constant or variable used by the careauth client engine.
	ResetValid
	// ResetConsumed is an exported constant or variable used by the careauth client engine.
	ResetConsumed
	// ResetExpired is an exported constant or variable used by the careauth client engine.
	ResetExpired
	// ResetMissing is an exported constant or variable used by the careauth client engine.
	ResetMissing
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s ResetStatus) String() string {
	switch s {
	case ResetPending:
		return "pending"
	case ResetValid:
		return "valid"
	case ResetConsumed:
		return "consumed"
	case ResetExpired:
		return "expired"
	case ResetMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transition is permitted.
func (s ResetStatus) terminal() bool {
	return s == ResetConsumed || s == ResetExpired || s == ResetMissing
}

// InviteStatus defines a public type used by careauth APIs.
//
// InviteStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type InviteStatus uint8

const (
	// InvitePending is an exported constant or variable used by the careauth client engine.
	InvitePending InviteStatus = iota
	// InviteSubmitted is an exported constant or variable used by the careauth client engine.
	InviteSubmitted
	// InviteCompleted is an exported constant or variable used by the careauth client engine.
	InviteCompleted
	// InviteRejected is an exported constant or variable used by the careauth client engine.
	InviteRejected
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s InviteStatus) String() string {
	switch s {
	case InvitePending:
		return "pending"
	case InviteSubmitted:
		return "submitted"
	case InviteCompleted:
		return "completed"
	case InviteRejected:
		return "invalid"
	default:
		return "unknown"
	}
}

// InvitePrefill carries the read-only registration fields minted into the
// invitation. Only the password is user-supplied during invite signup.
type InvitePrefill struct {
	Name  string
	Email string
	Phone string
}

// Invite is the invitation handed to StartInviteSignup.
type Invite struct {
	Token    string
	Prefill  InvitePrefill
	IssuedAt time.Time
}

// NavTarget defines a public type used by careauth APIs.
//
// NavTarget instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NavTarget string

const (
	// NavLogin is an exported constant or variable used by the careauth client engine.
	NavLogin NavTarget = "login"
	// NavMFA is an exported constant or variable used by the careauth client engine.
	NavMFA NavTarget = "mfa"
	// NavSSOLink is an exported constant or variable used by the careauth client engine.
	NavSSOLink NavTarget = "sso_link"
	// NavEmailVerification is an exported constant or variable used by the careauth client engine.
	NavEmailVerification NavTarget = "email_verification"
	// NavPhoneVerification is an exported constant or variable used by the careauth client engine.
	NavPhoneVerification NavTarget = "phone_verification"
	// NavRequestNewReset is an exported constant or variable used by the careauth client engine.
	NavRequestNewReset NavTarget = "request_new_reset"
	// NavHome is an exported constant or variable used by the careauth client engine.
	NavHome NavTarget = "home"
)
