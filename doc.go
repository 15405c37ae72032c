// Package careauth is the client-side authentication and account-verification
// session engine for the CareBridge caregiver platform API. It owns the
// branching flow that takes a user from unauthenticated to fully
// authenticated (password login, MFA confirmation, SSO account linking,
// mandatory email/phone verification) plus the bounded password-reset and
// invite-signup flows, session refresh, and logout teardown.
//
// The package is designed for embedding in headless clients: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build], but each flow enforces one in-flight action at a time and
// rejects (never queues) duplicate submissions.
//
// # Architecture boundaries
//
// careauth is the public surface. It exposes [Engine], [Builder], [Config],
// flow handles ([VerificationFlow], [PasswordResetFlow], [InviteFlow]), and
// value types (LoginOutcome, MetricsSnapshot, FlowEvent). Session encoding
// and persistence details live under session/ and internal/ and are never
// re-exported.
//
// # What this package must NOT do
//
//   - Render anything, hold UI state, or localize messages. It emits
//     navigation directives and structured errors; presentation is the
//     caller's collaborator.
//   - Verify credentials, hash passwords, or mint tokens. Those are remote
//     endpoint concerns; the engine only interprets their responses.
//   - Let session-derived state outlive Logout. Local teardown is
//     unconditional even when remote invalidation fails.
//
// # Timer contract
//
// Every countdown or redirect delay is a single tracked handle owned by the
// flow that started it. Flow Close releases the handle and guarantees no
// callback fires afterward; leaking a handle past Close is the defect class
// this package exists to eliminate.
package careauth
