package careauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startEmailFlow(t *testing.T, fx *testFixture) *VerificationFlow {
	t.Helper()

	flow, err := fx.engine.StartVerification(ChannelEmail, "care@example.com")
	if err != nil {
		t.Fatalf("StartVerification failed: %v", err)
	}
	t.Cleanup(flow.Close)
	return flow
}

func TestVerificationRequestCodeStartsCooldown(t *testing.T) {
	fx := newTestEngine(t, nil)
	flow := startEmailFlow(t, fx)

	if !flow.ResendAllowed() {
		t.Fatal("fresh flow must allow the initial send")
	}
	if err := flow.RequestCode(context.Background()); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if flow.CooldownRemaining() != 60 {
		t.Fatalf("expected cooldown 60, got %d", flow.CooldownRemaining())
	}
	if flow.ResendAllowed() {
		t.Fatal("cooldown must block resends")
	}
	if flow.SentAt().IsZero() {
		t.Fatal("expected SentAt recorded")
	}
}

func TestVerificationCooldownCountsDownToZero(t *testing.T) {
	fx := newTestEngine(t, func(cfg *Config) {
		cfg.Verification.CooldownWindow = 3 * time.Second
	})
	flow := startEmailFlow(t, fx)

	if err := flow.RequestCode(context.Background()); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if flow.CooldownRemaining() != 3 {
		t.Fatalf("expected cooldown 3, got %d", flow.CooldownRemaining())
	}

	for want := 2; want >= 0; want-- {
		fx.clock.waitForWaiters(t, 1)
		fx.clock.Advance(time.Second)
		target := want
		eventually(t, func() bool {
			return flow.CooldownRemaining() == target
		}, "cooldown did not reach expected value")
	}

	if !flow.ResendAllowed() {
		t.Fatal("expired cooldown must allow resend")
	}
}

func TestVerificationResendRestartsCooldown(t *testing.T) {
	fx := newTestEngine(t, func(cfg *Config) {
		cfg.Verification.CooldownWindow = 2 * time.Second
	})
	flow := startEmailFlow(t, fx)

	if err := flow.RequestCode(context.Background()); err != nil {
		t.Fatalf("first RequestCode failed: %v", err)
	}
	fx.clock.waitForWaiters(t, 1)
	fx.clock.Advance(time.Second)
	eventually(t, func() bool { return flow.CooldownRemaining() == 1 }, "cooldown did not tick")

	// Callers own the resend guard; the flow accepts a second send and
	// restarts the countdown at the full window.
	if err := flow.RequestCode(context.Background()); err != nil {
		t.Fatalf("second RequestCode failed: %v", err)
	}
	if flow.CooldownRemaining() != 2 {
		t.Fatalf("expected cooldown restarted at 2, got %d", flow.CooldownRemaining())
	}
}

func TestVerificationSendRateLimited(t *testing.T) {
	fx := newTestEngine(t, nil)
	flow := startEmailFlow(t, fx)
	fx.api.sendCodeFn = func(context.Context, VerificationChannel, string) error {
		return &APIError{Status: 429, Message: "slow down"}
	}

	err := flow.RequestCode(context.Background())
	if !errors.Is(err, ErrVerificationRateLimited) {
		t.Fatalf("expected ErrVerificationRateLimited, got %v", err)
	}
	if flow.CooldownRemaining() != 0 {
		t.Fatal("failed send must not start the cooldown")
	}
}

func TestVerificationSubmitMalformedCodeSkipsNetwork(t *testing.T) {
	fx := newTestEngine(t, nil)
	flow := startEmailFlow(t, fx)

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		if err := flow.SubmitCode(context.Background(), code); !errors.Is(err, ErrCodeFormat) {
			t.Fatalf("code %q: expected ErrCodeFormat, got %v", code, err)
		}
	}
	if fx.api.callCount("VerifyCode") != 0 {
		t.Fatal("malformed codes must not reach the network")
	}
	if got := fx.engine.MetricsSnapshot().Counters[MetricCodeRejectedLocal]; got != 4 {
		t.Fatalf("expected 4 local rejections, got %d", got)
	}
}

func TestVerificationSubmitSuccessEmitsVerified(t *testing.T) {
	fx := newTestEngine(t, nil)
	flow := startEmailFlow(t, fx)

	if err := flow.SubmitCode(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitCode failed: %v", err)
	}

	event := fx.nextEvent(t)
	if event.EventType != EventVerified || event.Channel != ChannelEmail || !event.Success {
		t.Fatalf("unexpected event %+v", event)
	}
	if fx.api.callCount("CurrentUser") != 0 {
		t.Fatal("email verification must not trigger a profile refresh")
	}
}

func TestVerificationPhoneSuccessRefreshesProfile(t *testing.T) {
	fx := loginFixture(t)

	flow, err := fx.engine.StartVerification(ChannelPhone, "+15551234567")
	if err != nil {
		t.Fatalf("StartVerification failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if err := flow.SubmitCode(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitCode failed: %v", err)
	}
	if fx.api.callCount("CurrentUser") != 1 {
		t.Fatal("phone verification must refresh the profile")
	}

	user, ok := fx.engine.SessionUser()
	if !ok || !user.PhoneVerified {
		t.Fatalf("expected refreshed verified flag, got %+v ok=%v", user, ok)
	}
}

func TestVerificationPhoneProfileRefreshFailureNonFatal(t *testing.T) {
	fx := loginFixture(t)
	fx.api.currentUserFn = func(context.Context, string, string) (*UserPayload, error) {
		return nil, flowErr(ErrNetworkUnavailable, "offline")
	}

	flow, err := fx.engine.StartVerification(ChannelPhone, "+15551234567")
	if err != nil {
		t.Fatalf("StartVerification failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if err := flow.SubmitCode(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitCode must succeed despite refresh failure, got %v", err)
	}
	if got := fx.engine.MetricsSnapshot().Counters[MetricProfileRefreshFailure]; got != 1 {
		t.Fatalf("expected 1 profile refresh failure, got %d", got)
	}
}

func TestVerificationSubmitErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"invalid", 400, ErrCodeInvalid},
		{"expired", 410, ErrCodeExpired},
		{"throttled", 429, ErrVerificationRateLimited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newTestEngine(t, nil)
			flow := startEmailFlow(t, fx)
			fx.api.verifyCodeFn = func(context.Context, VerificationChannel, string, string) error {
				return &APIError{Status: tc.status}
			}

			if err := flow.SubmitCode(context.Background(), "123456"); !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

func TestVerificationAttemptsExhausted(t *testing.T) {
	fx := newTestEngine(t, func(cfg *Config) {
		cfg.Verification.MaxAttempts = 2
	})
	flow := startEmailFlow(t, fx)
	fx.api.verifyCodeFn = func(context.Context, VerificationChannel, string, string) error {
		return &APIError{Status: 429, Message: "too many attempts"}
	}

	if err := flow.SubmitCode(context.Background(), "111111"); !errors.Is(err, ErrVerificationRateLimited) {
		t.Fatalf("first throttle: expected rate limited, got %v", err)
	}
	if flow.AttemptsRemaining() != 1 {
		t.Fatalf("expected 1 attempt left, got %d", flow.AttemptsRemaining())
	}
	if err := flow.SubmitCode(context.Background(), "111111"); !errors.Is(err, ErrVerificationAttemptsExceeded) {
		t.Fatalf("second throttle: expected attempts exceeded, got %v", err)
	}
}

func TestVerificationCloseStopsTicks(t *testing.T) {
	fx := newTestEngine(t, nil)
	flow := startEmailFlow(t, fx)

	if err := flow.RequestCode(context.Background()); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	before := flow.CooldownRemaining()

	flow.Close()
	fx.clock.Advance(5 * time.Second)

	// No tick lands after Close returns.
	time.Sleep(10 * time.Millisecond)
	if got := flow.CooldownRemaining(); got != before {
		t.Fatalf("cooldown changed after Close: %d -> %d", before, got)
	}

	if err := flow.RequestCode(context.Background()); !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed, got %v", err)
	}
	if err := flow.SubmitCode(context.Background(), "123456"); !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed, got %v", err)
	}

	// Idempotent.
	flow.Close()
}

func TestStartVerificationValidatesTarget(t *testing.T) {
	fx := newTestEngine(t, nil)

	if _, err := fx.engine.StartVerification(ChannelEmail, "nope"); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("expected ErrEmailInvalid, got %v", err)
	}
	if _, err := fx.engine.StartVerification(ChannelPhone, "123"); !errors.Is(err, ErrPhoneInvalid) {
		t.Fatalf("expected ErrPhoneInvalid, got %v", err)
	}
}
