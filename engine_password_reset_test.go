package careauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPasswordResetMissingTokenRedirectsOnce(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if flow.Status() != ResetMissing {
		t.Fatalf("expected missing status, got %s", flow.Status())
	}
	if got := fx.engine.MetricsSnapshot().Counters[MetricResetTokenMissing]; got != 1 {
		t.Fatalf("expected missing-token metric, got %d", got)
	}

	// Submission against a missing token fails without touching the network.
	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); !errors.Is(err, ErrResetTokenMissing) {
		t.Fatalf("expected ErrResetTokenMissing, got %v", err)
	}
	if fx.api.callCount("ResetPassword") != 0 {
		t.Fatal("missing token must not reach the network")
	}

	fx.clock.waitForWaiters(t, 1)
	fx.clock.Advance(3 * time.Second)

	event := fx.nextEvent(t)
	if event.EventType != EventNavigate || event.Nav != NavRequestNewReset {
		t.Fatalf("expected redirect to request-new-reset, got %+v", event)
	}
	fx.expectNoEvent(t, 20*time.Millisecond)
}

func TestPasswordResetExpiredJWTTokenTerminalAtEntry(t *testing.T) {
	fx := newTestEngine(t, nil)

	expired := fx.clock.Now().Add(-time.Hour).Unix()
	flow, err := fx.engine.StartPasswordReset(unsignedJWT(t, "user-1", expired))
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if flow.Status() != ResetExpired {
		t.Fatalf("expected expired status, got %s", flow.Status())
	}
	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}

func TestPasswordResetOpaqueTokenValid(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("opaque-reset-token")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if flow.Status() != ResetValid {
		t.Fatalf("expected valid status, got %s", flow.Status())
	}
}

func TestPasswordResetLocalValidationBeforeNetwork(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("opaque-reset-token")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if err := flow.Submit(context.Background(), "short", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := flow.Submit(context.Background(), "newpassword", "different"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if fx.api.callCount("ResetPassword") != 0 {
		t.Fatal("local validation failures must not reach the network")
	}
	if flow.Status() != ResetValid {
		t.Fatal("validation failures must not change status")
	}
}

func TestPasswordResetConsumeRedirectsToLogin(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("opaque-reset-token")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if flow.Status() != ResetConsumed {
		t.Fatalf("expected consumed status, got %s", flow.Status())
	}

	if event := fx.nextEvent(t); event.EventType != EventResetConsumed {
		t.Fatalf("expected reset_consumed event, got %q", event.EventType)
	}

	// Consumed is terminal: a second submit never fires.
	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); !errors.Is(err, ErrResetConsumed) {
		t.Fatalf("expected ErrResetConsumed, got %v", err)
	}
	if fx.api.callCount("ResetPassword") != 1 {
		t.Fatal("consumed token must not be submitted again")
	}

	fx.clock.waitForWaiters(t, 1)
	fx.clock.Advance(3 * time.Second)
	if event := fx.nextEvent(t); event.Nav != NavLogin {
		t.Fatalf("expected redirect to login, got %+v", event)
	}
}

func TestPasswordResetNetworkFailureKeepsFormResubmittable(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("opaque-reset-token")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	fx.api.resetPasswordFn = func(context.Context, ResetPasswordRequest) error {
		return flowErr(ErrNetworkUnavailable, "offline")
	}
	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
	if flow.Status() != ResetValid {
		t.Fatalf("network failure must keep status valid, got %s", flow.Status())
	}

	fx.api.resetPasswordFn = nil
	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); err != nil {
		t.Fatalf("resubmit after network failure must work, got %v", err)
	}
	if flow.Status() != ResetConsumed {
		t.Fatalf("expected consumed after resubmit, got %s", flow.Status())
	}
}

func TestPasswordResetRemoteRejectionCarriesMessage(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("opaque-reset-token")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	fx.api.resetPasswordFn = func(context.Context, ResetPasswordRequest) error {
		return &APIError{Status: 410, Message: "token already used"}
	}

	submitErr := flow.Submit(context.Background(), "newpassword", "newpassword")
	if !errors.Is(submitErr, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", submitErr)
	}
	var flowError *FlowError
	if !errors.As(submitErr, &flowError) || flowError.Message != "token already used" {
		t.Fatalf("expected remote message carried, got %v", submitErr)
	}
}

func TestPasswordResetSubmitReentrancyRejected(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("opaque-reset-token")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}
	t.Cleanup(flow.Close)

	started := make(chan struct{})
	release := make(chan struct{})
	fx.api.resetPasswordFn = func(context.Context, ResetPasswordRequest) error {
		close(started)
		<-release
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = flow.Submit(context.Background(), "newpassword", "newpassword")
	}()

	<-started
	if err := flow.Submit(context.Background(), "newpassword", "newpassword"); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(release)
	wg.Wait()
}

func TestPasswordResetCloseCancelsRedirect(t *testing.T) {
	fx := newTestEngine(t, nil)

	flow, err := fx.engine.StartPasswordReset("")
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}

	fx.clock.waitForWaiters(t, 1)
	flow.Close()
	fx.clock.Advance(time.Minute)
	fx.expectNoEvent(t, 20*time.Millisecond)
}

func TestRequestPasswordResetValidatesEmail(t *testing.T) {
	fx := newTestEngine(t, nil)

	if err := fx.engine.RequestPasswordReset(context.Background(), "bad"); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("expected ErrEmailInvalid, got %v", err)
	}
	if fx.api.callCount("ForgotPassword") != 0 {
		t.Fatal("invalid email must not reach the network")
	}

	if err := fx.engine.RequestPasswordReset(context.Background(), "care@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if fx.api.callCount("ForgotPassword") != 1 {
		t.Fatal("expected forgot-password call")
	}
}
