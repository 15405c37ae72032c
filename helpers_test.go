package careauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/*
====================================
FAKE CLOCK
====================================
*/

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// fakeClock steps wall time manually. After returns a channel that fires
// when Advance moves the clock past its deadline.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, fakeWaiter{deadline: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward and fires every waiter whose deadline
// has passed.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	remaining := c.waiters[:0]
	var fired []fakeWaiter
	for _, w := range c.waiters {
		if !w.deadline.After(now) {
			fired = append(fired, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	for _, w := range fired {
		w.ch <- now
	}
}

// waitForWaiters blocks until at least n timers are registered, so Advance
// cannot race the goroutine that is about to call After.
func (c *fakeClock) waitForWaiters(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		count := len(c.waiters)
		c.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d clock waiters", n)
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

/*
====================================
MOCK API CLIENT
====================================
*/

// mockAPIClient implements APIClient with overridable behavior per method
// and thread-safe call counting.
type mockAPIClient struct {
	mu    sync.Mutex
	calls map[string]int

	loginFn          func(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	confirmMFAFn     func(ctx context.Context, req MFAConfirmRequest) (*LoginResponse, error)
	refreshFn        func(ctx context.Context, refreshToken string) (*LoginResponse, error)
	logoutFn         func(ctx context.Context, refreshToken string) error
	registerFn       func(ctx context.Context, req RegisterRequest) (*UserPayload, error)
	registerInviteFn func(ctx context.Context, req InviteRegisterRequest) (*LoginResponse, error)
	forgotPasswordFn func(ctx context.Context, email string) error
	resetPasswordFn  func(ctx context.Context, req ResetPasswordRequest) error
	sendCodeFn       func(ctx context.Context, channel VerificationChannel, target string) error
	verifyCodeFn     func(ctx context.Context, channel VerificationChannel, target, code string) error
	currentUserFn    func(ctx context.Context, userID, accessToken string) (*UserPayload, error)
}

func newMockAPI() *mockAPIClient {
	return &mockAPIClient{calls: make(map[string]int)}
}

func (m *mockAPIClient) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *mockAPIClient) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockAPIClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	m.record("Login")
	if m.loginFn != nil {
		return m.loginFn(ctx, req)
	}
	return authenticatedResponse("user-1"), nil
}

func (m *mockAPIClient) ConfirmMFA(ctx context.Context, req MFAConfirmRequest) (*LoginResponse, error) {
	m.record("ConfirmMFA")
	if m.confirmMFAFn != nil {
		return m.confirmMFAFn(ctx, req)
	}
	return authenticatedResponse("user-1"), nil
}

func (m *mockAPIClient) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	m.record("Refresh")
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	resp := authenticatedResponse("user-1")
	resp.User = nil
	resp.AccessToken = "rotated-access"
	resp.RefreshToken = "rotated-refresh"
	return resp, nil
}

func (m *mockAPIClient) Logout(ctx context.Context, refreshToken string) error {
	m.record("Logout")
	if m.logoutFn != nil {
		return m.logoutFn(ctx, refreshToken)
	}
	return nil
}

func (m *mockAPIClient) Register(ctx context.Context, req RegisterRequest) (*UserPayload, error) {
	m.record("Register")
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return &UserPayload{ID: "user-new", Name: req.Name, Email: req.Email, Phone: req.Phone}, nil
}

func (m *mockAPIClient) RegisterWithInvite(ctx context.Context, req InviteRegisterRequest) (*LoginResponse, error) {
	m.record("RegisterWithInvite")
	if m.registerInviteFn != nil {
		return m.registerInviteFn(ctx, req)
	}
	return authenticatedResponse("user-invited"), nil
}

func (m *mockAPIClient) ForgotPassword(ctx context.Context, email string) error {
	m.record("ForgotPassword")
	if m.forgotPasswordFn != nil {
		return m.forgotPasswordFn(ctx, email)
	}
	return nil
}

func (m *mockAPIClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	m.record("ResetPassword")
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, req)
	}
	return nil
}

func (m *mockAPIClient) SendCode(ctx context.Context, channel VerificationChannel, target string) error {
	m.record("SendCode")
	if m.sendCodeFn != nil {
		return m.sendCodeFn(ctx, channel, target)
	}
	return nil
}

func (m *mockAPIClient) VerifyCode(ctx context.Context, channel VerificationChannel, target, code string) error {
	m.record("VerifyCode")
	if m.verifyCodeFn != nil {
		return m.verifyCodeFn(ctx, channel, target, code)
	}
	return nil
}

func (m *mockAPIClient) CurrentUser(ctx context.Context, userID, accessToken string) (*UserPayload, error) {
	m.record("CurrentUser")
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID, accessToken)
	}
	return &UserPayload{ID: userID, Name: "Test Caregiver", Email: "care@example.com", PhoneVerified: true}, nil
}

// unsignedJWT mints an alg=none token. The engine parses claims without
// verification, so no key material is needed in tests.
func unsignedJWT(t *testing.T, subject string, exp int64) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": subject,
		"exp": exp,
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return signed
}

// authenticatedResponse builds the single-variant authenticated payload.
func authenticatedResponse(userID string) *LoginResponse {
	return &LoginResponse{
		AccessToken:      "access-" + userID,
		RefreshToken:     "refresh-" + userID,
		AccessExpiresAt:  time.Now().Add(time.Hour).Unix(),
		RefreshExpiresAt: time.Now().Add(30 * 24 * time.Hour).Unix(),
		User: &UserPayload{
			ID:    userID,
			Name:  "Test Caregiver",
			Email: "care@example.com",
		},
	}
}

/*
====================================
ENGINE FIXTURE
====================================
*/

type testFixture struct {
	engine *Engine
	api    *mockAPIClient
	clock  *fakeClock
	sink   *ChannelSink
}

func (fx *testFixture) nextEvent(t *testing.T) FlowEvent {
	t.Helper()

	select {
	case event := <-fx.sink.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return FlowEvent{}
	}
}

// expectNoEvent asserts no event arrives within the grace window.
func (fx *testFixture) expectNoEvent(t *testing.T, grace time.Duration) {
	t.Helper()

	select {
	case event := <-fx.sink.Events():
		t.Fatalf("unexpected event %q", event.EventType)
	case <-time.After(grace):
	}
}

func newTestEngine(t *testing.T, mutate func(cfg *Config)) *testFixture {
	t.Helper()

	api := newMockAPI()
	clk := newFakeClock()
	sink := NewChannelSink(64)

	cfg := defaultConfig()
	cfg.Session.PersistEnabled = false
	cfg.Session.RestoreOnBuild = false
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithAPIClient(api).
		WithClock(clk).
		WithEventSink(sink).
		WithLogger(func(string) {}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testFixture{engine: engine, api: api, clock: clk, sink: sink}
}

// loginFixture establishes a session through the normal login path.
func loginFixture(t *testing.T) *testFixture {
	t.Helper()

	fx := newTestEngine(t, nil)
	if _, err := fx.engine.Login(context.Background(), "care@example.com", "password-1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	drainEvents(fx.sink)
	return fx
}

func drainEvents(sink *ChannelSink) {
	// Events reach the sink via the dispatcher goroutine, so a purely
	// non-blocking drain can run before in-flight events arrive. Keep
	// draining until no event shows up within a short quiet window.
	for {
		select {
		case <-sink.Events():
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}
