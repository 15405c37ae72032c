package careauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	headerRequestID  = "X-Request-ID"
	headerDeviceID   = "X-Device-ID"
	headerLocale     = "X-Locale"
	headerAppVersion = "X-App-Version"
)

// Endpoint paths, relative to APIConfig.BaseURL.
const (
	pathLogin             = "/auth/login"
	pathMFAConfirm        = "/auth/login/mfa"
	pathRefresh           = "/auth/refresh"
	pathLogout            = "/auth/logout"
	pathRegister          = "/auth/register"
	pathRegisterInvite    = "/auth/register/invite"
	pathForgotPassword    = "/auth/password/forgot"
	pathResetPassword     = "/auth/password/reset"
	pathEmailCodeSend     = "/auth/verification/email/resend"
	pathEmailCodeVerify   = "/auth/verification/email/verify"
	pathPhoneCodeSend     = "/auth/verification/phone/send"
	pathPhoneCodeVerify   = "/auth/verification/phone/verify"
	pathCurrentUserPrefix = "/users/"
)

type httpAPIClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	deviceID  string
}

func newHTTPAPIClient(cfg APIConfig, deviceID string) (*httpAPIClient, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("careauth: invalid API base URL: %w", err)
	}
	return &httpAPIClient{
		baseURL: base,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		userAgent: cfg.UserAgent,
		deviceID:  deviceID,
	}, nil
}

type errorEnvelope struct {
	Status int `json:"status"`
	Data   struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (c *httpAPIClient) do(ctx context.Context, method, path string, in, out any, bearer string) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("careauth: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("careauth: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(headerRequestID, requestID)
	if c.deviceID != "" {
		req.Header.Set(headerDeviceID, c.deviceID)
	}
	if locale := localeFromContext(ctx); locale != "" {
		req.Header.Set(headerLocale, locale)
	}
	if version := appVersionFromContext(ctx); version != "" {
		req.Header.Set(headerAppVersion, version)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope errorEnvelope
		if json.Unmarshal(raw, &envelope) == nil {
			if envelope.Status != 0 {
				apiErr.Status = envelope.Status
			}
			apiErr.Message = envelope.Data.Message
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("careauth: decode response: %w", err)
		}
	}
	return nil
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmMFA describes the confirmmfa operation and its observable behavior.
//
// ConfirmMFA may return an error when input validation, dependency calls, or security checks fail.
// ConfirmMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) ConfirmMFA(ctx context.Context, req MFAConfirmRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, pathMFAConfirm, req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	var resp LoginResponse
	payload := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, pathRefresh, payload, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) Logout(ctx context.Context, refreshToken string) error {
	payload := map[string]string{"refresh_token": refreshToken}
	return c.do(ctx, http.MethodPost, pathLogout, payload, nil, "")
}

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) Register(ctx context.Context, req RegisterRequest) (*UserPayload, error) {
	var resp UserPayload
	if err := c.do(ctx, http.MethodPost, pathRegister, req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterWithInvite describes the registerwithinvite operation and its observable behavior.
//
// RegisterWithInvite may return an error when input validation, dependency calls, or security checks fail.
// RegisterWithInvite does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) RegisterWithInvite(ctx context.Context, req InviteRegisterRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, pathRegisterInvite, req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, pathForgotPassword, payload, nil, "")
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.do(ctx, http.MethodPost, pathResetPassword, req, nil, "")
}

// SendCode describes the sendcode operation and its observable behavior.
//
// SendCode may return an error when input validation, dependency calls, or security checks fail.
// SendCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) SendCode(ctx context.Context, channel VerificationChannel, target string) error {
	path := pathPhoneCodeSend
	key := "phone"
	if channel == ChannelEmail {
		path = pathEmailCodeSend
		key = "email"
	}
	payload := map[string]string{key: target}
	return c.do(ctx, http.MethodPost, path, payload, nil, "")
}

// VerifyCode describes the verifycode operation and its observable behavior.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) VerifyCode(ctx context.Context, channel VerificationChannel, target, code string) error {
	path := pathPhoneCodeVerify
	key := "phone"
	if channel == ChannelEmail {
		path = pathEmailCodeVerify
		key = "email"
	}
	payload := map[string]string{key: target, "code": code}
	return c.do(ctx, http.MethodPost, path, payload, nil, "")
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *httpAPIClient) CurrentUser(ctx context.Context, userID, accessToken string) (*UserPayload, error) {
	var resp UserPayload
	if err := c.do(ctx, http.MethodGet, pathCurrentUserPrefix+url.PathEscape(userID), nil, &resp, accessToken); err != nil {
		return nil, err
	}
	return &resp, nil
}
