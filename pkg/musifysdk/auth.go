package musifysdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const logoutTimeout = 10 * time.Second

// Login authenticates with a username or email. When the account has 2FA
// enabled and no TOTPCode was given, the result has Requires2FA set and no
// session is stored.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req = req.normalized()
	if errs := req.Validate(); errs != nil {
		return nil, validationError(errs)
	}

	var ar AuthResponse
	if err := c.call(ctx, c.HTTPClient, http.MethodPost, "api/auth/login", req, &ar, mapAuthStatus); err != nil {
		return nil, err
	}

	return c.establish(ctx, ar)
}

// Register creates an account. All validation happens before any request
// is sent.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req = req.normalized()
	if errs := req.Validate(); errs != nil {
		return nil, validationError(errs)
	}

	var ar AuthResponse
	if err := c.call(ctx, c.HTTPClient, http.MethodPost, "api/auth/register", req, &ar, mapAuthStatus); err != nil {
		return nil, err
	}

	return c.establish(ctx, ar)
}

// establish persists the tokens of a successful login or registration.
func (c *SDKClient) establish(ctx context.Context, ar AuthResponse) (*AuthResult, error) {
	result := &AuthResult{
		User:        ar.User,
		ExpiresIn:   time.Duration(ar.ExpiresIn) * time.Second,
		Requires2FA: ar.Requires2FA,
		Message:     ar.Message,
	}
	if ar.Requires2FA {
		return result, nil
	}
	if ar.Token == "" {
		return nil, newError(KindServer, http.StatusOK, "response carried no token")
	}

	result.Session = Session{
		AccessToken:  ar.Token,
		RefreshToken: ar.RefreshToken,
		IssuedAt:     time.Now().UTC(),
	}
	if err := c.store.Set(ctx, result.Session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	c.refresher.markIdle()

	return result, nil
}

// Logout tells the server the session is over, then clears it locally. The
// remote call is best effort; only a failure to clear the local store is
// returned.
func (c *SDKClient) Logout(ctx context.Context) error {
	detached := context.WithoutCancel(ctx)

	if _, err := c.store.Get(ctx); err == nil {
		remoteCtx, cancel := context.WithTimeout(withoutRefresh(detached), logoutTimeout)
		err := c.call(remoteCtx, c.HTTPClient, http.MethodPost, "api/auth/logout", nil, nil, mapSessionStatus)
		cancel()
		if err != nil {
			c.log.Warn("remote logout failed, clearing local session anyway", "err", err)
		}
	}

	if err := c.store.Clear(detached); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	c.refresher.markLoggedOut()
	return nil
}

// Refresh renews the session now, sharing any refresh already in flight.
func (c *SDKClient) Refresh(ctx context.Context) (Session, error) {
	outcome, err := c.refresher.Refresh(ctx, "")
	if err != nil {
		return Session{}, mapTransportError(err)
	}
	if outcome.Kind != RefreshSucceeded {
		return Session{}, outcome.failure()
	}
	return outcome.Session, nil
}

// VerifyEmail confirms an email address with the token from the email link.
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, validationError(map[string]string{"token": reasonRequired})
	}

	var mr MessageResponse
	path := "api/auth/verify-email?token=" + url.QueryEscape(token)
	if err := c.call(ctx, c.HTTPClient, http.MethodGet, path, nil, &mr, mapSessionStatus); err != nil {
		return nil, err
	}
	return &mr, nil
}

// VerifySMS confirms a phone number with the code sent to it.
func (c *SDKClient) VerifySMS(ctx context.Context, code, phoneNumber string) (*MessageResponse, error) {
	req := VerifySMSRequest{
		Code:        strings.TrimSpace(code),
		PhoneNumber: strings.TrimSpace(phoneNumber),
	}
	errs := map[string]string{}
	if req.Code == "" {
		errs["code"] = reasonRequired
	}
	if req.PhoneNumber == "" {
		errs["phoneNumber"] = reasonRequired
	}
	if len(errs) > 0 {
		return nil, validationError(errs)
	}

	var mr MessageResponse
	if err := c.call(ctx, c.HTTPClient, http.MethodPost, "api/auth/verify-sms", req, &mr, mapSessionStatus); err != nil {
		return nil, err
	}
	return &mr, nil
}

// ResendVerification asks for a new verification email or SMS.
func (c *SDKClient) ResendVerification(
	ctx context.Context,
	channel VerificationChannel,
	target string,
) (*MessageResponse, error) {
	target = strings.TrimSpace(target)

	var (
		path string
		body any
	)
	switch channel {
	case ChannelEmail:
		if target == "" {
			return nil, validationError(map[string]string{"email": reasonRequired})
		}
		path, body = "api/auth/resend-verification", ResendEmailRequest{Email: target}
	case ChannelSMS:
		if target == "" {
			return nil, validationError(map[string]string{"phoneNumber": reasonRequired})
		}
		path, body = "api/auth/resend-sms", ResendSMSRequest{PhoneNumber: target}
	default:
		return nil, validationError(map[string]string{"verificationType": reasonChannel})
	}

	var mr MessageResponse
	if err := c.call(ctx, c.HTTPClient, http.MethodPost, path, body, &mr, mapResendStatus); err != nil {
		return nil, err
	}
	return &mr, nil
}

// CurrentUser returns the account the stored session belongs to.
func (c *SDKClient) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, c.HTTPClient, http.MethodGet, "api/users/me", nil, &u, mapSessionStatus); err != nil {
		return nil, err
	}
	return &u, nil
}

// Session returns the stored session, or ErrNoSession.
func (c *SDKClient) Session(ctx context.Context) (Session, error) {
	return c.store.Get(ctx)
}

// IsLoggedIn reads the store once, as an application does on cold start.
func (c *SDKClient) IsLoggedIn(ctx context.Context) bool {
	s, err := c.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			c.log.Warn("failed to read session", "err", err)
		}
		c.refresher.markLoggedOut()
		return false
	}
	return s.AccessToken != ""
}
