package fakeapi

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/idx"
	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

// Authentication methods recorded in the amr claim.
const (
	amrPassword = "pwd"
	amrOTP      = "otp"
	amrRefresh  = "refresh"
)

const smsCodeDigits = 6

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidTOTP         = errors.New("invalid_totp")
	ErrEmailTaken          = errors.New("email_taken")
	ErrUsernameTaken       = errors.New("username_taken")
	ErrPhoneTaken          = errors.New("phone_taken")
	ErrInvalidRefresh      = errors.New("invalid_refresh_token")
	ErrInvalidVerification = errors.New("invalid_verification")
	ErrAlreadyVerified     = errors.New("already_verified")
	ErrUserNotFound        = errors.New("user_not_found")
	ErrSessionRevoked      = errors.New("session_revoked")
)

// ValidationError is a request the API refuses before touching any state.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// AuthService implements the Musify auth endpoints over in-memory state.
type AuthService struct {
	state *state

	Signer     jwtx.Signer
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RotateRefreshTokens issues a new refresh token on every refresh and
	// revokes the old one. When false the old token stays valid and the
	// refresh response carries none.
	RotateRefreshTokens bool

	Logger *slog.Logger

	refreshCalls atomic.Int64
}

func (s *AuthService) Register(ctx context.Context, req musifysdk.RegisterRequest) (*musifysdk.AuthResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &user{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		IsArtist:     req.IsArtist,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.VerificationType == musifysdk.ChannelSMS {
		u.PhoneNumber = req.PhoneNumber
	} else {
		u.Email = emailKey(req.Email)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if _, taken := s.state.byEmail[u.Email]; u.Email != "" && taken {
		return nil, ErrEmailTaken
	}
	if _, taken := s.state.byUsername[usernameKey(u.Username)]; taken {
		return nil, ErrUsernameTaken
	}
	if _, taken := s.state.byPhone[u.PhoneNumber]; u.PhoneNumber != "" && taken {
		return nil, ErrPhoneTaken
	}

	s.state.insertUser(u)

	var message string
	if u.PhoneNumber != "" {
		if err := s.queueSMSLocked(ctx, u); err != nil {
			return nil, err
		}
		message = "Registration successful. Please verify your phone number."
	} else {
		if err := s.queueEmailLocked(ctx, u); err != nil {
			return nil, err
		}
		message = "Registration successful. Please verify your email."
	}

	resp, err := s.issueLocked(u, idx.New().String(), []string{amrPassword}, now)
	if err != nil {
		return nil, err
	}
	resp.Message = message

	slogx.FromContext(ctx, s.Logger).Info("user registered", "user_id", u.ID, "channel", string(req.VerificationType))
	return resp, nil
}

func validateRegistration(req musifysdk.RegisterRequest) error {
	switch req.VerificationType {
	case musifysdk.ChannelEmail:
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return &ValidationError{Message: "A valid email is required"}
		}
	case musifysdk.ChannelSMS:
		if len(req.PhoneNumber) < 10 {
			return &ValidationError{Message: "A valid phone number is required"}
		}
	default:
		return &ValidationError{Message: "verificationType must be email or sms"}
	}
	if req.Username == "" {
		return &ValidationError{Message: "Username is required"}
	}
	if len(req.Password) < 8 {
		return &ValidationError{Message: "Password must be at least 8 characters"}
	}
	return nil
}

// Login checks the password and, for accounts with 2FA, the TOTP code. A
// missing code yields a Requires2FA response without tokens.
func (s *AuthService) Login(ctx context.Context, req musifysdk.LoginRequest) (*musifysdk.AuthResponse, error) {
	log := slogx.FromContext(ctx, s.Logger)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, ok := s.state.lookup(req.Identifier)
	if !ok {
		// Burn the same time as a real check.
		_ = cryptox.VerifyPassword(req.Password, dummyHash)
		return nil, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(req.Password, u.PasswordHash); err != nil {
		log.Info("password verification failed", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	amr := []string{amrPassword}
	if u.TOTPSecret != "" {
		if req.TOTPCode == "" {
			return &musifysdk.AuthResponse{
				Requires2FA: true,
				Message:     "Two-factor authentication code required",
			}, nil
		}
		if !totp.Validate(req.TOTPCode, u.TOTPSecret) {
			log.Info("totp verification failed", "user_id", u.ID)
			return nil, ErrInvalidTOTP
		}
		amr = append(amr, amrOTP)
	}

	return s.issueLocked(u, idx.New().String(), amr, time.Now().UTC())
}

// Refresh exchanges an opaque refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, opaque string) (*musifysdk.AuthResponse, error) {
	s.refreshCalls.Add(1)
	now := time.Now().UTC()

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	fp := cryptox.FingerprintToken(opaque)
	rt, ok := s.state.refreshTokens[fp]
	if !ok || rt.Revoked || now.After(rt.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}

	u, ok := s.state.users[rt.UserID]
	if !ok {
		return nil, ErrInvalidRefresh
	}

	resp, err := s.issueLocked(u, rt.SessionID, []string{amrPassword, amrRefresh}, now)
	if err != nil {
		return nil, err
	}

	if s.RotateRefreshTokens {
		rt.Revoked = true
	} else {
		delete(s.state.refreshTokens, cryptox.FingerprintToken(resp.RefreshToken))
		resp.RefreshToken = ""
	}

	slogx.FromContext(ctx, s.Logger).Info("session refreshed",
		"user_id", u.ID,
		"sid", rt.SessionID,
		"refresh_fp", cryptox.ShortFingerprint(opaque),
	)
	return resp, nil
}

// Logout revokes every token of the caller's session.
func (s *AuthService) Logout(ctx context.Context, claims jwtx.Claims) {
	s.state.mu.Lock()
	s.state.revokeSession(claims.SID)
	s.state.mu.Unlock()

	slogx.FromContext(ctx, s.Logger).Info("session revoked", "sid", claims.SID)
}

// CheckAccess rejects access tokens revoked by logout or by the
// ExpireAccessTokens hook before their exp claim.
func (s *AuthService) CheckAccess(claims jwtx.Claims) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if _, revoked := s.state.revokedJTI[claims.ID]; revoked {
		return ErrSessionRevoked
	}
	return nil
}

func (s *AuthService) Me(_ context.Context, subject string) (*musifysdk.User, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, ErrUserNotFound
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, ok := s.state.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return toDTO(u), nil
}

// RefreshCalls counts refresh requests received, valid or not.
func (s *AuthService) RefreshCalls() int64 { return s.refreshCalls.Load() }

func (s *AuthService) issueLocked(u *user, sid string, amr []string, now time.Time) (*musifysdk.AuthResponse, error) {
	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(u.ID, 10), // subject
		sid,                         // session ID
		amr,                         // authentication methods
		s.AccessTTL,                 // token lifetime
		s.Issuer,                    // issuer
		s.Audience,                  // audience
		u.Username,                  // username
		u.DisplayName,               // display name
		now,                         // current time
	)
	claims.Artist = u.IsArtist

	access, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, err
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	s.state.refreshTokens[cryptox.FingerprintToken(opaque)] = &refreshToken{
		UserID:    u.ID,
		SessionID: sid,
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	s.state.accessTokens[claims.ID] = sid

	return &musifysdk.AuthResponse{
		Token:        access,
		RefreshToken: opaque,
		User:         toDTO(u),
		ExpiresIn:    int64(s.AccessTTL / time.Second),
	}, nil
}

func toDTO(u *user) *musifysdk.User {
	return &musifysdk.User{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		DisplayName:      u.DisplayName,
		IsPremium:        u.IsPremium,
		IsVerified:       u.EmailVerified || u.PhoneVerified,
		EmailVerified:    u.EmailVerified,
		TwoFactorEnabled: u.TOTPSecret != "",
		IsArtist:         u.IsArtist,
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        u.UpdatedAt.Format(time.RFC3339),
	}
}

// dummyHash keeps unknown-user logins as slow as wrong-password logins.
var dummyHash = func() string {
	h, err := cryptox.HashPassword("musify-dummy-password")
	if err != nil {
		panic(err)
	}
	return h
}()
