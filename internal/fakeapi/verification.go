package fakeapi

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
)

// queueEmailLocked mints a verification token for u and drops it in the
// outbox. Older tokens for the same user stay valid until used.
func (s *AuthService) queueEmailLocked(ctx context.Context, u *user) error {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return err
	}
	s.state.emailTokens[cryptox.FingerprintToken(token)] = u.ID
	s.state.outboxEmail[u.Email] = token

	slogx.FromContext(ctx, s.Logger).Debug("verification email queued", "user_id", u.ID)
	return nil
}

// queueSMSLocked replaces any pending code for u's phone number.
func (s *AuthService) queueSMSLocked(ctx context.Context, u *user) error {
	code, err := cryptox.GenerateNumericCode(smsCodeDigits)
	if err != nil {
		return err
	}
	s.state.outboxSMS[u.PhoneNumber] = code

	slogx.FromContext(ctx, s.Logger).Debug("verification sms queued", "user_id", u.ID)
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	fp := cryptox.FingerprintToken(token)
	id, ok := s.state.emailTokens[fp]
	if !ok {
		return ErrInvalidVerification
	}
	u, ok := s.state.users[id]
	if !ok {
		return ErrInvalidVerification
	}

	delete(s.state.emailTokens, fp)
	u.EmailVerified = true
	u.UpdatedAt = time.Now().UTC()

	slogx.FromContext(ctx, s.Logger).Info("email verified", "user_id", u.ID)
	return nil
}

func (s *AuthService) ResendEmail(ctx context.Context, email string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, ok := s.state.lookup(email)
	if !ok || u.Email == "" {
		return ErrUserNotFound
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.queueEmailLocked(ctx, u)
}

func (s *AuthService) VerifySMS(ctx context.Context, code, phoneNumber string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	id, ok := s.state.byPhone[phoneNumber]
	if !ok {
		return ErrInvalidVerification
	}
	want, ok := s.state.outboxSMS[phoneNumber]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return ErrInvalidVerification
	}

	delete(s.state.outboxSMS, phoneNumber)
	s.state.users[id].PhoneVerified = true

	slogx.FromContext(ctx, s.Logger).Info("phone verified", "user_id", id)
	return nil
}

func (s *AuthService) ResendSMS(ctx context.Context, phoneNumber string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	id, ok := s.state.byPhone[phoneNumber]
	if !ok {
		return ErrUserNotFound
	}
	u := s.state.users[id]
	if u.PhoneVerified {
		return ErrAlreadyVerified
	}
	return s.queueSMSLocked(ctx, u)
}
