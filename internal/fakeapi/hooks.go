package fakeapi

import (
	"errors"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SeedAccount describes a user created directly, bypassing registration.
type SeedAccount struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	DisplayName string
	IsArtist    bool
	IsPremium   bool
	Verified    bool
	// With2FA enrolls a TOTP secret, returned by SeedUser.
	With2FA bool
}

// SeedUser creates an account and returns its ID and, for 2FA accounts,
// the base32 TOTP secret.
func (s *AuthService) SeedUser(acct SeedAccount) (int64, string, error) {
	if acct.Username == "" || acct.Password == "" {
		return 0, "", errors.New("fakeapi: seed account needs a username and password")
	}

	hash, err := cryptox.HashPassword(acct.Password)
	if err != nil {
		return 0, "", err
	}

	var secret string
	if acct.With2FA {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      s.Issuer,
			AccountName: acct.Username,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, "", err
		}
		secret = key.Secret()
	}

	now := time.Now().UTC()
	u := &user{
		Email:         emailKey(acct.Email),
		PhoneNumber:   acct.PhoneNumber,
		Username:      acct.Username,
		DisplayName:   acct.DisplayName,
		PasswordHash:  hash,
		TOTPSecret:    secret,
		IsArtist:      acct.IsArtist,
		IsPremium:     acct.IsPremium,
		EmailVerified: acct.Verified && acct.Email != "",
		PhoneVerified: acct.Verified && acct.PhoneNumber != "",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if _, taken := s.state.byUsername[usernameKey(u.Username)]; taken {
		return 0, "", ErrUsernameTaken
	}
	if _, taken := s.state.byEmail[u.Email]; u.Email != "" && taken {
		return 0, "", ErrEmailTaken
	}
	s.state.insertUser(u)
	return u.ID, secret, nil
}

// ExpireAccessTokens invalidates every access token issued so far while
// leaving refresh tokens usable, as if the access TTL had elapsed.
func (s *AuthService) ExpireAccessTokens() {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for jti := range s.state.accessTokens {
		s.state.revokedJTI[jti] = struct{}{}
		delete(s.state.accessTokens, jti)
	}
}

// RevokeRefreshTokens makes every outstanding refresh token unusable.
func (s *AuthService) RevokeRefreshTokens() {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, rt := range s.state.refreshTokens {
		rt.Revoked = true
	}
}

// Outbox is the verification mail the API would have sent.
type Outbox struct {
	Emails map[string]string `json:"emails"` // address -> latest token
	SMS    map[string]string `json:"sms"`    // phone number -> pending code
}

func (s *AuthService) Outbox() Outbox {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := Outbox{
		Emails: make(map[string]string, len(s.state.outboxEmail)),
		SMS:    make(map[string]string, len(s.state.outboxSMS)),
	}
	for k, v := range s.state.outboxEmail {
		out.Emails[k] = v
	}
	for k, v := range s.state.outboxSMS {
		out.SMS[k] = v
	}
	return out
}

// VerificationToken returns the latest email token sent to email.
func (s *AuthService) VerificationToken(email string) (string, bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	tok, ok := s.state.outboxEmail[emailKey(email)]
	return tok, ok
}

// SMSCode returns the pending code for phoneNumber.
func (s *AuthService) SMSCode(phoneNumber string) (string, bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	code, ok := s.state.outboxSMS[phoneNumber]
	return code, ok
}
