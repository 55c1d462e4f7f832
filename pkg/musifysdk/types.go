package musifysdk

import "time"

// VerificationChannel selects how a new account proves its contact details.
type VerificationChannel string

const (
	ChannelEmail VerificationChannel = "email"
	ChannelSMS   VerificationChannel = "sms"
)

// LoginRequest is the body of POST api/auth/login. Identifier may be a
// username or an email address.
type LoginRequest struct {
	Identifier string `json:"username"`
	Password   string `json:"password"`
	TOTPCode   string `json:"totpCode,omitempty"`
}

// RegisterRequest is the body of POST api/auth/register.
type RegisterRequest struct {
	Email            string              `json:"email,omitempty"`
	PhoneNumber      string              `json:"phoneNumber,omitempty"`
	Username         string              `json:"username"`
	Password         string              `json:"password"`
	ConfirmPassword  string              `json:"-"`
	DisplayName      string              `json:"displayName"`
	IsArtist         bool                `json:"isArtist"`
	VerificationType VerificationChannel `json:"verificationType"`
}

// RefreshTokenRequest is the body of POST api/auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// VerifySMSRequest is the body of POST api/auth/verify-sms.
type VerifySMSRequest struct {
	Code        string `json:"code"`
	PhoneNumber string `json:"phoneNumber"`
}

// ResendEmailRequest is the body of POST api/auth/resend-verification.
type ResendEmailRequest struct {
	Email string `json:"email"`
}

// ResendSMSRequest is the body of POST api/auth/resend-sms.
type ResendSMSRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// User is the account returned by the Musify API.
type User struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	DisplayName      string `json:"displayName"`
	Bio              string `json:"bio,omitempty"`
	ProfilePicture   string `json:"profilePicture,omitempty"`
	IsPremium        bool   `json:"isPremium"`
	IsVerified       bool   `json:"isVerified"`
	EmailVerified    bool   `json:"emailVerified"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
	IsArtist         bool   `json:"isArtist"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// AuthResponse is returned by login, register and refresh.
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user,omitempty"`
	ExpiresIn    int64  `json:"expiresIn"`
	Requires2FA  bool   `json:"requires2FA"`
	Message      string `json:"message,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error envelope of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// AuthResult is what Login and Register hand back to the application.
// When Requires2FA is set, Session is empty and nothing was persisted; the
// caller retries Login with a TOTP code.
type AuthResult struct {
	Session     Session
	User        *User
	ExpiresIn   time.Duration
	Requires2FA bool
	Message     string
}
