package fakeapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/httpx"
	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
)

// AuthHandler serves the api/auth and api/users endpoints.
type AuthHandler struct {
	Service *AuthService
	metrics *serverMetrics
}

// HandleRegister godoc
//
//	@Summary		Register a new account
//	@Description	Creates an account, sends an email link or SMS code and returns a session.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		musifysdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	musifysdk.AuthResponse
//	@Failure		400		{object}	musifysdk.ErrorResponse
//	@Failure		409		{object}	musifysdk.ErrorResponse	"Email already registered or username taken"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req musifysdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.Service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Authenticates by username or email. Accounts with 2FA get requires2FA
//	@Description	until the request carries a valid totpCode.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		musifysdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	musifysdk.AuthResponse
//	@Failure		401		{object}	musifysdk.ErrorResponse
//	@Failure		429		{object}	musifysdk.ErrorResponse
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req musifysdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Identifier == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	resp, err := h.Service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh godoc
//
//	@Summary		Refresh the access token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		musifysdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	musifysdk.AuthResponse
//	@Failure		401		{object}	musifysdk.ErrorResponse	"Invalid refresh token"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req musifysdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refreshToken is required")
		return
	}

	resp, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if h.metrics != nil {
		h.metrics.observeRefresh(err)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Revokes the access and refresh tokens of the caller's session.
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	musifysdk.MessageResponse
//	@Failure		401	{object}	musifysdk.ErrorResponse
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	h.Service.Logout(r.Context(), claims)
	httpx.WriteJSON(w, http.StatusOK, musifysdk.MessageResponse{Message: "Logged out successfully"})
}

// HandleVerifyEmail godoc
//
//	@Summary		Verify an email address
//	@Tags			verification
//	@Produce		json
//	@Param			token	query		string	true	"Token from the verification email"
//	@Success		200		{object}	musifysdk.MessageResponse
//	@Failure		400		{object}	musifysdk.ErrorResponse
//	@Router			/api/auth/verify-email [get].
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}
	if err := h.Service.VerifyEmail(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, musifysdk.MessageResponse{Message: "Email verified successfully"})
}

// HandleVerifySMS godoc
//
//	@Summary		Verify a phone number
//	@Tags			verification
//	@Accept			json
//	@Produce		json
//	@Param			body	body		musifysdk.VerifySMSRequest	true	"Code and phone number"
//	@Success		200		{object}	musifysdk.MessageResponse
//	@Failure		400		{object}	musifysdk.ErrorResponse
//	@Router			/api/auth/verify-sms [post].
func (h *AuthHandler) HandleVerifySMS(w http.ResponseWriter, r *http.Request) {
	var req musifysdk.VerifySMSRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Code == "" || req.PhoneNumber == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code and phoneNumber are required")
		return
	}
	if err := h.Service.VerifySMS(r.Context(), req.Code, req.PhoneNumber); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, musifysdk.MessageResponse{Message: "Phone number verified successfully"})
}

// HandleResendEmail godoc
//
//	@Summary		Resend the verification email
//	@Tags			verification
//	@Accept			json
//	@Produce		json
//	@Param			body	body		musifysdk.ResendEmailRequest	true	"Address"
//	@Success		200		{object}	musifysdk.MessageResponse
//	@Failure		400		{object}	musifysdk.ErrorResponse	"Already verified"
//	@Failure		404		{object}	musifysdk.ErrorResponse
//	@Failure		429		{object}	musifysdk.ErrorResponse
//	@Router			/api/auth/resend-verification [post].
func (h *AuthHandler) HandleResendEmail(w http.ResponseWriter, r *http.Request) {
	var req musifysdk.ResendEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Service.ResendEmail(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, musifysdk.MessageResponse{Message: "Verification email sent"})
}

// HandleResendSMS godoc
//
//	@Summary		Resend the verification SMS
//	@Tags			verification
//	@Accept			json
//	@Produce		json
//	@Param			body	body		musifysdk.ResendSMSRequest	true	"Phone number"
//	@Success		200		{object}	musifysdk.MessageResponse
//	@Failure		404		{object}	musifysdk.ErrorResponse
//	@Failure		429		{object}	musifysdk.ErrorResponse
//	@Router			/api/auth/resend-sms [post].
func (h *AuthHandler) HandleResendSMS(w http.ResponseWriter, r *http.Request) {
	var req musifysdk.ResendSMSRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Service.ResendSMS(r.Context(), req.PhoneNumber); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, musifysdk.MessageResponse{Message: "Verification code sent"})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	musifysdk.User
//	@Failure		401	{object}	musifysdk.ErrorResponse
//	@Router			/api/users/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sub, _ := httpx.UserIDFromContext(r.Context())
	u, err := h.Service.Me(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// RequireLiveSession rejects access tokens the service revoked. It runs
// after httpx.AuthnMiddleware.
func RequireLiveSession(svc *AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := httpx.ClaimsFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
				return
			}
			if err := svc.CheckAccess(claims); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="token expired"`)
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token expired")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", verr.Message)
	case errors.Is(err, ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
	case errors.Is(err, ErrInvalidTOTP):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_totp", "Invalid two-factor authentication code")
	case errors.Is(err, ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "Invalid refresh token")
	case errors.Is(err, ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", "Email already registered")
	case errors.Is(err, ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, "username_taken", "Username already taken")
	case errors.Is(err, ErrPhoneTaken):
		httpx.WriteError(w, http.StatusConflict, "phone_taken", "Phone number already registered")
	case errors.Is(err, ErrInvalidVerification):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_verification", "Invalid or expired verification code")
	case errors.Is(err, ErrAlreadyVerified):
		httpx.WriteError(w, http.StatusBadRequest, "already_verified", "Account is already verified")
	case errors.Is(err, ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, ErrSessionRevoked):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token expired")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Server error occurred")
	}
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// HealthHandler godoc
//
//	@Summary		Health check
//	@Description	Always 200 while the process is up.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get].
func HealthHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Truncate(time.Second).String(),
			Version: version,
		})
	}
}

// JWKSHandler godoc
//
//	@Summary		Get JWKS
//	@Description	Public keys for verifying access tokens minted by this server.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	jwtx.JWKS
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}

// OutboxHandler exposes the verification messages the server would have
// delivered. Only mounted when Config.ExposeOutbox is set.
func OutboxHandler(svc *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, svc.Outbox())
	}
}

// resendKey limits resends per address whichever channel is used.
func resendKey(r *http.Request) string {
	for _, field := range []string{"email", "phoneNumber"} {
		if k := httpx.JSONFieldKeyExtractor(field)(r); k != "" {
			return field + ":" + k
		}
	}
	return httpx.IPKeyExtractor(r)
}
