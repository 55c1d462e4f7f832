package musifysdk

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies every failure surfaced by the SDK.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation_error"
	KindInvalidCredentials    ErrorKind = "invalid_credentials"
	KindEmailAlreadyExists    ErrorKind = "email_already_exists"
	KindUsernameAlreadyExists ErrorKind = "username_already_exists"
	KindSessionExpired        ErrorKind = "session_expired"
	KindUnauthorized          ErrorKind = "unauthorized"
	KindNetwork               ErrorKind = "network_error"
	KindServer                ErrorKind = "server_error"
	KindTimeout               ErrorKind = "timeout"
	KindRateLimited           ErrorKind = "rate_limited"
	KindNotFound              ErrorKind = "not_found"
	KindStorage               ErrorKind = "storage_error"
)

// Error is the typed error returned by the SDK. Match it with errors.Is
// against the sentinels below, or inspect it with errors.As.
type Error struct {
	Kind ErrorKind

	// Message is safe to show to the user.
	Message string

	// StatusCode is the HTTP status that produced the error, 0 when the
	// request never got a response.
	StatusCode int

	// Fields holds per-field validation messages keyed by JSON field name.
	Fields map[string]string

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return string(e.Kind) + ": " + e.Message
	case e.Err != nil:
		return string(e.Kind) + ": " + e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials}
	ErrEmailAlreadyExists    = &Error{Kind: KindEmailAlreadyExists}
	ErrUsernameAlreadyExists = &Error{Kind: KindUsernameAlreadyExists}
	ErrSessionExpired        = &Error{Kind: KindSessionExpired}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrNetwork               = &Error{Kind: KindNetwork}
	ErrServer                = &Error{Kind: KindServer}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrRateLimited           = &Error{Kind: KindRateLimited}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrStorage               = &Error{Kind: KindStorage}
)

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NeedsReauthentication reports whether the user must log in again. It is
// keyed on the error kind, never on message text.
func NeedsReauthentication(err error) bool {
	switch KindOf(err) {
	case KindSessionExpired, KindUnauthorized:
		return true
	}
	return false
}

func newError(kind ErrorKind, status int, message string) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: message}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// statusMapper turns a non-2xx status and the server's message into an *Error.
type statusMapper func(status int, message string) *Error

// mapAuthStatus covers login, register and the other credential endpoints.
func mapAuthStatus(status int, message string) *Error {
	switch status {
	case http.StatusBadRequest:
		return newError(KindValidation, status, orDefault(message, "invalid request"))
	case http.StatusUnauthorized:
		return newError(KindInvalidCredentials, status, "invalid username or password")
	case http.StatusForbidden:
		return newError(KindValidation, status, orDefault(message, "access forbidden"))
	case http.StatusConflict:
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(lower, "email"):
			return newError(KindEmailAlreadyExists, status, orDefault(message, "email already registered"))
		case strings.Contains(lower, "username"):
			return newError(KindUsernameAlreadyExists, status, orDefault(message, "username already taken"))
		}
		return newError(KindValidation, status, orDefault(message, "conflict"))
	case http.StatusTooManyRequests:
		return newError(KindValidation, status, "too many attempts, please try again later")
	}
	return newError(KindServer, status, orDefault(message, "request failed"))
}

// mapResendStatus covers the verification resend endpoints.
func mapResendStatus(status int, message string) *Error {
	switch status {
	case http.StatusBadRequest:
		return newError(KindValidation, status, orDefault(message, "invalid request"))
	case http.StatusNotFound:
		return newError(KindNotFound, status, orDefault(message, "account not found"))
	case http.StatusTooManyRequests:
		return newError(KindRateLimited, status, orDefault(message, "too many requests, please try again later"))
	}
	return newError(KindServer, status, orDefault(message, "request failed"))
}

// mapSessionStatus covers authenticated calls made on behalf of a session.
func mapSessionStatus(status int, message string) *Error {
	switch status {
	case http.StatusBadRequest:
		return newError(KindValidation, status, orDefault(message, "invalid request"))
	case http.StatusUnauthorized:
		return newError(KindUnauthorized, status, orDefault(message, "not authorized"))
	case http.StatusForbidden:
		return newError(KindValidation, status, orDefault(message, "access forbidden"))
	case http.StatusNotFound:
		return newError(KindNotFound, status, orDefault(message, "not found"))
	case http.StatusTooManyRequests:
		return newError(KindRateLimited, status, orDefault(message, "too many requests, please try again later"))
	}
	return newError(KindServer, status, orDefault(message, "request failed"))
}

// errorFromResponse decodes an ErrorResponse body, tolerating bodies that
// are empty or not JSON.
func errorFromResponse(status int, body []byte, mapper statusMapper) *Error {
	var er ErrorResponse
	_ = json.Unmarshal(body, &er)

	message := er.Message
	if message == "" {
		message = er.Error
	}
	return mapper(status, strings.TrimSpace(message))
}

// mapTransportError classifies a failure that happened before a response was
// received. An *Error already in the chain passes through unchanged, and so
// does a cancellation by the caller.
func mapTransportError(err error) error {
	if err == nil {
		return nil
	}

	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindNetwork, Message: "no internet connection", Err: err}
	}

	return &Error{Kind: KindNetwork, Message: "network error", Err: err}
}

// validationError builds a KindValidation error whose Message is the first
// failing field in fieldOrder.
func validationError(fields map[string]string) *Error {
	e := &Error{Kind: KindValidation, Fields: fields, Message: "invalid request"}
	for _, name := range fieldOrder {
		if reason, ok := fields[name]; ok {
			e.Message = name + " " + reason
			break
		}
	}
	return e
}
