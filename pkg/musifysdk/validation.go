package musifysdk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	reasonRequired = "is required"
	reasonChannel  = "must be email or sms"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// fieldOrder decides which failure becomes the error's Message.
var fieldOrder = []string{
	"verificationType",
	"email",
	"phoneNumber",
	"username",
	"displayName",
	"password",
	"confirmPassword",
	"token",
	"code",
}

// normalize trims and applies NFKC so visually identical identifiers
// compare equal.
func normalize(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

func (r LoginRequest) normalized() LoginRequest {
	r.Identifier = normalize(r.Identifier)
	r.TOTPCode = strings.TrimSpace(r.TOTPCode)
	return r
}

// Validate returns field errors keyed by JSON name, or nil.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Identifier) == "" {
		errs["username"] = reasonRequired
	}
	if r.Password == "" {
		errs["password"] = reasonRequired
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r RegisterRequest) normalized() RegisterRequest {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Username = normalize(r.Username)
	r.DisplayName = normalize(r.DisplayName)
	return r
}

// Validate returns field errors keyed by JSON name, or nil.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)

	r.validateContact(errs)
	r.validateUsername(errs)
	r.validateDisplayName(errs)
	r.validatePassword(errs)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r RegisterRequest) validateContact(errs map[string]string) {
	switch r.VerificationType {
	case ChannelEmail:
		switch {
		case r.Email == "":
			errs["email"] = reasonRequired
		case !emailPattern.MatchString(r.Email):
			errs["email"] = "must be a valid email address"
		}
	case ChannelSMS:
		switch {
		case r.PhoneNumber == "":
			errs["phoneNumber"] = reasonRequired
		case utf8.RuneCountInString(r.PhoneNumber) < 10:
			errs["phoneNumber"] = "must be at least 10 characters"
		}
	default:
		errs["verificationType"] = reasonChannel
	}
}

func (r RegisterRequest) validateUsername(errs map[string]string) {
	n := utf8.RuneCountInString(r.Username)
	switch {
	case r.Username == "":
		errs["username"] = reasonRequired
	case n < 3 || n > 30:
		errs["username"] = "must be 3-30 characters"
	case !usernamePattern.MatchString(r.Username):
		errs["username"] = "must only contain a-z, A-Z, 0-9 or _"
	}
}

func (r RegisterRequest) validateDisplayName(errs map[string]string) {
	switch {
	case r.DisplayName == "":
		errs["displayName"] = reasonRequired
	case utf8.RuneCountInString(r.DisplayName) > 64:
		errs["displayName"] = "too long (max 64)"
	}
}

func (r RegisterRequest) validatePassword(errs map[string]string) {
	n := utf8.RuneCountInString(r.Password)
	switch {
	case r.Password == "":
		errs["password"] = reasonRequired
	case n < 8:
		errs["password"] = "too short (min 8)"
	case n > 128:
		errs["password"] = "too long (max 128)"
	}

	if r.Password != r.ConfirmPassword {
		errs["confirmPassword"] = "does not match password"
	}
}
