/*
Package musifysdk is the client SDK for the Musify API. It keeps a single
logical user session alive across concurrent requests.

# Overview

An SDKClient is built around a CredentialStore, which holds the access and
refresh tokens:

	store := musifysdk.NewMemoryStore()
	client := musifysdk.NewSDKClient("https://api.musify.example", store)

	result, err := client.Login(ctx, musifysdk.LoginRequest{
		Identifier: "nightowl",
		Password:   "correct horse battery staple",
	})
	if result.Requires2FA {
		// ask for a TOTP code and call Login again with TOTPCode set
	}

	user, err := client.CurrentUser(ctx)

Any other authenticated endpoint can be called through client.HTTPClient,
which carries the same behaviour.

# Token Refresh

client.HTTPClient is backed by a Transport that:

 1. Attaches "Authorization: Bearer <token>" to every request except the
    login, register and refresh endpoints.
 2. On a 401, asks the Refresher for a new session. Concurrent 401s share
    one refresh call (golang.org/x/sync/singleflight).
 3. Replays the request once with the new token and the X-Retry-Attempted
    header. A 401 on the replay is returned as-is.

When the refresh is rejected or fails, the store is cleared and every
waiting request fails with an error matching ErrSessionExpired. Use
NeedsReauthentication to decide when to send the user back to login:

	if musifysdk.NeedsReauthentication(err) {
		showLogin()
	}

The refresh runs on a dedicated RefreshClient and is detached from the
context of the request that triggered it, so a cancelled caller never
aborts the refresh other callers are waiting on.

# Errors

Every failure is an *Error with a Kind. Match with errors.Is:

	switch {
	case errors.Is(err, musifysdk.ErrValidation):
		var e *musifysdk.Error
		errors.As(err, &e)
		showFieldErrors(e.Fields)
	case errors.Is(err, musifysdk.ErrInvalidCredentials):
	case errors.Is(err, musifysdk.ErrTimeout), errors.Is(err, musifysdk.ErrNetwork):
	}

# Verification

VerificationFlow pairs VerifyEmail/VerifySMS with a Cooldown so a resend
can only be requested once every 60 seconds:

	flow := client.NewVerificationFlow(nil)
	defer flow.Close()

	if _, err := flow.Resend(ctx, musifysdk.ChannelEmail, "me@example.com"); errors.Is(err, musifysdk.ErrResendUnavailable) {
		fmt.Println("wait", flow.Cooldown().Remaining(), "seconds")
	}

# Thread Safety

SDKClient, Transport, Refresher and MemoryStore are safe for concurrent use.
*/
package musifysdk
