package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rostanic20/Musify-Frontend/internal/fakeapi"
	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api   *fakeapi.Server
	flags []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(cryptox.MasterKeyEnv, "cli-test-master-key")

	api, err := fakeapi.New(fakeapi.Config{RotateRefreshTokens: true})
	require.NoError(t, err)
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	_, _, err = api.SeedUser(fakeapi.SeedAccount{
		Username:    "listener",
		Email:       "listener@example.com",
		Password:    "correct-horse",
		DisplayName: "Listener",
		Verified:    true,
	})
	require.NoError(t, err)

	return &harness{
		api: api,
		flags: []string{
			"--base-url", ts.URL,
			"--store", "bolt",
			"--store-path", filepath.Join(t.TempDir(), "session.bolt"),
			"--log-level", "error",
		},
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, h.flags...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSessionCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")

	out, err = h.run(t, "correct-horse\n", "login", "-u", "listener", "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "logged in as listener")

	out, err = h.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "refreshable:   true")

	h.api.ExpireAccessTokens()
	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "username:     listener")
	require.EqualValues(t, 1, h.api.RefreshCalls(), "whoami refreshes the expired token")

	out, err = h.run(t, "", "refresh")
	require.NoError(t, err)
	require.Contains(t, out, "session refreshed")

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "logged out")

	out, err = h.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "login", "-u", "listener", "--password", "wrong-horse")
	require.ErrorContains(t, err, "invalid username or password")

	_, err = h.run(t, "", "login", "-u", "listener")
	require.ErrorContains(t, err, "--password")

	_, err = h.run(t, "", "login", "-u", "listener", "--password-stdin")
	require.ErrorContains(t, err, "empty password")
}

func TestWhoamiAfterRevocation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "correct-horse\n", "login", "-u", "listener", "--password-stdin")
	require.NoError(t, err)

	h.api.ExpireAccessTokens()
	h.api.RevokeRefreshTokens()

	_, err = h.run(t, "", "whoami")
	require.ErrorContains(t, err, "session expired")

	out, err := h.run(t, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")
}

func TestRegisterAndVerify(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "correct-horse\n", "register",
		"--email", "owl@example.com",
		"--username", "night_owl",
		"--display-name", "Night Owl",
		"--password-stdin",
	)
	require.NoError(t, err)
	require.Contains(t, out, "registered night_owl")

	token, ok := h.api.VerificationToken("owl@example.com")
	require.True(t, ok)

	out, err = h.run(t, "", "verify", "email", token)
	require.NoError(t, err)
	require.Contains(t, out, "verified")

	_, err = h.run(t, "", "resend", "email:owl@example.com")
	require.ErrorContains(t, err, "already verified")

	_, err = h.run(t, "x\n", "register", "--email", "bad", "--username", "a", "--display-name", "A", "--password-stdin")
	require.ErrorContains(t, err, "email must be a valid email address")
}

func TestSMSVerification(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "correct-horse\n", "register",
		"--phone", "+61400000009",
		"--username", "texter",
		"--display-name", "Texter",
		"--password-stdin",
	)
	require.NoError(t, err)

	out, err := h.run(t, "", "resend", "sms:+61400000009")
	require.NoError(t, err)
	require.Contains(t, out, "Verification code sent")

	code, ok := h.api.SMSCode("+61400000009")
	require.True(t, ok)

	out, err = h.run(t, "", "verify", "sms", code, "--phone", "+61400000009")
	require.NoError(t, err)
	require.Contains(t, out, "Phone number verified")
}
