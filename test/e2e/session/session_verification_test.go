//go:build e2e

package session_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Rostanic20/Musify-Frontend/internal/fakeapi"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/stretchr/testify/require"
)

func readOutbox(t *testing.T, baseURL string) fakeapi.Outbox {
	t.Helper()

	resp, err := http.Get(baseURL + "/_mock/outbox")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out fakeapi.Outbox
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterVerifyAndResendLimit(t *testing.T) {
	baseURL := setupMockAPI(t, nil)
	client := newClient(baseURL, musifysdk.NewMemoryStore())
	ctx := t.Context()

	res, err := client.Register(ctx, musifysdk.RegisterRequest{
		PhoneNumber:      "+61400000123",
		Username:         "texter",
		Password:         "correct-horse",
		ConfirmPassword:  "correct-horse",
		DisplayName:      "Texter",
		VerificationType: musifysdk.ChannelSMS,
	})
	require.NoError(t, err)
	require.True(t, client.IsLoggedIn(ctx))
	require.NotEmpty(t, res.Message)

	_, err = client.ResendVerification(ctx, musifysdk.ChannelSMS, "+61400000123")
	require.NoError(t, err)

	_, err = client.ResendVerification(ctx, musifysdk.ChannelSMS, "+61400000123")
	require.ErrorIs(t, err, musifysdk.ErrRateLimited, "Second resend inside the window should be limited")

	code := readOutbox(t, baseURL).SMS["+61400000123"]
	require.NotEmpty(t, code)

	_, err = client.VerifySMS(ctx, code, "+61400000123")
	require.NoError(t, err)
}

func TestHealthAndJWKS(t *testing.T) {
	baseURL := setupMockAPI(t, nil)

	for _, path := range []string{"/health", "/.well-known/jwks.json", "/swagger/doc.json"} {
		resp, err := http.Get(baseURL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
