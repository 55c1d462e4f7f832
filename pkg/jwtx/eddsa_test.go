package jwtx_test

import (
	"testing"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "https://api.musify.test"

func newTestSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestEdDSASignAndVerify(t *testing.T) {
	kid := "test-key-eddsa"
	signer := newTestSigner(t, kid)
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, kid, signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"user-456",
		"session-eddsa1",
		[]string{"pwd"},
		5*time.Minute,
		exampleIssuer,
		[]string{"musify-app"},
		"nightowl",
		"Night Owl",
		now,
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, []string{"musify-app"})

	parsedClaims, err := verifier.Verify(token)
	require.NoError(t, err)

	require.Equal(t, claims.Issuer, parsedClaims.Issuer)
	require.Equal(t, claims.Subject, parsedClaims.Subject)
	require.ElementsMatch(t, claims.Audience, parsedClaims.Audience)
	require.ElementsMatch(t, claims.AMR, parsedClaims.AMR)
	require.Equal(t, claims.SID, parsedClaims.SID)
	require.Equal(t, claims.Username, parsedClaims.Username)
	require.Equal(t, claims.DisplayName, parsedClaims.DisplayName)
	require.NotEmpty(t, parsedClaims.ID)
}

func TestEdDSAVerifyFailsForWrongIssuer(t *testing.T) {
	signer := newTestSigner(t, "k1")

	claims := jwtx.NewAccessClaims("user-789", "session-wrong", nil,
		time.Minute, exampleIssuer, nil, "", "", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierEdDSA(keyset, "wrong-issuer", nil)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestEdDSAVerifyFailsForUnknownKey(t *testing.T) {
	signer1 := newTestSigner(t, "key1")
	signer2 := newTestSigner(t, "key2")

	claims := jwtx.NewAccessClaims("user-unknown", "session-key", nil,
		time.Minute, exampleIssuer, nil, "", "", time.Now().UTC())
	token, err := signer1.Sign(claims)
	require.NoError(t, err)

	// Keyset only contains key2
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

func TestEdDSAVerifyFailsForExpiredToken(t *testing.T) {
	signer := newTestSigner(t, "k1")

	claims := jwtx.NewAccessClaims("user-1", "s", nil,
		time.Minute, exampleIssuer, nil, "", "", time.Now().Add(-time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil).Verify(token)
	require.Error(t, err)
}

func TestEdDSAVerifyFailsForHS256Token(t *testing.T) {
	claims := jwtx.NewAccessClaims("user-hmac", "session-hmac", nil,
		time.Minute, exampleIssuer, nil, "", "", time.Now().UTC())
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = "k1"
	token, err := tok.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(newTestSigner(t, "k1")))

	_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil).Verify(token)
	require.Error(t, err)
}

func TestEdDSAValidateFailsForInvalidKey(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("test", []byte("not-a-pem-key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid PEM")
}

func TestEdDSACommonVerifierAdapter(t *testing.T) {
	signer := newTestSigner(t, "test-key")

	claims := jwtx.NewAccessClaims("user-123", "session-adapter", []string{"pwd", "otp"},
		time.Minute, exampleIssuer, nil, "adapteruser", "Adapter User", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewCommonEdDSA(keyset, exampleIssuer, nil)

	parsedClaims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, parsedClaims.Subject)
	require.ElementsMatch(t, claims.AMR, parsedClaims.AMR)
}

func TestPeekClaims(t *testing.T) {
	signer := newTestSigner(t, "k1")
	now := time.Now().UTC().Truncate(time.Second)

	claims := jwtx.NewAccessClaims("user-1", "s1", nil,
		10*time.Minute, exampleIssuer, nil, "peeker", "Peeker", now)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	peeked, err := jwtx.PeekClaims(token)
	require.NoError(t, err)
	require.Equal(t, "peeker", peeked.Username)
	require.True(t, now.Add(10*time.Minute).Equal(jwtx.ExpiresAt(token)))

	_, err = jwtx.PeekClaims("opaque-token")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
	require.True(t, jwtx.ExpiresAt("opaque-token").IsZero())
}
