package credstore_test

import (
	"testing"
	"time"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T) *cryptox.Sealer {
	t.Helper()
	sealer, err := cryptox.NewSealer([]byte("test-master-key"))
	require.NoError(t, err)
	return sealer
}

func TestCodecRoundTrip(t *testing.T) {
	codec := credstore.NewCodec(newSealer(t), "alice")

	in := musifysdk.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		IssuedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	blob, err := codec.Encode(in)
	require.NoError(t, err)
	require.NotContains(t, string(blob), "access-1")

	out, err := codec.Decode(blob)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestCodecRejectsEmptyAccessToken(t *testing.T) {
	codec := credstore.NewCodec(newSealer(t), "")

	_, err := codec.Encode(musifysdk.Session{RefreshToken: "refresh-1"})
	require.ErrorIs(t, err, musifysdk.ErrEmptyAccessToken)
}

func TestCodecBindsProfile(t *testing.T) {
	sealer := newSealer(t)

	blob, err := credstore.NewCodec(sealer, "alice").Encode(musifysdk.Session{AccessToken: "access-1"})
	require.NoError(t, err)

	_, err = credstore.NewCodec(sealer, "bob").Decode(blob)
	require.ErrorIs(t, err, credstore.ErrCorrupt)
}

func TestCodecDetectsTampering(t *testing.T) {
	codec := credstore.NewCodec(newSealer(t), "alice")

	blob, err := codec.Encode(musifysdk.Session{AccessToken: "access-1"})
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xff
	_, err = codec.Decode(blob)
	require.ErrorIs(t, err, credstore.ErrCorrupt)

	_, err = codec.Decode([]byte("short"))
	require.ErrorIs(t, err, credstore.ErrCorrupt)
}

func TestCodecDifferentKey(t *testing.T) {
	blob, err := credstore.NewCodec(newSealer(t), "alice").Encode(musifysdk.Session{AccessToken: "access-1"})
	require.NoError(t, err)

	other, err := cryptox.NewSealer([]byte("rotated-master-key"))
	require.NoError(t, err)

	_, err = credstore.NewCodec(other, "alice").Decode(blob)
	require.ErrorIs(t, err, credstore.ErrCorrupt)
}
