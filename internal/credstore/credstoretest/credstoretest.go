// Package credstoretest runs the behaviour every credential store driver
// must share.
package credstoretest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/stretchr/testify/require"
)

// Factory opens an empty store for profile. Stores from the same factory
// and profile must share state.
type Factory func(t *testing.T, profile string) musifysdk.CredentialStore

func Run(t *testing.T, open Factory) {
	t.Run("empty", func(t *testing.T) {
		store := open(t, "empty")
		_, err := store.Get(context.Background())
		require.ErrorIs(t, err, musifysdk.ErrNoSession)
	})

	t.Run("set get clear", func(t *testing.T) {
		ctx := context.Background()
		store := open(t, "roundtrip")

		in := musifysdk.Session{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			IssuedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Set(ctx, in))

		out, err := store.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, in.AccessToken, out.AccessToken)
		require.Equal(t, in.RefreshToken, out.RefreshToken)
		require.True(t, in.IssuedAt.Equal(out.IssuedAt))

		require.NoError(t, store.Clear(ctx))
		_, err = store.Get(ctx)
		require.ErrorIs(t, err, musifysdk.ErrNoSession)

		require.NoError(t, store.Clear(ctx), "clearing twice is not an error")
	})

	t.Run("overwrite", func(t *testing.T) {
		ctx := context.Background()
		store := open(t, "overwrite")

		require.NoError(t, store.Set(ctx, musifysdk.Session{AccessToken: "access-1", RefreshToken: "refresh-1"}))
		require.NoError(t, store.Set(ctx, musifysdk.Session{AccessToken: "access-2"}))

		out, err := store.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, "access-2", out.AccessToken)
		require.Empty(t, out.RefreshToken)
	})

	t.Run("rejects empty access token", func(t *testing.T) {
		store := open(t, "invalid")
		err := store.Set(context.Background(), musifysdk.Session{RefreshToken: "refresh-1"})
		require.ErrorIs(t, err, musifysdk.ErrEmptyAccessToken)
	})

	t.Run("profiles are isolated", func(t *testing.T) {
		ctx := context.Background()
		alice := open(t, "alice")
		bob := open(t, "bob")

		require.NoError(t, alice.Set(ctx, musifysdk.Session{AccessToken: "alice-token"}))

		_, err := bob.Get(ctx)
		require.ErrorIs(t, err, musifysdk.ErrNoSession)
	})

	t.Run("concurrent use", func(t *testing.T) {
		ctx := context.Background()
		store := open(t, "concurrent")

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if i%2 == 0 {
					_ = store.Set(ctx, musifysdk.Session{AccessToken: "access"})
				} else {
					_, _ = store.Get(ctx)
				}
			}()
		}
		wg.Wait()

		out, err := store.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, "access", out.AccessToken)
	})
}
