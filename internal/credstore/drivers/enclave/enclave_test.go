package enclave_test

import (
	"context"
	"testing"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore/credstoretest"
	"github.com/Rostanic20/Musify-Frontend/internal/credstore/drivers/enclave"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	credstoretest.Run(t, func(t *testing.T, _ string) musifysdk.CredentialStore {
		store := enclave.NewStore()
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestCloseDropsSession(t *testing.T) {
	ctx := context.Background()
	store := enclave.NewStore()

	require.NoError(t, store.Set(ctx, musifysdk.Session{AccessToken: "access-1"}))
	require.NoError(t, store.Close())

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, musifysdk.ErrNoSession)
}
