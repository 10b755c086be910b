package inmemory_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultsync/payloadd/internal/infrastructure/payloadcodec"
	"github.com/vaultsync/payloadd/internal/infrastructure/walletapi/inmemory"
)

func wrapper(t *testing.T, payload string) (string, string) {
	w := payloadcodec.Wrapper{Version: 4, Pbkdf2Iterations: 10, Payload: payload}
	raw := `{"version":4,"pbkdf2_iterations":10,"payload":"` + payload + `"}`
	parsed, err := payloadcodec.ParseWrapper(raw)
	require.NoError(t, err)
	require.Equal(t, w, *parsed)
	return raw, w.Checksum()
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()

	first, firstChecksum := wrapper(t, "Zmlyc3Q=")
	res, err := store.InsertWallet(ctx, "guid", "key", first, firstChecksum, "u@x.com", "test")
	require.NoError(t, err)
	require.True(t, res.IsSuccessful())

	res, err = store.InsertWallet(ctx, "guid", "key", first, firstChecksum, "u@x.com", "test")
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, res.GetStatusCode())

	res, err = store.FetchWalletData(ctx, "guid", "wrong")
	require.NoError(t, err)
	require.False(t, res.IsSuccessful())
	require.Contains(t, res.GetBody(), "Unknown Wallet Identifier")

	res, err = store.FetchWalletData(ctx, "guid", "key")
	require.NoError(t, err)
	require.True(t, res.IsSuccessful())
	require.Contains(t, res.GetBody(), firstChecksum)

	second, secondChecksum := wrapper(t, "c2Vjb25k")
	res, err = store.UpdateWallet(
		ctx, "guid", "key", second, secondChecksum, "stale", nil, "test",
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, res.GetStatusCode())
	require.Equal(t, firstChecksum, store.Checksum("guid"))

	res, err = store.UpdateWallet(
		ctx, "guid", "key", second, "bad", firstChecksum, nil, "test",
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.GetStatusCode())

	res, err = store.UpdateWallet(
		ctx, "guid", "key", second, secondChecksum, firstChecksum,
		[]string{"addr1", "addr2"}, "test",
	)
	require.NoError(t, err)
	require.True(t, res.IsSuccessful())
	require.Equal(t, secondChecksum, store.Checksum("guid"))
	require.Equal(t, second, store.Payload("guid"))
	require.Equal(t, []string{"addr1", "addr2"}, store.SyncAddresses("guid"))

	store.Lock("guid")
	res, err = store.FetchWalletData(ctx, "guid", "key")
	require.NoError(t, err)
	require.Contains(t, res.GetBody(), "locked")
}

func TestStorePairing(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()

	res, err := store.FetchPairingEncryptionPassword(ctx, "guid")
	require.NoError(t, err)
	require.False(t, res.IsSuccessful())

	raw, checksum := wrapper(t, "Zmlyc3Q=")
	_, err = store.InsertWallet(ctx, "guid", "key", raw, checksum, "", "test")
	require.NoError(t, err)
	store.SetPairingEncryptionPassword("guid", "encryption")

	res, err = store.FetchPairingEncryptionPassword(ctx, "guid")
	require.NoError(t, err)
	require.True(t, res.IsSuccessful())
	require.Equal(t, "encryption", res.GetBody())
}
