package balance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultsync/payloadd/internal/infrastructure/balance"
)

var fixture = map[string]string{
	"xpub1": `"xpub1": {"final_balance": 1000, "n_tx": 2, "total_received": 3000}`,
	"xpub2": `"xpub2": {"final_balance": 500, "n_tx": 1, "total_received": 500}`,
	"1Leg":  `"1Leg": {"final_balance": 250, "n_tx": 1, "total_received": 250}`,
}

func newServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/balance" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		active := strings.Split(r.URL.Query().Get("active"), "|")
		entries := make([]string, 0, len(active))
		for _, addr := range active {
			entry, ok := fixture[addr]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Invalid Bitcoin Address"))
				return
			}
			entries = append(entries, entry)
		}
		w.Write([]byte("{" + strings.Join(entries, ",") + "}"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBalanceService(t *testing.T) {
	srv := newServer(t)
	svc, err := balance.NewService(balance.ServiceOpts{Coin: "btc", URL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	require.Zero(t, svc.GetWalletBalance())

	err = svc.UpdateAllBalances(ctx, []string{"xpub1", "xpub2"}, []string{"1Leg"})
	require.NoError(t, err)
	require.Equal(t, uint64(1750), svc.GetWalletBalance())
	require.Equal(t, uint64(250), svc.GetImportedAddressesBalance())
	require.Equal(t, uint64(500), svc.GetAddressBalance("xpub2"))
	require.Zero(t, svc.GetAddressBalance("unknown"))

	t.Run("subtract", func(t *testing.T) {
		require.NoError(t, svc.SubtractAmountFromAddressBalance("1Leg", 50))
		require.Equal(t, uint64(200), svc.GetAddressBalance("1Leg"))
		require.Equal(t, uint64(200), svc.GetImportedAddressesBalance())
		require.Equal(t, uint64(1700), svc.GetWalletBalance())

		err := svc.SubtractAmountFromAddressBalance("1Leg", 201)
		require.ErrorIs(t, err, balance.ErrInsufficientBalance)

		err = svc.SubtractAmountFromAddressBalance("unknown", 1)
		require.ErrorIs(t, err, balance.ErrUnknownAddress)
	})

	t.Run("bulk query", func(t *testing.T) {
		res, err := svc.GetBalanceOfAddresses(ctx, []string{"1Leg", "xpub1"})
		require.NoError(t, err)
		require.Len(t, res, 2)
		require.Equal(t, uint64(2), res["xpub1"].TxCount)
		require.Equal(t, uint64(250), res["1Leg"].TotalReceived)

		res, err = svc.GetBalanceOfAddresses(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, res)
	})

	t.Run("failed refresh keeps cache", func(t *testing.T) {
		err := svc.UpdateAllBalances(ctx, []string{"bad"}, nil)
		require.Error(t, err)
		require.Equal(t, uint64(1700), svc.GetWalletBalance())
	})
}

func TestNewService(t *testing.T) {
	_, err := balance.NewService(balance.ServiceOpts{Coin: "bch"})
	require.ErrorIs(t, err, balance.ErrMissingURL)
}
