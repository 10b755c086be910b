package multiaddress_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/infrastructure/multiaddress"
	"pgregory.net/rapid"
)

const (
	xpub     = "xpub-account-0"
	ownAddr  = "1Own"
	own2Addr = "1Own2"
	extAddr  = "1External"

	multiAddrFixture = `{
  "addresses": [
    {"address": "xpub-account-0", "final_balance": 150000, "n_tx": 3, "total_received": 300000, "account_index": 3, "change_index": 1}
  ],
  "txs": [
    {
      "hash": "received", "time": 1000, "block_height": 100, "fee": 0,
      "inputs": [{"prev_out": {"addr": "1External", "value": 200000}}],
      "out": [{"addr": "1Own", "value": 200000, "xpub": {"m": "xpub-account-0", "path": "M/0/4"}}]
    },
    {
      "hash": "sent", "time": 2000, "block_height": 105, "fee": 1000,
      "inputs": [{"prev_out": {"addr": "1Own", "value": 200000, "xpub": {"m": "xpub-account-0", "path": "M/0/4"}}}],
      "out": [
        {"addr": "1External", "value": 49000},
        {"addr": "1Own2", "value": 150000, "xpub": {"m": "xpub-account-0", "path": "M/1/0"}}
      ]
    },
    {
      "hash": "unrelated", "time": 3000, "block_height": 0, "fee": 100,
      "inputs": [{"prev_out": {"addr": "1External", "value": 500}}],
      "out": [{"addr": "1External", "value": 400}]
    }
  ],
  "info": {"latest_block": {"height": 110}}
}`
)

func newServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/multiaddr" || r.URL.Query().Get("active") == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("missing active"))
			return
		}
		w.Write([]byte(multiAddrFixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAccountTransactions(t *testing.T) {
	srv := newServer(t)
	tracker, err := multiaddress.NewTracker(multiaddress.TrackerOpts{URL: srv.URL})
	require.NoError(t, err)

	require.Equal(t, 0, tracker.NextReceiveAddressIndex(xpub, nil))
	require.True(t, tracker.XpubFromAddress(ownAddr).IsNone())

	txs, err := tracker.AccountTransactions(
		context.Background(), []string{xpub}, nil, "", 10, 0, 0,
	)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	received := txs[0]
	require.Equal(t, "received", received.Hash)
	require.Equal(t, domain.DirectionReceived, received.Direction)
	require.Equal(t, uint64(200000), received.Total)
	require.Equal(t, uint32(11), received.Confirmations)

	sent := txs[1]
	require.Equal(t, domain.DirectionSent, sent.Direction)
	require.Equal(t, uint64(49000), sent.Total)
	require.Equal(t, uint64(1000), sent.Fee)
	require.Equal(t, uint64(49000), sent.OutputsMap[extAddr])

	// cursors move past the highest used receive index
	require.Equal(t, 5, tracker.NextReceiveAddressIndex(xpub, nil))
	require.Equal(t, 1, tracker.NextChangeAddressIndex(xpub))
	require.True(t, tracker.IsOwnHDAddress(own2Addr))
	require.Equal(t, xpub, tracker.XpubFromAddress(ownAddr).UnwrapOr(""))
	require.False(t, tracker.IsOwnHDAddress(extAddr))
}

func TestAccountTransactionsFilters(t *testing.T) {
	srv := newServer(t)
	tracker, err := multiaddress.NewTracker(multiaddress.TrackerOpts{URL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("starting block", func(t *testing.T) {
		txs, err := tracker.AccountTransactions(
			ctx, []string{xpub}, nil, "", 10, 0, 101,
		)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.Equal(t, "sent", txs[0].Hash)
	})

	t.Run("only show", func(t *testing.T) {
		txs, err := tracker.AccountTransactions(
			ctx, []string{xpub, extAddr}, []string{extAddr}, "", 10, 0, 0,
		)
		require.NoError(t, err)
		require.Len(t, txs, 3)
		require.Equal(t, domain.DirectionSent, txs[0].Direction)
		require.Equal(t, domain.DirectionReceived, txs[1].Direction)
		require.Equal(t, domain.DirectionTransferred, txs[2].Direction)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := tracker.AccountTransactions(ctx, nil, nil, "", 10, 0, 0)
		require.Error(t, err)
	})
}

func TestRefreshNeverMovesBackward(t *testing.T) {
	srv := newServer(t)
	tracker, err := multiaddress.NewTracker(multiaddress.TrackerOpts{URL: srv.URL})
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		tracker.IncrementNextReceiveAddress(xpub, nil)
	}
	require.NoError(t, tracker.Refresh(context.Background(), []string{xpub}))
	require.Equal(t, 8, tracker.NextReceiveAddressIndex(xpub, nil))
}

func TestNewTracker(t *testing.T) {
	_, err := multiaddress.NewTracker(multiaddress.TrackerOpts{})
	require.ErrorIs(t, err, multiaddress.ErrMissingURL)
}

func TestReceiveIndexProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tracker, err := multiaddress.NewTracker(
			multiaddress.TrackerOpts{URL: "http://localhost"},
		)
		require.NoError(t, err)

		reserved := rapid.SliceOfN(rapid.IntRange(0, 40), 0, 15).Draw(t, "reserved")
		steps := rapid.IntRange(1, 30).Draw(t, "steps")

		prev := tracker.NextReceiveAddressIndex(xpub, reserved)
		for i := 0; i < steps; i++ {
			require.NotContains(t, reserved, prev)

			tracker.IncrementNextReceiveAddress(xpub, reserved)
			next := tracker.NextReceiveAddressIndex(xpub, reserved)
			require.Greater(t, next, prev)
			prev = next
		}
	})
}
