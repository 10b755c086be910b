package payload_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultsync/payloadd/internal/core/application/payload"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

func TestSaveConfirmsChecksum(t *testing.T) {
	env := newTestEnv(t, envOpts{})
	body := env.create(t)

	seen := map[string]struct{}{env.svc.PayloadChecksum(): {}}
	for i := 0; i < 3; i++ {
		ok, err := env.svc.Save(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		checksum := env.svc.PayloadChecksum()
		require.Equal(t, env.store.Checksum(body.Guid), checksum)
		require.NotContains(t, seen, checksum)
		seen[checksum] = struct{}{}
	}
}

func TestSaveFailures(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		env := newTestEnv(t, envOpts{})
		ok, err := env.svc.Save(ctx)
		require.ErrorIs(t, err, payload.ErrWalletNotInitialized)
		require.False(t, ok)
		require.Zero(t, env.store.updateCount())
	})

	t.Run("rejected", func(t *testing.T) {
		env := newTestEnv(t, envOpts{})
		env.create(t)
		checksum := env.svc.PayloadChecksum()

		env.store.setRejectUpdates(true)
		ok, err := env.svc.Save(ctx)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, checksum, env.svc.PayloadChecksum())
	})

	t.Run("transport failure", func(t *testing.T) {
		env := newTestEnv(t, envOpts{})
		env.create(t)
		checksum := env.svc.PayloadChecksum()

		env.store.setFailTransport(true)
		ok, err := env.svc.Save(ctx)
		require.ErrorIs(t, err, errTransport)
		require.False(t, ok)
		require.Equal(t, checksum, env.svc.PayloadChecksum())
	})

	t.Run("inconsistent encryption", func(t *testing.T) {
		env := newTestEnv(t, envOpts{})
		corrupted, err := domain.NewWallet(domain.NewWalletOpts{
			Label:   testLabel,
			Network: testNet,
		})
		require.NoError(t, err)
		corrupted.DoubleEncryption = true
		env.insert(t, corrupted)
		env.load(t, corrupted)

		ok, err := env.svc.Save(ctx)
		require.ErrorIs(t, err, payload.ErrInconsistentEncryption)
		require.False(t, ok)
		require.Zero(t, env.store.updateCount())
	})
}

func TestOptimisticConcurrency(t *testing.T) {
	first := newTestEnv(t, envOpts{})
	body := first.create(t)

	second := newTestEnv(t, envOpts{store: first.store})
	second.load(t, body)
	stale := second.svc.PayloadChecksum()

	_, err := first.svc.AddAccount(ctx, "Savings", "")
	require.NoError(t, err)

	ok, err := second.svc.Save(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, stale, second.svc.PayloadChecksum())

	_, err = second.svc.AddAccount(ctx, "Spending", "")
	require.ErrorIs(t, err, payload.ErrSaveFailed)
	require.Len(t, second.svc.Payload().ActiveXpubs(), 1)
	require.Equal(t, first.svc.PayloadChecksum(), first.store.Checksum(body.Guid))

	// reloading picks up the other device changes
	second.load(t, body)
	require.Len(t, second.svc.Payload().ActiveXpubs(), 2)
	ok, err = second.svc.Save(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConcurrentMutations(t *testing.T) {
	env := newTestEnv(t, envOpts{})
	env.create(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.AddAccount(ctx, "account", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, env.svc.Payload().ActiveXpubs(), 5)
}

func TestRevertOnRejectedSave(t *testing.T) {
	env := newTestEnv(t, envOpts{})
	env.create(t)

	watchOnly, err := hdwallet.NewLegacyKey(testNet)
	require.NoError(t, err)
	require.NoError(t, env.svc.AddLegacyAddress(ctx, domain.LegacyAddress{
		Address: watchOnly.Address,
		Label:   "cold",
		Tag:     domain.TagNormal,
	}))

	before := env.svc.Payload()
	checksum := env.svc.PayloadChecksum()

	env.store.setRejectUpdates(true)

	_, err = env.svc.AddAccount(ctx, "Savings", "")
	require.ErrorIs(t, err, payload.ErrSaveFailed)

	err = env.svc.UpdateLegacyAddress(ctx, domain.LegacyAddress{
		Address: watchOnly.Address,
		Label:   "archived cold",
		Tag:     domain.TagArchived,
	})
	require.ErrorIs(t, err, payload.ErrSaveFailed)

	_, err = env.svc.SetKeyForLegacyAddress(ctx, watchOnly.WIF, "")
	require.ErrorIs(t, err, payload.ErrSaveFailed)

	err = env.svc.EnableSecondPassword(ctx, testSecondPassword)
	require.ErrorIs(t, err, payload.ErrSaveFailed)

	key, err := hdwallet.NewLegacyKey(testNet)
	require.NoError(t, err)
	err = env.svc.AddLegacyAddress(ctx, domain.LegacyAddress{
		Address: key.Address,
		Tag:     domain.TagNormal,
	})
	require.ErrorIs(t, err, payload.ErrSaveFailed)

	_, err = env.svc.AddLegacyAddressFromKey(ctx, key.WIF, "")
	require.ErrorIs(t, err, payload.ErrSaveFailed)

	require.Equal(t, before, env.svc.Payload())
	require.Equal(t, checksum, env.svc.PayloadChecksum())
	require.Equal(t, "cold", env.svc.LabelFromAddress(watchOnly.Address))
	require.False(t, env.svc.Payload().DoubleEncryption)

	env.store.setRejectUpdates(false)
	env.store.setFailTransport(true)
	_, err = env.svc.AddAccount(ctx, "Savings", "")
	require.ErrorIs(t, err, errTransport)
	require.Equal(t, before, env.svc.Payload())
}

func TestSyncAddresses(t *testing.T) {
	env := newTestEnv(t, envOpts{})
	body := env.create(t)

	require.NoError(t, env.svc.ReserveAddress(ctx, 0, 1, "order-1"))

	key, err := hdwallet.NewLegacyKey(testNet)
	require.NoError(t, err)
	require.NoError(t, env.svc.AddLegacyAddress(ctx, domain.LegacyAddress{
		Address: key.Address,
		Tag:     domain.TagNormal,
	}))
	require.NoError(t, env.svc.AddLegacyAddress(ctx, domain.LegacyAddress{
		Address: "1ArchivedAddress",
		Tag:     domain.TagArchived,
	}))
	require.Empty(t, env.store.SyncAddresses(body.Guid))

	ok, err := env.svc.SaveAndSyncPubKeys(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	account, err := env.svc.Payload().AccountAt(0)
	require.NoError(t, err)
	expected := make([]string, 0, testLookahead+1)
	for _, i := range []int{0, 2, 3, 4, 5} {
		addr, err := account.ReceiveAddressAt(testNet, i)
		require.NoError(t, err)
		expected = append(expected, addr)
	}
	expected = append(expected, key.Address)

	require.Equal(t, expected, env.store.SyncAddresses(body.Guid))
}
