package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

func TestFilterLegacyAddresses(t *testing.T) {
	t.Parallel()

	list := []*domain.LegacyAddress{
		{Address: "a", Tag: domain.TagNormal},
		{Address: "b", Tag: domain.TagArchived},
		{Address: "c", Tag: domain.TagImported},
		{Address: "d", Tag: domain.TagNormal},
		{Address: "e", Tag: domain.TagImported},
	}

	normal := domain.FilterLegacyAddresses(domain.TagNormal, list)
	imported := domain.FilterLegacyAddresses(domain.TagImported, list)
	archived := domain.FilterLegacyAddresses(domain.TagArchived, list)

	require.Equal(t, []string{"a", "d"}, normal)
	require.Equal(t, []string{"c", "e"}, imported)
	require.Equal(t, []string{"b"}, archived)
	require.Len(t, list, len(normal)+len(imported)+len(archived))

	w := &domain.Wallet{Keys: list}
	require.Equal(t, []string{"a", "c", "d", "e"}, w.NonArchivedLegacyAddressStrings())
}

func TestAddAndUpdateLegacyAddress(t *testing.T) {
	t.Parallel()

	w := newTestWallet(t)
	require.NoError(t, w.AddLegacyAddress(&domain.LegacyAddress{Address: "1abc", Label: "old"}))
	require.ErrorIs(
		t, w.AddLegacyAddress(&domain.LegacyAddress{Address: "1abc"}),
		domain.ErrDuplicateLegacyAddress,
	)
	require.ErrorIs(t, w.AddLegacyAddress(&domain.LegacyAddress{}), domain.ErrNullAddress)
	require.ErrorIs(
		t, w.AddLegacyAddress(&domain.LegacyAddress{Address: "1x", Tag: 7}),
		domain.ErrInvalidTag,
	)

	require.NoError(t, w.UpdateLegacyAddress(&domain.LegacyAddress{Address: "1abc", Label: "new"}))
	require.Equal(t, "new", w.LabelFromLegacyAddress("1abc"))
	require.Empty(t, w.LabelFromLegacyAddress("unknown"))

	require.ErrorIs(
		t, w.UpdateLegacyAddress(&domain.LegacyAddress{Address: "1zzz"}),
		domain.ErrLegacyAddressNotFound,
	)
	require.True(t, w.LegacyAddressByString("1abc").IsSome())
	require.True(t, w.LegacyAddressByString("1zzz").IsNone())
}

func TestSetKeyForLegacyAddress(t *testing.T) {
	t.Parallel()

	w := newTestWallet(t)
	key, err := hdwallet.NewLegacyKey(net)
	require.NoError(t, err)

	match, err := w.SetKeyForLegacyAddress(net, key.WIF, "")
	require.NoError(t, err)
	require.True(t, match.IsNone())

	require.NoError(t, w.AddLegacyAddress(&domain.LegacyAddress{Address: key.Address}))
	match, err = w.SetKeyForLegacyAddress(net, key.WIF, "")
	require.NoError(t, err)
	require.True(t, match.IsSome())
	require.Equal(t, key.WIF, w.Keys[0].PrivateKey)

	_, err = w.SetKeyForLegacyAddress(net, "notakey", "")
	require.ErrorIs(t, err, hdwallet.ErrInvalidPrivateKey)
}

func TestAddLegacyAddressFromKey(t *testing.T) {
	t.Parallel()

	w := newTestWallet(t)
	w.Options.Pbkdf2Iterations = 10
	require.NoError(t, w.EnableDoubleEncryption("second"))

	key, err := hdwallet.NewLegacyKey(net)
	require.NoError(t, err)
	device := domain.Device{Name: "test-device", Version: "1.0"}

	_, err = w.AddLegacyAddressFromKey(net, key.WIF, "wrong", device)
	require.ErrorIs(t, err, domain.ErrInvalidSecondPassword)
	require.Empty(t, w.Keys)

	added, err := w.AddLegacyAddressFromKey(net, key.WIF, "second", device)
	require.NoError(t, err)
	require.Equal(t, key.Address, added.Address)
	require.Equal(t, domain.TagImported, added.Tag)
	require.Equal(t, "test-device", added.CreatedDeviceName)
	require.NotEqual(t, key.WIF, added.PrivateKey)
	require.True(t, w.IsEncryptionConsistent())

	_, err = w.LegacyPrivateKey(added, net, "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidSecondPassword)

	privkey, err := w.LegacyPrivateKey(added, net, "second")
	require.NoError(t, err)
	expected, err := hdwallet.PrivateKeyFromWIF(key.WIF)
	require.NoError(t, err)
	require.Equal(t, expected.Serialize(), privkey.Serialize())

	_, err = w.AddLegacyAddressFromKey(net, key.WIF, "second", device)
	require.ErrorIs(t, err, domain.ErrDuplicateLegacyAddress)
}
