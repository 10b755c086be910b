package hdwallet

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestLegacyKey(t *testing.T) {
	key, err := NewLegacyKey(&chaincfg.MainNetParams)
	require.NoError(t, err)
	require.True(t, IsWIF(key.WIF))

	decoded, err := DecodeLegacyKey(key.WIF, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, key, decoded)

	privkey, err := PrivateKeyFromWIF(key.WIF)
	require.NoError(t, err)
	require.NotNil(t, privkey)

	_, err = DecodeLegacyKey(key.WIF, &chaincfg.TestNet3Params)
	require.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = DecodeLegacyKey("notakey", &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
	require.False(t, IsWIF("notakey"))
}
