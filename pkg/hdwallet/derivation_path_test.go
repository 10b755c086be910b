package hdwallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/require"
)

func TestAccountDerivationPath(t *testing.T) {
	path, err := AccountDerivationPath(3)
	require.NoError(t, err)
	require.Equal(t, "m/44'/0'/3'", path.String())

	require.Equal(t, DerivationPath{
		hdkeychain.HardenedKeyStart + 44, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart + 3,
	}, path)
	require.Empty(t, DerivationPath{}.String())

	_, err = AccountDerivationPath(MaxHardenedValue + 1)
	require.ErrorIs(t, err, ErrOutOfRangeAccount)
}

func TestParseAccountPath(t *testing.T) {
	chain, index, err := ParseAccountPath("M/0/12")
	require.NoError(t, err)
	require.Equal(t, ReceiveChain, chain)
	require.Equal(t, uint32(12), index)

	chain, index, err = ParseAccountPath("M/1/0")
	require.NoError(t, err)
	require.Equal(t, ChangeChain, chain)
	require.Zero(t, index)

	tests := []struct {
		path string
		err  error
	}{
		{"m/0/1", ErrMalformedDerivationPath},
		{"M/0", ErrMalformedDerivationPath},
		{"M/0/1/2", ErrMalformedDerivationPath},
		{"M/0/x", ErrInvalidDerivationPath},
		{"M/0/1'", ErrInvalidDerivationPath},
		{"M/2/1", ErrInvalidChain},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, _, err := ParseAccountPath(tt.path)
			require.ErrorIs(t, err, tt.err)
		})
	}
}
