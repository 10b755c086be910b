package hdwallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// LegacyKey is a standalone (non HD) key pair with its P2PKH address.
type LegacyKey struct {
	WIF     string
	Address string
}

// NewLegacyKey generates a fresh random key for the given network.
func NewLegacyKey(net *chaincfg.Params) (*LegacyKey, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	privkey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return legacyKeyFromPrivKey(privkey, net)
}

// DecodeLegacyKey parses a WIF private key and returns it together with its
// compressed P2PKH address.
func DecodeLegacyKey(wifStr string, net *chaincfg.Params) (*LegacyKey, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	if !wif.IsForNet(net) {
		return nil, ErrInvalidPrivateKey
	}
	addr, err := pubKeyHashAddress(wif.SerializePubKey(), net)
	if err != nil {
		return nil, err
	}
	return &LegacyKey{WIF: wif.String(), Address: addr}, nil
}

// IsWIF returns whether the given string is a plain WIF private key.
func IsWIF(key string) bool {
	_, err := btcutil.DecodeWIF(key)
	return err == nil
}

// PrivateKeyFromWIF returns the signing key encoded in the given WIF string.
func PrivateKeyFromWIF(wifStr string) (*btcec.PrivateKey, error) {
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return wif.PrivKey, nil
}

func legacyKeyFromPrivKey(
	privkey *btcec.PrivateKey, net *chaincfg.Params,
) (*LegacyKey, error) {
	wif, err := btcutil.NewWIF(privkey, net, true)
	if err != nil {
		return nil, err
	}
	addr, err := pubKeyHashAddress(wif.SerializePubKey(), net)
	if err != nil {
		return nil, err
	}
	return &LegacyKey{WIF: wif.String(), Address: addr}, nil
}
