package hdwallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

const (
	// ReceiveChain is the external branch of a BIP44 account
	ReceiveChain uint32 = 0
	// ChangeChain is the internal branch of a BIP44 account
	ChangeChain uint32 = 1
)

// ExtendedKeyOpts is the struct given to
// ExtendedPrivateKey and ExtendedPublicKey methods
type ExtendedKeyOpts struct {
	Account uint32
}

func (o ExtendedKeyOpts) validate() error {
	if o.Account > MaxHardenedValue {
		return ErrOutOfRangeAccount
	}
	return nil
}

// ExtendedPrivateKey returns the extended private key in base58 format for
// the provided account index
func (w *Wallet) ExtendedPrivateKey(opts ExtendedKeyOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	accountKey, err := w.accountKey(opts.Account)
	if err != nil {
		return "", err
	}
	return accountKey.String(), nil
}

// ExtendedPublicKey returns the extended public key in base58 format for the
// provided account index
func (w *Wallet) ExtendedPublicKey(opts ExtendedKeyOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	accountKey, err := w.accountKey(opts.Account)
	if err != nil {
		return "", err
	}
	xpub, err := accountKey.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

func (w *Wallet) accountKey(account uint32) (*hdkeychain.ExtendedKey, error) {
	path, err := AccountDerivationPath(account)
	if err != nil {
		return nil, err
	}

	hdNode := w.masterKey
	for _, step := range path {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("deriving %s: %w", path, err)
		}
	}
	return hdNode, nil
}

// DeriveAddressOpts is the struct given to DeriveAddress method
type DeriveAddressOpts struct {
	ExtendedKey string
	Chain       uint32
	Index       uint32
	Network     *chaincfg.Params
}

func (o DeriveAddressOpts) validate() error {
	if len(o.ExtendedKey) <= 0 {
		return ErrNullExtendedKey
	}
	if o.Chain != ReceiveChain && o.Chain != ChangeChain {
		return ErrInvalidChain
	}
	if o.Index >= hdkeychain.HardenedKeyStart {
		return ErrOutOfRangeIndex
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// DeriveAddress derives the P2PKH address at account/chain/index from an
// account extended key, either public or private
func DeriveAddress(opts DeriveAddressOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	hdNode, err := deriveChild(opts.ExtendedKey, opts.Chain, opts.Index)
	if err != nil {
		return "", err
	}
	pubkey, err := hdNode.ECPubKey()
	if err != nil {
		return "", err
	}
	return pubKeyHashAddress(pubkey.SerializeCompressed(), opts.Network)
}

// DeriveAddressesOpts is the struct given to DeriveAddresses method
type DeriveAddressesOpts struct {
	ExtendedKey string
	Chain       uint32
	From        uint32
	To          uint32
	Network     *chaincfg.Params
}

// DeriveAddresses derives all the addresses in range [From, To) of the given
// chain
func DeriveAddresses(opts DeriveAddressesOpts) ([]string, error) {
	if opts.To < opts.From {
		return nil, ErrOutOfRangeIndex
	}

	addresses := make([]string, 0, opts.To-opts.From)
	for i := opts.From; i < opts.To; i++ {
		addr, err := DeriveAddress(DeriveAddressOpts{
			ExtendedKey: opts.ExtendedKey,
			Chain:       opts.Chain,
			Index:       i,
			Network:     opts.Network,
		})
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// IsExtendedPrivateKey returns whether the given string is a plain extended
// private key
func IsExtendedPrivateKey(key string) bool {
	hdNode, err := hdkeychain.NewKeyFromString(key)
	if err != nil {
		return false
	}
	return hdNode.IsPrivate()
}

func deriveChild(
	extendedKey string, chain, index uint32,
) (*hdkeychain.ExtendedKey, error) {
	hdNode, err := hdkeychain.NewKeyFromString(extendedKey)
	if err != nil {
		return nil, err
	}
	for _, step := range []uint32{chain, index} {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, err
		}
	}
	return hdNode, nil
}

func pubKeyHashAddress(pubkey []byte, net *chaincfg.Params) (string, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubkey), net)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
