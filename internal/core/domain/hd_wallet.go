package domain

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

// ActiveXpubs returns the xpubs of the non archived accounts
func (hd *HDWallet) ActiveXpubs() []string {
	xpubs := make([]string, 0, len(hd.Accounts))
	for _, account := range hd.Accounts {
		if !account.Archived {
			xpubs = append(xpubs, account.Xpub)
		}
	}
	return xpubs
}

// LabelFromXpub returns the label of the account with the given xpub
func (hd *HDWallet) LabelFromXpub(xpub string) string {
	for _, account := range hd.Accounts {
		if account.Xpub == xpub {
			return account.Label
		}
	}
	return ""
}

// MasterKey returns the BIP32 master key, unavailable for double encrypted
// wallets until decrypted with the second password
func (hd *HDWallet) MasterKey() (*hdkeychain.ExtendedKey, error) {
	if hd.masterKey == nil {
		return nil, ErrMasterKeyUnavailable
	}
	return hd.masterKey, nil
}

// HasMasterKey ...
func (hd *HDWallet) HasMasterKey() bool {
	return hd.masterKey != nil
}

func (hd *HDWallet) loadMasterKey(seedHex string, net *chaincfg.Params) error {
	if net == nil {
		return ErrNullNetwork
	}
	tree, err := hdwallet.NewWalletFromSeed(hdwallet.NewWalletFromSeedOpts{
		SeedHex:    seedHex,
		Passphrase: hd.Passphrase,
		Network:    net,
	})
	if err != nil {
		return err
	}
	hd.masterKey = tree.MasterKey()
	return nil
}

func (hd *HDWallet) clone() *HDWallet {
	clone := *hd
	clone.Accounts = make([]*Account, 0, len(hd.Accounts))
	for _, account := range hd.Accounts {
		clone.Accounts = append(clone.Accounts, account.clone())
	}
	return &clone
}
