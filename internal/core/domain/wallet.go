package domain

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

// NewWalletOpts is the struct given to NewWallet
type NewWalletOpts struct {
	Label   string
	Network *chaincfg.Params
}

// NewWallet returns a fresh wallet with a new random HD wallet holding a
// single account with the given label. Guid and shared key are random
// UUIDs.
func NewWallet(opts NewWalletOpts) (*Wallet, error) {
	if opts.Network == nil {
		return nil, ErrNullNetwork
	}

	w, err := hdwallet.NewWallet(hdwallet.NewWalletOpts{Network: opts.Network})
	if err != nil {
		return nil, err
	}
	return newWalletWithHD(w, opts.Label)
}

// NewWalletFromMnemonicOpts is the struct given to NewWalletFromMnemonic
type NewWalletFromMnemonicOpts struct {
	Mnemonic string
	Label    string
	Network  *chaincfg.Params
}

// NewWalletFromMnemonic restores the HD wallet for the given recovery phrase
// and wraps it into a fresh wallet document. Errors about the phrase are
// returned untouched.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if opts.Network == nil {
		return nil, ErrNullNetwork
	}

	w, err := hdwallet.NewWalletFromMnemonic(hdwallet.NewWalletFromMnemonicOpts{
		Mnemonic: opts.Mnemonic,
		Network:  opts.Network,
	})
	if err != nil {
		return nil, err
	}
	wallet, err := newWalletWithHD(w, opts.Label)
	if err != nil {
		return nil, err
	}
	// The user just proved to own the phrase.
	wallet.HDWallets[DefaultHDWalletIdx].MnemonicVerified = true
	return wallet, nil
}

func newWalletWithHD(w *hdwallet.Wallet, label string) (*Wallet, error) {
	hd, err := newHDWallet(w, label)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		Guid:      uuid.New().String(),
		SharedKey: uuid.New().String(),
		Options:   defaultOptions(),
		Keys:      []*LegacyAddress{},
		HDWallets: []*HDWallet{hd},
	}, nil
}

func newHDWallet(w *hdwallet.Wallet, label string) (*HDWallet, error) {
	account, err := newAccount(w, 0, label)
	if err != nil {
		return nil, err
	}

	return &HDWallet{
		SeedHex:    w.SeedHex(),
		Passphrase: w.Passphrase(),
		Accounts:   []*Account{account},
		masterKey:  w.MasterKey(),
	}, nil
}

func newAccount(w *hdwallet.Wallet, index uint32, label string) (*Account, error) {
	xpriv, err := w.ExtendedPrivateKey(hdwallet.ExtendedKeyOpts{Account: index})
	if err != nil {
		return nil, err
	}
	xpub, err := w.ExtendedPublicKey(hdwallet.ExtendedKeyOpts{Account: index})
	if err != nil {
		return nil, err
	}

	return &Account{
		Label: label,
		Xpriv: xpriv,
		Xpub:  xpub,
	}, nil
}

func defaultOptions() Options {
	return Options{
		Pbkdf2Iterations:   DefaultPbkdf2Iterations,
		FeePerKb:           DefaultFeePerKb,
		HTML5Notifications: false,
		LogoutTime:         DefaultLogoutTime,
	}
}
