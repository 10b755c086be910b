package hdwallet

import (
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullExtendedKey ...
	ErrNullExtendedKey = errors.New("extended key must not be null")

	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidSeed ...
	ErrInvalidSeed = errors.New("seed must be a valid hex entropy")
	// ErrInvalidIterations ...
	ErrInvalidIterations = errors.New("key derivation iterations must be positive")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrInvalidPrivateKey ...
	ErrInvalidPrivateKey = errors.New("private key must be in WIF format")
	// ErrInvalidChain ...
	ErrInvalidChain = errors.New("chain must be either receive (0) or change (1)")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrOutOfRangeAccount ...
	ErrOutOfRangeAccount = errors.New("account index out of hardened range")
	// ErrOutOfRangeIndex ...
	ErrOutOfRangeIndex = errors.New("address index must be in range [0, 2^31)")

	// ErrMnemonicLength is returned when the recovery phrase does not have
	// 12, 15, 18, 21 or 24 words.
	ErrMnemonicLength = errors.New("mnemonic has an invalid number of words")
	// ErrMnemonicWord is returned when a word of the recovery phrase is not in
	// the BIP39 english word list.
	ErrMnemonicWord = errors.New("mnemonic contains an unknown word")
	// ErrMnemonicChecksum is returned when the recovery phrase words are all
	// valid but the embedded checksum does not match.
	ErrMnemonicChecksum = errors.New("mnemonic checksum mismatch")

	// ErrDecryptionFailed is returned when the cypher cannot be opened with the
	// given passphrase.
	ErrDecryptionFailed = errors.New("unable to decrypt cypher with given passphrase")
	// ErrKeyAddressMismatch ...
	ErrKeyAddressMismatch = errors.New("private key does not match address")
)

// Wallet holds the entropy of a BIP39 seed and the BIP32 master key derived
// from it. Accounts are derived at m/44'/0'/account'.
type Wallet struct {
	entropy    []byte
	passphrase string
	masterKey  *hdkeychain.ExtendedKey
}

// NewWalletOpts is the struct given to the NewWallet method
type NewWalletOpts struct {
	EntropySize int
	Network     *chaincfg.Params
}

func (o NewWalletOpts) validate() error {
	if o.EntropySize != 0 &&
		(o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0) {
		return ErrInvalidEntropySize
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewWallet creates a new wallet from fresh random entropy
func NewWallet(opts NewWalletOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	size := opts.EntropySize
	if size == 0 {
		size = 128
	}

	entropy, err := bip39.NewEntropy(size)
	if err != nil {
		return nil, err
	}
	return newWallet(entropy, "", opts.Network)
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method
type NewWalletFromMnemonicOpts struct {
	Mnemonic   string
	Passphrase string
	Network    *chaincfg.Params
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if err := ValidateMnemonic(o.Mnemonic); err != nil {
		return err
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewWalletFromMnemonic restores the wallet for the given recovery phrase.
// Any problem with the phrase is reported with one of ErrMnemonicLength,
// ErrMnemonicWord or ErrMnemonicChecksum.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	entropy, err := bip39.EntropyFromMnemonic(normalizeMnemonic(opts.Mnemonic))
	if err != nil {
		return nil, ErrMnemonicChecksum
	}
	return newWallet(entropy, opts.Passphrase, opts.Network)
}

// NewWalletFromSeedOpts is the struct given to the NewWalletFromSeed method
type NewWalletFromSeedOpts struct {
	SeedHex    string
	Passphrase string
	Network    *chaincfg.Params
}

func (o NewWalletFromSeedOpts) validate() error {
	if len(o.SeedHex) <= 0 {
		return ErrNullSeed
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewWalletFromSeed restores the wallet from the hex encoded entropy stored
// in a wallet document
func NewWalletFromSeed(opts NewWalletFromSeedOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	entropy, err := hex.DecodeString(opts.SeedHex)
	if err != nil {
		return nil, ErrInvalidSeed
	}
	return newWallet(entropy, opts.Passphrase, opts.Network)
}

func newWallet(
	entropy []byte, passphrase string, net *chaincfg.Params,
) (*Wallet, error) {
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, ErrInvalidSeed
	}
	seed := bip39.NewSeed(mnemonic, passphrase)

	masterKey, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		entropy:    entropy,
		passphrase: passphrase,
		masterKey:  masterKey,
	}, nil
}

// SeedHex returns the hex encoded entropy of the wallet
func (w *Wallet) SeedHex() string {
	return hex.EncodeToString(w.entropy)
}

// Passphrase returns the optional BIP39 passphrase
func (w *Wallet) Passphrase() string {
	return w.passphrase
}

// Mnemonic returns the recovery phrase of the wallet
func (w *Wallet) Mnemonic() (string, error) {
	return bip39.NewMnemonic(w.entropy)
}

// MasterKey is getter for the BIP32 master key
func (w *Wallet) MasterKey() *hdkeychain.ExtendedKey {
	return w.masterKey
}
