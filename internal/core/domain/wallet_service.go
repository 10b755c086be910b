package domain

import (
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

// IsUpgraded returns whether the wallet has an HD wallet
func (w *Wallet) IsUpgraded() bool {
	return len(w.HDWallets) > 0
}

// HDWallet returns the HD wallet every operation refers to
func (w *Wallet) HDWallet() (*HDWallet, error) {
	if !w.IsUpgraded() {
		return nil, ErrWalletNotUpgraded
	}
	return w.HDWallets[DefaultHDWalletIdx], nil
}

// IsEncryptionConsistent returns whether every private key field of the
// wallet is either plain or double encrypted, as stated by the
// DoubleEncryption flag. A mixed state means the document is corrupted.
func (w *Wallet) IsEncryptionConsistent() bool {
	expectPlain := !w.DoubleEncryption

	for _, key := range w.Keys {
		if key.IsWatchOnly() {
			continue
		}
		if hdwallet.IsWIF(key.PrivateKey) != expectPlain {
			return false
		}
	}

	for _, hd := range w.HDWallets {
		if isPlainSeed(hd.SeedHex) != expectPlain {
			return false
		}
		for _, account := range hd.Accounts {
			if account.Xpriv == "" {
				continue
			}
			if hdwallet.IsExtendedPrivateKey(account.Xpriv) != expectPlain {
				return false
			}
		}
	}
	return true
}

// ActiveXpubs returns the xpubs of all non archived accounts
func (w *Wallet) ActiveXpubs() []string {
	hd, err := w.HDWallet()
	if err != nil {
		return []string{}
	}
	return hd.ActiveXpubs()
}

// NonArchivedLegacyAddressStrings returns every legacy address not tagged as
// archived, in wallet order
func (w *Wallet) NonArchivedLegacyAddressStrings() []string {
	addresses := make([]string, 0, len(w.Keys))
	for _, key := range w.Keys {
		if key.Tag != TagArchived {
			addresses = append(addresses, key.Address)
		}
	}
	return addresses
}

// LegacyAddressStrings returns the addresses of the legacy addresses with the
// given tag, in wallet order
func (w *Wallet) LegacyAddressStrings(tag Tag) []string {
	return FilterLegacyAddresses(tag, w.Keys)
}

// LegacyAddressByString returns the legacy address matching the given string
func (w *Wallet) LegacyAddressByString(address string) fn.Option[*LegacyAddress] {
	if i := w.legacyAddressIndex(address); i >= 0 {
		return fn.Some(w.Keys[i])
	}
	return fn.None[*LegacyAddress]()
}

// LabelFromLegacyAddress returns the label of the given legacy address or
// an empty string if the address is unknown
func (w *Wallet) LabelFromLegacyAddress(address string) string {
	var label string
	w.LegacyAddressByString(address).WhenSome(func(l *LegacyAddress) {
		label = l.Label
	})
	return label
}

// AccountAt returns the account of the HD wallet at the given position
func (w *Wallet) AccountAt(index int) (*Account, error) {
	hd, err := w.HDWallet()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(hd.Accounts) {
		return nil, ErrAccountNotFound
	}
	return hd.Accounts[index], nil
}

// ValidateSecondPassword checks the given password against the stored hash.
// It is a no-op for wallets that are not double encrypted.
func (w *Wallet) ValidateSecondPassword(secondPassword string) error {
	if !w.DoubleEncryption {
		return nil
	}
	if secondPassword == "" {
		return ErrInvalidSecondPassword
	}

	hash, err := hdwallet.HashSecondPassword(hdwallet.SecondPasswordHashOpts{
		SharedKey:      w.SharedKey,
		SecondPassword: secondPassword,
		Iterations:     w.iterations(),
	})
	if err != nil {
		return err
	}
	if hash != w.DpasswordHash {
		return ErrInvalidSecondPassword
	}
	return nil
}

// LoadMasterKey derives the master key of a plain HD wallet from its seed.
// The master key of a double encrypted wallet stays unavailable until
// DecryptHDWallet is called.
func (w *Wallet) LoadMasterKey(net *chaincfg.Params) error {
	if !w.IsUpgraded() || w.DoubleEncryption {
		return nil
	}
	hd := w.HDWallets[DefaultHDWalletIdx]
	return hd.loadMasterKey(hd.SeedHex, net)
}

// DecryptHDWallet validates the second password and makes the master key of
// a double encrypted wallet available
func (w *Wallet) DecryptHDWallet(net *chaincfg.Params, secondPassword string) error {
	if err := w.ValidateSecondPassword(secondPassword); err != nil {
		return err
	}
	hd, err := w.HDWallet()
	if err != nil {
		return err
	}

	seed, err := w.decryptField(hd.SeedHex, secondPassword)
	if err != nil {
		return err
	}
	return hd.loadMasterKey(seed, net)
}

// AddAccount derives the next account of the HD wallet and appends it with
// the given label
func (w *Wallet) AddAccount(
	net *chaincfg.Params, label, secondPassword string,
) (*Account, error) {
	if err := w.ValidateSecondPassword(secondPassword); err != nil {
		return nil, err
	}
	hd, err := w.HDWallet()
	if err != nil {
		return nil, err
	}

	seed, err := w.decryptField(hd.SeedHex, secondPassword)
	if err != nil {
		return nil, err
	}
	tree, err := hdwallet.NewWalletFromSeed(hdwallet.NewWalletFromSeedOpts{
		SeedHex:    seed,
		Passphrase: hd.Passphrase,
		Network:    net,
	})
	if err != nil {
		return nil, err
	}

	account, err := newAccount(tree, uint32(len(hd.Accounts)), label)
	if err != nil {
		return nil, err
	}
	if account.Xpriv, err = w.encryptField(account.Xpriv, secondPassword); err != nil {
		return nil, err
	}

	hd.Accounts = append(hd.Accounts, account)
	return account, nil
}

// UpgradeToHD adds a fresh HD wallet, with a single account named after the
// given label, to a legacy wallet
func (w *Wallet) UpgradeToHD(
	net *chaincfg.Params, secondPassword, label string,
) error {
	if w.IsUpgraded() {
		return ErrWalletAlreadyUpgraded
	}
	if err := w.ValidateSecondPassword(secondPassword); err != nil {
		return err
	}

	tree, err := hdwallet.NewWallet(hdwallet.NewWalletOpts{Network: net})
	if err != nil {
		return err
	}
	hd, err := newHDWallet(tree, label)
	if err != nil {
		return err
	}

	if w.DoubleEncryption {
		if hd.SeedHex, err = w.encryptField(hd.SeedHex, secondPassword); err != nil {
			return err
		}
		for _, account := range hd.Accounts {
			if account.Xpriv, err = w.encryptField(account.Xpriv, secondPassword); err != nil {
				return err
			}
		}
		hd.masterKey = nil
	}

	w.HDWallets = []*HDWallet{hd}
	return nil
}

// EnableDoubleEncryption encrypts every private key field of a plain wallet
// with the given second password and drops the in-memory master key
func (w *Wallet) EnableDoubleEncryption(secondPassword string) error {
	if w.DoubleEncryption {
		return ErrAlreadyDoubleEncrypted
	}
	if secondPassword == "" {
		return ErrInvalidSecondPassword
	}

	hash, err := hdwallet.HashSecondPassword(hdwallet.SecondPasswordHashOpts{
		SharedKey:      w.SharedKey,
		SecondPassword: secondPassword,
		Iterations:     w.iterations(),
	})
	if err != nil {
		return err
	}

	clone := w.Clone()
	clone.DoubleEncryption = true
	clone.DpasswordHash = hash

	for _, key := range clone.Keys {
		if key.IsWatchOnly() {
			continue
		}
		if key.PrivateKey, err = clone.encryptField(key.PrivateKey, secondPassword); err != nil {
			return err
		}
	}
	for _, hd := range clone.HDWallets {
		if hd.SeedHex, err = clone.encryptField(hd.SeedHex, secondPassword); err != nil {
			return err
		}
		for _, account := range hd.Accounts {
			if account.Xpriv, err = clone.encryptField(account.Xpriv, secondPassword); err != nil {
				return err
			}
		}
		hd.masterKey = nil
	}

	*w = *clone
	return nil
}

// AddLegacyAddress appends the given address to the wallet
func (w *Wallet) AddLegacyAddress(address *LegacyAddress) error {
	if err := address.validate(); err != nil {
		return err
	}
	if w.legacyAddressIndex(address.Address) >= 0 {
		return ErrDuplicateLegacyAddress
	}
	w.Keys = append(w.Keys, address)
	return nil
}

// UpdateLegacyAddress replaces the legacy address with the same address
// string
func (w *Wallet) UpdateLegacyAddress(address *LegacyAddress) error {
	if err := address.validate(); err != nil {
		return err
	}
	i := w.legacyAddressIndex(address.Address)
	if i < 0 {
		return ErrLegacyAddressNotFound
	}
	w.Keys[i] = address
	return nil
}

// SetKeyForLegacyAddress sets the given WIF key on the legacy address it
// belongs to. The returned option is empty when no legacy address matches
// the key.
func (w *Wallet) SetKeyForLegacyAddress(
	net *chaincfg.Params, wif, secondPassword string,
) (fn.Option[*LegacyAddress], error) {
	none := fn.None[*LegacyAddress]()
	if err := w.ValidateSecondPassword(secondPassword); err != nil {
		return none, err
	}

	key, err := hdwallet.DecodeLegacyKey(wif, net)
	if err != nil {
		return none, err
	}
	i := w.legacyAddressIndex(key.Address)
	if i < 0 {
		return none, nil
	}

	privkey, err := w.encryptField(key.WIF, secondPassword)
	if err != nil {
		return none, err
	}
	w.Keys[i].PrivateKey = privkey
	return fn.Some(w.Keys[i]), nil
}

// AddLegacyAddressFromKey appends a new imported legacy address for the
// given WIF key
func (w *Wallet) AddLegacyAddressFromKey(
	net *chaincfg.Params, wif, secondPassword string, device Device,
) (*LegacyAddress, error) {
	if err := w.ValidateSecondPassword(secondPassword); err != nil {
		return nil, err
	}

	key, err := hdwallet.DecodeLegacyKey(wif, net)
	if err != nil {
		return nil, err
	}
	privkey, err := w.encryptField(key.WIF, secondPassword)
	if err != nil {
		return nil, err
	}

	address := &LegacyAddress{
		Address:              key.Address,
		PrivateKey:           privkey,
		Tag:                  TagImported,
		CreatedTime:          time.Now().UnixMilli(),
		CreatedDeviceName:    device.Name,
		CreatedDeviceVersion: device.Version,
	}
	if err := w.AddLegacyAddress(address); err != nil {
		return nil, err
	}
	return address, nil
}

// LegacyPrivateKey returns the signing key of the given legacy address. The
// second password is validated before any key material is touched.
func (w *Wallet) LegacyPrivateKey(
	address *LegacyAddress, net *chaincfg.Params, secondPassword string,
) (*btcec.PrivateKey, error) {
	if err := w.ValidateSecondPassword(secondPassword); err != nil {
		return nil, err
	}
	if address.IsWatchOnly() {
		return nil, hdwallet.ErrInvalidPrivateKey
	}

	wif, err := w.decryptField(address.PrivateKey, secondPassword)
	if err != nil {
		return nil, err
	}
	key, err := hdwallet.DecodeLegacyKey(wif, net)
	if err != nil {
		return nil, err
	}
	if key.Address != address.Address {
		return nil, hdwallet.ErrKeyAddressMismatch
	}
	return hdwallet.PrivateKeyFromWIF(wif)
}

// Clone returns a deep copy of the wallet. The HD master keys are shared
// since they are never mutated.
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}

	clone := *w
	clone.Keys = make([]*LegacyAddress, 0, len(w.Keys))
	for _, key := range w.Keys {
		k := *key
		clone.Keys = append(clone.Keys, &k)
	}

	if w.HDWallets != nil {
		clone.HDWallets = make([]*HDWallet, 0, len(w.HDWallets))
		for _, hd := range w.HDWallets {
			clone.HDWallets = append(clone.HDWallets, hd.clone())
		}
	}
	return &clone
}

func (w *Wallet) legacyAddressIndex(address string) int {
	for i, key := range w.Keys {
		if key.Address == address {
			return i
		}
	}
	return -1
}

func (w *Wallet) iterations() int {
	if w.Options.Pbkdf2Iterations <= 0 {
		return DefaultPbkdf2Iterations
	}
	return w.Options.Pbkdf2Iterations
}

func (w *Wallet) encryptField(text, secondPassword string) (string, error) {
	if !w.DoubleEncryption {
		return text, nil
	}
	return hdwallet.DoubleEncrypt(hdwallet.DoubleEncryptOpts{
		Text:           text,
		SharedKey:      w.SharedKey,
		SecondPassword: secondPassword,
		Iterations:     w.iterations(),
	})
}

func (w *Wallet) decryptField(text, secondPassword string) (string, error) {
	if !w.DoubleEncryption {
		return text, nil
	}
	return hdwallet.DoubleDecrypt(hdwallet.DoubleEncryptOpts{
		Text:           text,
		SharedKey:      w.SharedKey,
		SecondPassword: secondPassword,
		Iterations:     w.iterations(),
	})
}

func isPlainSeed(seed string) bool {
	entropy, err := hex.DecodeString(seed)
	if err != nil {
		return false
	}
	return len(entropy) >= 16 && len(entropy) <= 32
}
