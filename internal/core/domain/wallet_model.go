package domain

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

const (
	// DefaultHDWalletIdx is the index of the HD wallet every operation
	// refers to. Wallet documents can list more than one, but only the first
	// is ever used.
	DefaultHDWalletIdx = 0
	// DefaultPbkdf2Iterations ...
	DefaultPbkdf2Iterations = hdwallet.DefaultIterations
	// DefaultFeePerKb in satoshi
	DefaultFeePerKb = 10000
	// DefaultLogoutTime in milliseconds
	DefaultLogoutTime = 600000
)

// Tag classifies a legacy address. Every legacy address carries exactly one.
type Tag int

const (
	TagNormal Tag = iota
	TagImported
	TagArchived
)

func (t Tag) isValid() bool {
	return t >= TagNormal && t <= TagArchived
}

func (t Tag) String() string {
	switch t {
	case TagNormal:
		return "normal"
	case TagImported:
		return "imported"
	case TagArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Wallet is the decrypted wallet document.
type Wallet struct {
	Guid             string           `json:"guid"`
	SharedKey        string           `json:"sharedKey"`
	DoubleEncryption bool             `json:"double_encryption"`
	DpasswordHash    string           `json:"dpasswordhash,omitempty"`
	Options          Options          `json:"options"`
	Keys             []*LegacyAddress `json:"keys"`
	HDWallets        []*HDWallet      `json:"hd_wallets,omitempty"`
}

// Options are the wallet-wide settings.
type Options struct {
	Pbkdf2Iterations   int    `json:"pbkdf2_iterations"`
	FeePerKb           uint64 `json:"fee_per_kb"`
	HTML5Notifications bool   `json:"html5_notifications"`
	LogoutTime         int64  `json:"logout_time"`
}

// HDWallet holds the seed of the key tree and its accounts. SeedHex and the
// accounts' Xpriv are double encrypted when the owning wallet is.
type HDWallet struct {
	SeedHex           string     `json:"seed_hex"`
	Passphrase        string     `json:"passphrase"`
	MnemonicVerified  bool       `json:"mnemonic_verified"`
	DefaultAccountIdx int        `json:"default_account_idx"`
	Accounts          []*Account `json:"accounts"`

	masterKey *hdkeychain.ExtendedKey
}

// Account is a BIP44 account of the HD wallet.
type Account struct {
	Label         string         `json:"label"`
	Archived      bool           `json:"archived"`
	Xpriv         string         `json:"xpriv"`
	Xpub          string         `json:"xpub"`
	AddressLabels []AddressLabel `json:"address_labels,omitempty"`
}

// AddressLabel marks a receive index as reserved for the given purpose.
type AddressLabel struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// LegacyAddress is a standalone, non HD, address. PrivateKey is empty for
// watch-only addresses.
type LegacyAddress struct {
	Address              string `json:"addr"`
	PrivateKey           string `json:"priv,omitempty"`
	Label                string `json:"label,omitempty"`
	Tag                  Tag    `json:"tag"`
	CreatedTime          int64  `json:"created_time,omitempty"`
	CreatedDeviceName    string `json:"created_device_name,omitempty"`
	CreatedDeviceVersion string `json:"created_device_version,omitempty"`
}

// WalletBase is the envelope stored by the remote wallet store. Payload is
// the encrypted wrapper and Body is its decrypted content.
type WalletBase struct {
	Guid            string `json:"guid"`
	Payload         string `json:"payload"`
	PayloadChecksum string `json:"payload_checksum"`
	SyncPubkeys     bool   `json:"sync_pubkeys"`
	Language        string `json:"language,omitempty"`
	WarChecksum     string `json:"war_checksum,omitempty"`

	Body *Wallet `json:"-"`
}

// Device identifies the device creating legacy addresses.
type Device struct {
	Name    string
	Version string
}
