package ports

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vaultsync/payloadd/internal/core/domain"
)

// PayloadCodec converts wallet documents from and to the encrypted wrapper
// exchanged with the remote wallet store.
type PayloadCodec interface {
	// ParseWalletBase parses the envelope returned by the remote store
	// without decrypting the payload.
	ParseWalletBase(raw string) (*domain.WalletBase, error)
	// DecryptPayload decrypts base.Payload and sets base.Body. It fails with
	// domain.ErrDecryption or domain.ErrUnsupportedVersion.
	DecryptPayload(base *domain.WalletBase, net *chaincfg.Params, password string) error
	// EncryptAndWrapPayload returns the checksum of the wrapper and the
	// wrapper itself.
	EncryptAndWrapPayload(body *domain.Wallet, password string) (string, string, error)
}
