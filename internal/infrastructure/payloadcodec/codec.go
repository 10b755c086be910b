package payloadcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

const (
	// SupportedVersion is the most recent wrapper version this codec reads
	// and the one it writes
	SupportedVersion = 4
)

var (
	// ErrMissingPayload ...
	ErrMissingPayload = errors.New("envelope has no payload")
	// ErrMalformedEnvelope ...
	ErrMalformedEnvelope = errors.New("malformed wallet envelope")
	// ErrMalformedWrapper ...
	ErrMalformedWrapper = errors.New("malformed payload wrapper")
)

// Wrapper is the JSON document wrapping the encrypted wallet.
type Wrapper struct {
	Version          int    `json:"version"`
	Pbkdf2Iterations int    `json:"pbkdf2_iterations"`
	Payload          string `json:"payload"`
}

// Checksum returns the hex encoded sha256 of the encrypted payload
func (w Wrapper) Checksum() string {
	hash := sha256.Sum256([]byte(w.Payload))
	return hex.EncodeToString(hash[:])
}

// ParseWrapper parses a serialized wrapper
func ParseWrapper(raw string) (*Wrapper, error) {
	var w Wrapper
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedWrapper, err)
	}
	if w.Payload == "" {
		return nil, ErrMissingPayload
	}
	return &w, nil
}

type codec struct{}

// NewCodec returns the JSON and AES-GCM payload codec.
func NewCodec() ports.PayloadCodec {
	return codec{}
}

func (codec) ParseWalletBase(raw string) (*domain.WalletBase, error) {
	var base domain.WalletBase
	if err := json.Unmarshal([]byte(raw), &base); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEnvelope, err)
	}
	if base.Payload == "" {
		return nil, ErrMissingPayload
	}
	return &base, nil
}

func (codec) DecryptPayload(
	base *domain.WalletBase, net *chaincfg.Params, password string,
) error {
	if net == nil {
		return domain.ErrNullNetwork
	}

	wrapper, err := ParseWrapper(base.Payload)
	if err != nil {
		return err
	}
	if wrapper.Version > SupportedVersion {
		return fmt.Errorf(
			"%w: %d > %d", domain.ErrUnsupportedVersion,
			wrapper.Version, SupportedVersion,
		)
	}

	plaintext, err := hdwallet.Decrypt(hdwallet.DecryptOpts{
		CypherText: wrapper.Payload,
		Passphrase: password,
		Iterations: wrapper.Pbkdf2Iterations,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrDecryption, err)
	}

	var body domain.Wallet
	if err := json.Unmarshal([]byte(plaintext), &body); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedWrapper, err)
	}
	if body.Keys == nil {
		body.Keys = []*domain.LegacyAddress{}
	}
	if err := body.LoadMasterKey(net); err != nil {
		return err
	}

	if base.PayloadChecksum == "" {
		base.PayloadChecksum = wrapper.Checksum()
	}
	if base.Guid == "" {
		base.Guid = body.Guid
	}
	base.Body = &body
	return nil
}

func (codec) EncryptAndWrapPayload(
	body *domain.Wallet, password string,
) (string, string, error) {
	plaintext, err := json.Marshal(body)
	if err != nil {
		return "", "", err
	}

	iterations := body.Options.Pbkdf2Iterations
	if iterations <= 0 {
		iterations = hdwallet.DefaultIterations
	}
	cypher, err := hdwallet.Encrypt(hdwallet.EncryptOpts{
		PlainText:  string(plaintext),
		Passphrase: password,
		Iterations: iterations,
	})
	if err != nil {
		return "", "", err
	}

	wrapper := Wrapper{
		Version:          SupportedVersion,
		Pbkdf2Iterations: iterations,
		Payload:          cypher,
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return "", "", err
	}
	return wrapper.Checksum(), string(raw), nil
}
