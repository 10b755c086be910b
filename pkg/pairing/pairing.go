// Package pairing decodes the QR code a logged-in device shows to pair a new
// device with the same wallet.
//
// The QR content is "1|<guid>|<encrypted pairing code>". The pairing code is
// encrypted with a password that the remote wallet store hands out for the
// given guid and, once decrypted, reads "<shared key>|<hex password>".
package pairing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

const (
	// Version is the only supported QR format version.
	Version = "1"
	// Iterations is the PBKDF2 iteration count of the pairing code cypher.
	Iterations = 10

	separator = "|"
)

var (
	// ErrMalformedQR ...
	ErrMalformedQR = errors.New("pairing code must be in the form 1|guid|code")
	// ErrUnsupportedVersion ...
	ErrUnsupportedVersion = errors.New("unsupported pairing code version")
	// ErrMalformedPairingCode ...
	ErrMalformedPairingCode = errors.New("decrypted pairing code is malformed")
)

// QRComponents are the parts of a pairing QR code.
type QRComponents struct {
	Guid                 string
	EncryptedPairingCode string
}

// ParseQRComponents splits the raw QR string into its components.
func ParseQRComponents(qr string) (*QRComponents, error) {
	parts := strings.Split(strings.TrimSpace(qr), separator)
	if len(parts) != 3 {
		return nil, ErrMalformedQR
	}
	if parts[0] != Version {
		return nil, ErrUnsupportedVersion
	}
	if parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformedQR
	}
	return &QRComponents{
		Guid:                 parts[1],
		EncryptedPairingCode: parts[2],
	}, nil
}

// Credentials are the secrets transferred by a pairing code.
type Credentials struct {
	SharedKey string
	Password  string
}

// SharedKeyAndPassword decrypts the pairing code with the encryption password
// obtained from the remote wallet store.
func SharedKeyAndPassword(
	encryptedPairingCode, encryptionPassword string,
) (*Credentials, error) {
	decrypted, err := hdwallet.Decrypt(hdwallet.DecryptOpts{
		CypherText: encryptedPairingCode,
		Passphrase: encryptionPassword,
		Iterations: Iterations,
	})
	if err != nil {
		return nil, err
	}

	parts := strings.Split(decrypted, separator)
	if len(parts) != 2 || parts[0] == "" {
		return nil, ErrMalformedPairingCode
	}
	password, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: password is not hex encoded", ErrMalformedPairingCode)
	}
	return &Credentials{SharedKey: parts[0], Password: string(password)}, nil
}

// EncryptPairingCode builds the QR string for the given credentials. It is
// the inverse of ParseQRComponents and SharedKeyAndPassword.
func EncryptPairingCode(
	guid string, creds Credentials, encryptionPassword string,
) (string, error) {
	plaintext := creds.SharedKey + separator + hex.EncodeToString([]byte(creds.Password))
	code, err := hdwallet.Encrypt(hdwallet.EncryptOpts{
		PlainText:  plaintext,
		Passphrase: encryptionPassword,
		Iterations: Iterations,
	})
	if err != nil {
		return "", err
	}
	return strings.Join([]string{Version, guid, code}, separator), nil
}
