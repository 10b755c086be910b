package domain

import "errors"

var (
	// ErrDecryption is returned when a payload can not be decrypted with the
	// given password, either because the password is wrong or because the
	// cypher is corrupted.
	ErrDecryption = errors.New("unable to decrypt payload with given password")
	// ErrUnsupportedVersion is returned when the payload wrapper version is
	// newer than the supported one.
	ErrUnsupportedVersion = errors.New("unsupported payload version")
	// ErrInvalidSecondPassword ...
	ErrInvalidSecondPassword = errors.New("second password is not valid")
	// ErrMasterKeyUnavailable is returned when the HD master key is requested
	// for a double encrypted wallet that has not been decrypted yet.
	ErrMasterKeyUnavailable = errors.New(
		"wallet private key unavailable, first decrypt with second password",
	)
	// ErrLegacyAddressNotFound ...
	ErrLegacyAddressNotFound = errors.New("legacy address not found")
	// ErrDuplicateLegacyAddress ...
	ErrDuplicateLegacyAddress = errors.New("legacy address already in wallet")
	// ErrWalletNotUpgraded ...
	ErrWalletNotUpgraded = errors.New("wallet has no HD wallet")
	// ErrWalletAlreadyUpgraded ...
	ErrWalletAlreadyUpgraded = errors.New("wallet is already upgraded to HD")
	// ErrAlreadyDoubleEncrypted ...
	ErrAlreadyDoubleEncrypted = errors.New("wallet is already double encrypted")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params must not be null")
	// ErrInvalidTag ...
	ErrInvalidTag = errors.New("legacy address tag must be normal, imported or archived")
	// ErrNullAddress ...
	ErrNullAddress = errors.New("address must not be null")
	// ErrPayloadNotCached ...
	ErrPayloadNotCached = errors.New("no cached payload for wallet")
)
