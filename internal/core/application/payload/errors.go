package payload

import "errors"

var (
	// ErrInvalidCredentials is returned when the remote store does not know
	// the given guid or shared key
	ErrInvalidCredentials = errors.New("invalid wallet credentials")
	// ErrAccountLocked is returned when the wallet exists but access has been
	// suspended
	ErrAccountLocked = errors.New("wallet account is locked")
	// ErrServerConnection is returned for every non successful response of
	// the remote store that is not otherwise classified
	ErrServerConnection = errors.New("remote wallet store request failed")
	// ErrWallet wraps every failure, other than decryption ones, of the
	// initialization from a payload string
	ErrWallet = errors.New("failed to initialize wallet from payload")
	// ErrSaveFailed is returned by mutations whose save has been rejected by
	// the remote store. The mutation is reverted.
	ErrSaveFailed = errors.New("failed to save wallet, changes reverted")
	// ErrWalletNotInitialized ...
	ErrWalletNotInitialized = errors.New("save aborted, wallet not initialized")
	// ErrInconsistentEncryption ...
	ErrInconsistentEncryption = errors.New(
		"save aborted, payload corrupted: key encryption not consistent",
	)
	// ErrMissingDevice ...
	ErrMissingDevice = errors.New("save aborted, device name not specified")
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params must not be null")
	// ErrNullPassword ...
	ErrNullPassword = errors.New("password must not be null")
	// ErrMissingCache is returned when initializing from the local cache
	// without a configured repository
	ErrMissingCache = errors.New("local payload cache not configured")
)
