package ports

import "context"

// Response is the outcome of a request to the remote wallet store that
// reached the server.
type Response interface {
	IsSuccessful() bool
	GetStatusCode() int
	GetBody() string
}

// WalletAPI is the remote wallet store, the only persistence boundary of
// wallet documents. Every method returns an error only for transport
// failures, a rejected request is reported by the Response.
type WalletAPI interface {
	FetchWalletData(ctx context.Context, guid, sharedKey string) (Response, error)
	InsertWallet(
		ctx context.Context, guid, sharedKey, payload, checksum, email, device string,
	) (Response, error)
	// UpdateWallet must be rejected if the stored checksum does not match
	// oldChecksum.
	UpdateWallet(
		ctx context.Context,
		guid, sharedKey, payload, newChecksum, oldChecksum string,
		syncAddresses []string, device string,
	) (Response, error)
	FetchPairingEncryptionPassword(ctx context.Context, guid string) (Response, error)
}
